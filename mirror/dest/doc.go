// Package dest defines the strategy interface for the destination side of a
// mirroring run: listing what already exists, creating what is missing, and
// building authenticated push URLs.
//
// Implementations exist for Azure DevOps and GitLab in sub-packages.
// NormalizeName rewrites repository names the destination platforms reject.
package dest
