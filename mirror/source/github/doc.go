// Package github implements a source.Lister that enumerates the repositories
// of a GitHub account (cloud or enterprise). Configure with a Config holding
// the owner, personal access token, and name filter. Set EnterpriseHost for
// GitHub Enterprise installations.
package github
