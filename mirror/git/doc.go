// Package git wraps the git command line with the repository operations a
// mirroring run needs.
//
// Repo represents a local clone. Clone creates one from a remote URL with an
// optional shallow depth. The methods cover the two replication styles: Reinit
// plus CommitAll collapse the checkout into a fresh single-commit history,
// while CreateBranch keeps the original commits. AddRemote, Pull, and
// PushForce talk to the destination remote. Clean removes the scratch clone.
//
// All operations shell out through the exec package, so credentials embedded
// in remote URLs are masked before anything is logged.
package git
