// Package syncer orchestrates a full mirroring run. It enumerates the source
// repositories through a source.Lister, lists what already exists on the
// dest.Destination, partitions the work into new and existing repositories,
// and dispatches the transfers on a worker pool bounded by the configured
// parallelism. New repositories are created on the destination first;
// existing ones get a best-effort pull before the force push.
//
// The main entry point is Run, which accepts a Config struct with all
// parameters for the workflow and returns a Report. Settings carries the
// flag, environment, and YAML file representation of those parameters.
package syncer
