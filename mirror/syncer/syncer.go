// Package syncer orchestrates a full mirroring run. It
// enumerates the source repositories, provisions the
// missing destination repositories, and transfers each
// repository on a bounded worker pool.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/byte4ever/repo_mirror/mirror/dest"
	"github.com/byte4ever/repo_mirror/mirror/source"
	"github.com/byte4ever/repo_mirror/mirror/transfer"
)

// Config holds all settings for a mirroring run. Use a
// Config struct instead of many arguments.
type Config struct {
	// Lister enumerates the source repositories.
	Lister source.Lister

	// Destination receives the mirrored repositories.
	Destination dest.Destination

	// ScratchRoot is the directory that holds the
	// per-repository scratch clones.
	ScratchRoot string

	// Parallelism is the number of concurrent transfer
	// workers.
	Parallelism int

	// Mode selects squash or full history replication.
	Mode transfer.Mode

	// CloneDepth truncates the source clones to this
	// many commits. Zero clones full history.
	CloneDepth int

	// CommitTemplate is the message template for
	// squashed snapshot commits.
	CommitTemplate string

	// AuthorName and AuthorEmail identify the committer
	// of squashed snapshot commits.
	AuthorName  string
	AuthorEmail string

	// SourceLabel names the source platform in commit
	// messages.
	SourceLabel string

	// FetchLFS additionally downloads git-lfs objects
	// after cloning.
	FetchLFS bool

	// DryRun skips destination creation and push when
	// true.
	DryRun bool
}

// transferFunc runs one repository transfer. Narrowed
// from *transfer.Engine so the dispatcher can be
// exercised without real clones.
type transferFunc func(
	ctx context.Context,
	repo source.Repository,
	opts transfer.Options,
) error

// Run executes the full mirroring workflow and returns a
// Report. Per-repository failures are recorded in the
// report, not returned as an error; the returned error
// covers only failures that abort the whole run.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	const errCtx = "running mirror synchronization"

	start := time.Now()

	if cfg.Lister == nil {
		return nil, fmt.Errorf(
			"%s: lister must be set", errCtx,
		)
	}

	if cfg.Destination == nil {
		return nil, fmt.Errorf(
			"%s: destination must be set", errCtx,
		)
	}

	eng, err := transfer.New(transfer.Config{
		Mode:           cfg.Mode,
		CloneDepth:     cfg.CloneDepth,
		ScratchRoot:    cfg.ScratchRoot,
		CommitTemplate: cfg.CommitTemplate,
		AuthorName:     cfg.AuthorName,
		AuthorEmail:    cfg.AuthorEmail,
		SourceLabel:    cfg.SourceLabel,
		FetchLFS:       cfg.FetchLFS,
		DryRun:         cfg.DryRun,
	}, cfg.Destination)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 1: Enumerate source repositories.
	repos, err := cfg.Lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: list source: %w", errCtx, err,
		)
	}

	slog.Info(
		"source repositories listed",
		"count", len(repos),
	)

	// Step 2: Enumerate destination repositories.
	existing, err := cfg.Destination.List(ctx)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: list destination: %w", errCtx, err,
		)
	}

	slog.Info(
		"destination repositories listed",
		"count", len(existing),
		"host", cfg.Destination.Host(),
	)

	// Step 3: Partition into new and existing.
	newRepos, existingRepos := partition(repos, existing)

	slog.Info(
		"repositories partitioned",
		"new", len(newRepos),
		"existing", len(existingRepos),
	)

	// Step 4: Dispatch transfers on a bounded worker
	// pool.
	outcomes := dispatch(
		ctx,
		eng.Run,
		newRepos,
		existingRepos,
		cfg.Parallelism,
	)

	// Step 5: Summarize.
	rep := &Report{
		Outcomes:      outcomes,
		Elapsed:       time.Since(start),
		NewCount:      len(newRepos),
		ExistingCount: len(existingRepos),
	}

	for _, oc := range rep.Failures() {
		slog.Error(
			"repository transfer failed",
			"repository", oc.Repository,
			"error", oc.Err,
		)
	}

	slog.Info(
		"synchronization complete",
		"elapsed", FormatDuration(rep.Elapsed),
		"repositories", len(rep.Outcomes),
		"failed", len(rep.Failures()),
	)

	return rep, nil
}

// partition splits the source repositories by whether
// their normalized name already exists on the
// destination.
func partition(
	repos []source.Repository,
	destNames []string,
) (newRepos, existingRepos []source.Repository) {
	seen := make(map[string]struct{}, len(destNames))
	for _, n := range destNames {
		seen[n] = struct{}{}
	}

	for _, r := range repos {
		name := dest.NormalizeName(r.Name)

		if _, ok := seen[name]; ok {
			existingRepos = append(existingRepos, r)
		} else {
			newRepos = append(newRepos, r)
		}
	}

	return newRepos, existingRepos
}

// dispatch runs the transfers in parallel using a worker
// pool bounded by parallelism. New repositories get a
// creation step, existing ones a best-effort pull. One
// outcome is recorded per dispatched repository.
func dispatch(
	ctx context.Context,
	run transferFunc,
	newRepos []source.Repository,
	existingRepos []source.Repository,
	parallelism int,
) []Outcome {
	type task struct {
		repo source.Repository
		opts transfer.Options
	}

	tasks := make(
		[]task, 0, len(newRepos)+len(existingRepos),
	)

	for _, r := range newRepos {
		tasks = append(tasks, task{
			repo: r,
			opts: transfer.Options{Create: true},
		})
	}

	for _, r := range existingRepos {
		tasks = append(tasks, task{
			repo: r,
			opts: transfer.Options{PullFirst: true},
		})
	}

	if parallelism <= 0 {
		parallelism = 1
	}

	// Worker pool with bounded concurrency.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []Outcome
	)

	sem := make(chan struct{}, parallelism)

	for _, tk := range tasks {
		// Check for context cancellation.
		if ctx.Err() != nil {
			mu.Lock()
			outcomes = append(outcomes, Outcome{
				Repository: tk.repo.Name,
				Err:        ctx.Err(),
			})
			mu.Unlock()

			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(tk task) {
			defer wg.Done()
			defer func() { <-sem }()

			runErr := run(ctx, tk.repo, tk.opts)

			mu.Lock()
			outcomes = append(outcomes, Outcome{
				Repository: tk.repo.Name,
				Err:        runErr,
			})
			mu.Unlock()
		}(tk)
	}

	wg.Wait()

	return outcomes
}
