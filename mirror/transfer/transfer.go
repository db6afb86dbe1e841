// Package transfer replicates a single source repository
// onto the destination platform: clone, optional history
// rewrite, and force push.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/byte4ever/repo_mirror/mirror/commitmsg"
	"github.com/byte4ever/repo_mirror/mirror/dest"
	"github.com/byte4ever/repo_mirror/mirror/git"
	"github.com/byte4ever/repo_mirror/mirror/source"
)

// Mode selects how much history a mirrored repository
// keeps.
type Mode string

const (
	// ModeSquash collapses the source checkout into a
	// single synthetic commit. Source history never
	// reaches the destination.
	ModeSquash Mode = "squash"

	// ModeFull pushes the source commits unchanged.
	ModeFull Mode = "full"
)

// mirrorBranch is the local staging branch used in full
// mode before pushing to the destination default branch.
const mirrorBranch = "mirror"

// ParseMode converts a mode flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSquash:
		return ModeSquash, nil
	case ModeFull:
		return ModeFull, nil
	}

	return "", fmt.Errorf(
		"unknown history mode %q (want %q or %q)",
		s, ModeSquash, ModeFull,
	)
}

// Config holds the settings shared by every transfer of
// a run. Use a Config struct instead of many arguments.
type Config struct {
	// Mode selects squash or full history replication.
	// Empty defaults to squash.
	Mode Mode

	// CloneDepth truncates the source clone to this
	// many commits. Zero clones the full history. Full
	// mode pushes exactly what was cloned, so a depth
	// there prunes destination history too.
	CloneDepth int

	// ScratchRoot is the directory that holds the
	// per-repository scratch clones.
	ScratchRoot string

	// CommitTemplate is the message template for
	// squashed snapshot commits. Empty falls back to
	// commitmsg.DefaultTemplate.
	CommitTemplate string

	// AuthorName and AuthorEmail identify the committer
	// of squashed snapshot commits.
	AuthorName  string
	AuthorEmail string

	// SourceLabel names the source platform in commit
	// messages (the {{source}} placeholder).
	SourceLabel string

	// FetchLFS additionally downloads git-lfs objects
	// after cloning. Requires git-lfs on PATH.
	FetchLFS bool

	// DryRun skips destination creation and push when
	// true. Clone and rewrite still happen locally.
	DryRun bool
}

// Engine transfers repositories into one destination.
type Engine struct {
	cfg Config
	dst dest.Destination
}

// New validates cfg and returns an Engine ready to run
// transfers against dst.
func New(cfg Config, dst dest.Destination) (*Engine, error) {
	const errCtx = "creating transfer engine"

	if dst == nil {
		return nil, fmt.Errorf(
			"%s: destination must be set", errCtx,
		)
	}

	if cfg.ScratchRoot == "" {
		return nil, fmt.Errorf(
			"%s: scratch root must be set", errCtx,
		)
	}

	if cfg.Mode == "" {
		cfg.Mode = ModeSquash
	}

	if cfg.Mode != ModeSquash && cfg.Mode != ModeFull {
		return nil, fmt.Errorf(
			"%s: unknown mode %q", errCtx, cfg.Mode,
		)
	}

	if cfg.AuthorName == "" {
		cfg.AuthorName = "repo-mirror"
	}

	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = "repo-mirror@localhost"
	}

	return &Engine{cfg: cfg, dst: dst}, nil
}

// Options selects the per-repository behaviors decided
// by the batch coordinator.
type Options struct {
	// Create provisions the destination repository
	// before pushing.
	Create bool

	// PullFirst attempts a best-effort pull of the
	// destination state before the force push. A
	// failing pull is logged and ignored.
	PullFirst bool
}

// Run mirrors one repository onto the destination. A
// repository without commits is skipped and reported as
// success. The scratch clone is removed on every path
// once the clone has been created.
func (e *Engine) Run(
	ctx context.Context,
	repo source.Repository,
	opts Options,
) error {
	const errCtx = "transferring repository"

	// A repository without commits has no default
	// branch to mirror.
	if repo.DefaultBranch == "" {
		slog.Info(
			"skipping repository without commits",
			"repository", repo.Name,
		)

		return nil
	}

	slog.Info(
		"mirroring repository",
		"repository", repo.Name,
		"branch", repo.DefaultBranch,
		"mode", string(e.cfg.Mode),
		"destination", e.dst.Host(),
	)

	name := dest.NormalizeName(repo.Name)

	// Step 1: Provision the destination repository.
	if opts.Create {
		if e.cfg.DryRun {
			slog.Info(
				"dry run: skipping creation",
				"repository", name,
			)
		} else if err := e.dst.Create(
			ctx, name,
		); err != nil {
			return fmt.Errorf(
				"%s: create %s: %w",
				errCtx, name, err,
			)
		}
	}

	// Step 2: Clone the source into scratch space.
	dir := filepath.Join(e.cfg.ScratchRoot, repo.Name)

	rp, err := git.Clone(
		repo.CloneURL,
		dir,
		repo.DefaultBranch,
		e.cfg.CloneDepth,
	)
	if err != nil {
		return fmt.Errorf(
			"%s: clone %s: %w", errCtx, repo.Name, err,
		)
	}

	defer func() {
		if cleanErr := rp.Clean(); cleanErr != nil {
			slog.Error(
				"failed to clean scratch clone",
				"repository", repo.Name,
				"error", cleanErr,
			)
		}
	}()

	if e.cfg.FetchLFS {
		if err := rp.LFSPull(); err != nil {
			return fmt.Errorf(
				"%s: lfs pull %s: %w",
				errCtx, repo.Name, err,
			)
		}
	}

	// Step 3: Rewrite or keep history.
	refspec := mirrorBranch +
		":refs/heads/" + repo.DefaultBranch

	switch e.cfg.Mode {
	case ModeSquash:
		if err := e.squash(rp, repo); err != nil {
			return fmt.Errorf(
				"%s: squash %s: %w",
				errCtx, repo.Name, err,
			)
		}

		refspec = "HEAD:refs/heads/" +
			repo.DefaultBranch
	case ModeFull:
		if err := rp.CreateBranch(
			mirrorBranch,
		); err != nil {
			return fmt.Errorf(
				"%s: branch %s: %w",
				errCtx, repo.Name, err,
			)
		}
	}

	// Step 4: Register the destination remote.
	if err := rp.AddRemote(
		e.dst.PushURL(name),
	); err != nil {
		return fmt.Errorf(
			"%s: add remote %s: %w",
			errCtx, repo.Name, err,
		)
	}

	// A failing pull is expected when histories are
	// unrelated; the force push below still converges.
	if opts.PullFirst {
		if err := rp.Pull(
			repo.DefaultBranch,
		); err != nil {
			slog.Warn(
				"cannot pull destination state",
				"repository", repo.Name,
				"error", err,
			)
		}
	}

	// Step 5: Force push.
	if e.cfg.DryRun {
		slog.Info(
			"dry run: skipping push",
			"repository", repo.Name,
		)

		return nil
	}

	if err := rp.PushForce(refspec); err != nil {
		return fmt.Errorf(
			"%s: push %s: %w", errCtx, repo.Name, err,
		)
	}

	slog.Info(
		"repository mirrored",
		"repository", repo.Name,
		"destination", e.dst.Host(),
	)

	return nil
}

// squash records the source revision, then replaces the
// clone's history with a single snapshot commit carrying
// the rendered message.
func (e *Engine) squash(
	rp *git.Repo,
	repo source.Repository,
) error {
	rev, err := rp.HeadRevision()
	if err != nil {
		return err
	}

	msg := commitmsg.Render(
		e.cfg.CommitTemplate,
		commitmsg.Vars{
			Repository: repo.Name,
			Branch:     repo.DefaultBranch,
			Revision:   rev,
			Source:     e.cfg.SourceLabel,
		},
	)

	if err := rp.Reinit(
		repo.DefaultBranch,
		e.cfg.AuthorName,
		e.cfg.AuthorEmail,
	); err != nil {
		return err
	}

	return rp.CommitAll(msg)
}
