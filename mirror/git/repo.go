package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/byte4ever/repo_mirror/mirror/exec"
)

// DestinationRemote is the name under which the
// destination platform remote is registered on a clone.
const DestinationRemote = "destination"

// Repo is a local clone of a git repository. Create
// with Clone, and call Clean when done.
type Repo struct {
	// Dir is the filesystem location of the clone.
	Dir string
	// RemoteName is the name of the destination
	// remote registered with AddRemote.
	RemoteName string
}

// Clone clones a single branch of a repository into dir.
// Pass the full repository URL (e.g.
// "https://github.com/org/repo.git"). A depth greater
// than zero produces a shallow clone truncated to that
// many commits. Any existing content at dir is removed
// first, and a partial clone left behind by a failed
// attempt is removed before returning.
//
//nolint:gosec // URL and paths originate from CLI flags
func Clone(
	url string,
	dir string,
	branch string,
	depth int,
) (*Repo, error) {
	const errCtx = "cloning repository"

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf(
			"%s: remove dir: %w", errCtx, err,
		)
	}

	args := []string{
		"clone",
		"--single-branch",
		"--branch", branch,
		"--no-tags",
	}

	if depth > 0 {
		args = append(
			args,
			"--depth", strconv.Itoa(depth),
		)
	}

	args = append(args, url, dir)

	if _, err := exec.Ex("", "git", args...); err != nil {
		_ = os.RemoveAll(dir)

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Repo{
		Dir:        dir,
		RemoteName: DestinationRemote,
	}, nil
}

// Clean removes the local clone directory.
func (r *Repo) Clean() error {
	const errCtx = "cleaning repository"

	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Reinit discards the clone's entire history and starts
// a fresh repository on the given branch, keeping the
// working tree files. The commit identity is configured
// locally so commits work on runners without a global
// git config.
func (r *Repo) Reinit(
	branch string,
	authorName string,
	authorEmail string,
) error {
	const errCtx = "reinitializing repository"

	gitDir := filepath.Join(r.Dir, ".git")
	if err := os.RemoveAll(gitDir); err != nil {
		return fmt.Errorf(
			"%s: remove .git: %w", errCtx, err,
		)
	}

	cmds := [][]string{
		{"init", "-b", branch},
		{"config", "user.name", authorName},
		{"config", "user.email", authorEmail},
	}

	for _, args := range cmds {
		if _, err := exec.Ex(
			r.Dir, "git", args...,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}

// CommitAll stages every file in the working tree,
// including dotfiles, and commits them with the given
// message.
func (r *Repo) CommitAll(message string) error {
	const errCtx = "committing working tree"

	if _, err := exec.Ex(
		r.Dir, "git", "add", "-A",
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := exec.Ex(
		r.Dir, "git", "commit", "-m", message,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// CreateBranch creates and checks out a new local
// branch at the current HEAD.
func (r *Repo) CreateBranch(name string) error {
	const errCtx = "creating branch"

	if _, err := exec.Ex(
		r.Dir, "git", "checkout", "-b", name,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// AddRemote registers url as the destination remote.
func (r *Repo) AddRemote(url string) error {
	const errCtx = "adding remote"

	if _, err := exec.Ex(
		r.Dir, "git",
		"remote", "add", r.RemoteName, url,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Pull merges the given branch of the destination
// remote into the current branch.
func (r *Repo) Pull(branch string) error {
	const errCtx = "pulling from destination"

	if _, err := exec.Ex(
		r.Dir, "git",
		"pull", r.RemoteName, branch,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// PushForce force-pushes the given refspec to the
// destination remote, overwriting whatever the remote
// currently holds.
func (r *Repo) PushForce(refspec string) error {
	const errCtx = "pushing to destination"

	if _, err := exec.Ex(
		r.Dir, "git",
		"push", "--force", r.RemoteName, refspec,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// HeadRevision returns the full hash of the commit at
// HEAD.
func (r *Repo) HeadRevision() (string, error) {
	const errCtx = "resolving HEAD"

	out, err := exec.Ex(
		r.Dir, "git", "rev-parse", "HEAD",
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return strings.TrimSpace(out), nil
}

// GetLastCommitMessage returns the most recent commit
// message on the current branch. Returns empty string
// on error.
func (r *Repo) GetLastCommitMessage() string {
	msg, err := exec.Ex(
		r.Dir, "git", "log", "-1", "--pretty=%B",
	)
	if err != nil {
		return ""
	}

	return msg
}

// LFSPull downloads git-lfs objects for the current
// checkout. Requires the git-lfs extension on PATH.
func (r *Repo) LFSPull() error {
	const errCtx = "pulling lfs objects"

	if _, err := exec.Ex(
		r.Dir, "git", "lfs", "pull",
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
