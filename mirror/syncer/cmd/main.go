// Command mirror_repos synchronizes the repositories of a
// GitHub account onto a destination git hosting platform.
// It lists both sides, creates the missing destination
// repositories, and clones and force-pushes each source
// repository using a bounded worker pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/byte4ever/repo_mirror/mirror/dest"
	"github.com/byte4ever/repo_mirror/mirror/dest/azuredevops"
	"github.com/byte4ever/repo_mirror/mirror/dest/gitlab"
	"github.com/byte4ever/repo_mirror/mirror/source"
	"github.com/byte4ever/repo_mirror/mirror/source/github"
	"github.com/byte4ever/repo_mirror/mirror/syncer"
	"github.com/byte4ever/repo_mirror/mirror/transfer"
)

// envOr returns the environment variable value, or the
// fallback when the variable is unset or empty.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run() error {
	const errCtx = "running mirror_repos"

	// Source flags.
	sourceOwner := flag.String(
		"source_owner", envOr("USER_ORG", ""),
		"GitHub user whose repositories are mirrored "+
			"(empty lists the authenticated account)",
	)
	sourceEnterpriseHost := flag.String(
		"source_enterprise_host", "",
		"GitHub Enterprise hostname",
	)
	restrictedPrefix := flag.String(
		"restricted_prefix", "restricted",
		"Repository name prefix that is never mirrored",
	)
	assetPrefix := flag.String(
		"asset_prefix", "asset",
		"Repository name prefix excluded from mirroring",
	)
	namePrefix := flag.String(
		"name_prefix", "",
		"Mirror only repositories with this name prefix",
	)

	// Destination flags.
	destServer := flag.String(
		"dest_server", syncer.DestAzureDevOps,
		"Destination platform: azuredevops or gitlab",
	)
	organization := flag.String(
		"organization", envOr("USER_ORG", ""),
		"Azure DevOps organization",
	)
	project := flag.String(
		"project", "repo-sync",
		"Azure DevOps project holding the mirrors",
	)
	gitlabHost := flag.String(
		"gitlab_host", "",
		"GitLab instance URL",
	)
	gitlabGroup := flag.String(
		"gitlab_group", "",
		"GitLab group path holding the mirrors",
	)

	// Transfer flags.
	scratchRoot := flag.String(
		"scratch_root",
		envOr("RUNNER_TEMP", os.TempDir()),
		"Directory for scratch clones",
	)
	parallelism := flag.Int(
		"parallelism", 4,
		"Number of concurrent transfer workers",
	)
	historyMode := flag.String(
		"history_mode", "squash",
		"History replication mode: squash or full",
	)
	cloneDepth := flag.Int(
		"clone_depth", 0,
		"Shallow clone depth (0 clones full history)",
	)
	commitMessage := flag.String(
		"commit_message", "",
		"Template for squashed snapshot commit messages",
	)
	authorName := flag.String(
		"author_name", "repo-mirror",
		"Committer name for snapshot commits",
	)
	authorEmail := flag.String(
		"author_email", "repo-mirror@localhost",
		"Committer email for snapshot commits",
	)
	fetchLFS := flag.Bool(
		"lfs", false,
		"Additionally fetch git-lfs objects",
	)
	dryRun := flag.Bool(
		"dry_run", false,
		"Skip destination creation and push",
	)

	configPath := flag.String(
		"config", "",
		"Optional YAML settings file overlaying flags",
	)

	flag.Parse()

	st := syncer.Settings{
		SourceOwner:          *sourceOwner,
		SourceEnterpriseHost: *sourceEnterpriseHost,
		RestrictedPrefix:     *restrictedPrefix,
		AssetPrefix:          *assetPrefix,
		NamePrefix:           *namePrefix,
		DestServer:           *destServer,
		Organization:         *organization,
		Project:              *project,
		GitLabHost:           *gitlabHost,
		GitLabGroup:          *gitlabGroup,
		ScratchRoot:          *scratchRoot,
		Parallelism:          *parallelism,
		HistoryMode:          *historyMode,
		CloneDepth:           *cloneDepth,
		CommitTemplate:       *commitMessage,
		AuthorName:           *authorName,
		AuthorEmail:          *authorEmail,
		FetchLFS:             *fetchLFS,
		DryRun:               *dryRun,
	}

	if *configPath != "" {
		if err := syncer.ApplyFile(
			&st, *configPath,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	// Tokens come from the environment unless the
	// settings file already provided them.
	if st.SourceToken == "" {
		st.SourceToken = os.Getenv("GH_TOKEN")
	}

	if st.DestToken == "" {
		switch st.DestServer {
		case syncer.DestGitLab:
			st.DestToken = os.Getenv("GITLAB_TOKEN")
		default:
			st.DestToken = os.Getenv(
				"ADO_PERSONAL_ACCESS_TOKEN",
			)
		}
	}

	if err := st.Validate(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	lister, err := newLister(st)
	if err != nil {
		return fmt.Errorf(
			"%s: create lister: %w", errCtx, err,
		)
	}

	destination, err := newDestination(st)
	if err != nil {
		return fmt.Errorf(
			"%s: create destination: %w", errCtx, err,
		)
	}

	mode, err := transfer.ParseMode(st.HistoryMode)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	sourceLabel := "GitHub"
	if st.SourceEnterpriseHost != "" {
		sourceLabel = st.SourceEnterpriseHost
	}

	rep, err := syncer.Run(
		context.Background(),
		syncer.Config{
			Lister:         lister,
			Destination:    destination,
			ScratchRoot:    st.ScratchRoot,
			Parallelism:    st.Parallelism,
			Mode:           mode,
			CloneDepth:     st.CloneDepth,
			CommitTemplate: st.CommitTemplate,
			AuthorName:     st.AuthorName,
			AuthorEmail:    st.AuthorEmail,
			SourceLabel:    sourceLabel,
			FetchLFS:       st.FetchLFS,
			DryRun:         st.DryRun,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if out := os.Getenv("GITHUB_OUTPUT"); out != "" {
		if err := syncer.AppendOutput(
			out,
			"synchronization-time",
			syncer.FormatDuration(rep.Elapsed),
		); err != nil {
			slog.Warn(
				"cannot write step output",
				"error", err,
			)
		}
	}

	// Per-repository failures are reported, not fatal:
	// the next scheduled run retries them.
	if fails := rep.Failures(); len(fails) > 0 {
		slog.Warn(
			"synchronization completed with failures",
			"failed", len(fails),
		)
	}

	return nil
}

// newLister creates the source platform lister.
func newLister(st syncer.Settings) (source.Lister, error) {
	const errCtx = "creating source lister"

	ls, err := github.NewLister(github.Config{
		Owner:          st.SourceOwner,
		AccessToken:    st.SourceToken,
		EnterpriseHost: st.SourceEnterpriseHost,
		Filter: source.Filter{
			RestrictedPrefix: st.RestrictedPrefix,
			AssetPrefix:      st.AssetPrefix,
			AllowPrefix:      st.NamePrefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return ls, nil
}

// newDestination creates a dest.Destination based on the
// server name. Pattern: Factory -- selects platform
// implementation at runtime.
func newDestination(
	st syncer.Settings,
) (dest.Destination, error) {
	const errCtx = "creating destination"

	switch st.DestServer {
	case syncer.DestAzureDevOps:
		d, err := azuredevops.NewDestination(
			azuredevops.Config{
				Organization: st.Organization,
				Project:      st.Project,
				AccessToken:  st.DestToken,
			},
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return d, nil

	case syncer.DestGitLab:
		d, err := gitlab.NewDestination(gitlab.Config{
			Host:        st.GitLabHost,
			Group:       st.GitLabGroup,
			AccessToken: st.DestToken,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return d, nil

	default:
		return nil, fmt.Errorf(
			"%s: unknown server %q",
			errCtx, st.DestServer,
		)
	}
}
