package syncer

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/repo_mirror/mirror/transfer"
)

// Destination platform names accepted by Settings.
const (
	DestAzureDevOps = "azuredevops"
	DestGitLab      = "gitlab"
)

// Settings captures every run option that can come from
// command-line flags, environment variables, or a YAML
// settings file. File values override flag and
// environment values.
type Settings struct {
	// Source side.
	SourceOwner          string `yaml:"source_owner"`
	SourceToken          string `yaml:"source_token"`
	SourceEnterpriseHost string `yaml:"source_enterprise_host"`
	RestrictedPrefix     string `yaml:"restricted_prefix"`
	AssetPrefix          string `yaml:"asset_prefix"`
	NamePrefix           string `yaml:"name_prefix"`

	// Destination side.
	DestServer   string `yaml:"dest_server"`
	DestToken    string `yaml:"dest_token"`
	Organization string `yaml:"organization"`
	Project      string `yaml:"project"`
	GitLabHost   string `yaml:"gitlab_host"`
	GitLabGroup  string `yaml:"gitlab_group"`

	// Transfer behavior.
	ScratchRoot    string `yaml:"scratch_root"`
	Parallelism    int    `yaml:"parallelism"`
	HistoryMode    string `yaml:"history_mode"`
	CloneDepth     int    `yaml:"clone_depth"`
	CommitTemplate string `yaml:"commit_message"`
	AuthorName     string `yaml:"author_name"`
	AuthorEmail    string `yaml:"author_email"`
	FetchLFS       bool   `yaml:"fetch_lfs"`
	DryRun         bool   `yaml:"dry_run"`
}

// ApplyFile overlays st with the values set in the YAML
// file at path. Keys absent from the file leave the
// corresponding fields untouched.
func ApplyFile(st *Settings, path string) error {
	const errCtx = "applying settings file"

	content, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := yaml.Unmarshal(content, st); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Validate reports the first missing or invalid setting.
func (st *Settings) Validate() error {
	const errCtx = "validating settings"

	if st.SourceToken == "" {
		return fmt.Errorf(
			"%s: source token must be set", errCtx,
		)
	}

	if st.ScratchRoot == "" {
		return fmt.Errorf(
			"%s: scratch root must be set", errCtx,
		)
	}

	if st.Parallelism <= 0 {
		return fmt.Errorf(
			"%s: parallelism must be positive", errCtx,
		)
	}

	if st.CloneDepth < 0 {
		return fmt.Errorf(
			"%s: clone depth must not be negative",
			errCtx,
		)
	}

	if _, err := transfer.ParseMode(
		st.HistoryMode,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	switch st.DestServer {
	case DestAzureDevOps:
		if st.Organization == "" {
			return fmt.Errorf(
				"%s: organization must be set", errCtx,
			)
		}

		if st.Project == "" {
			return fmt.Errorf(
				"%s: project must be set", errCtx,
			)
		}
	case DestGitLab:
		if st.GitLabGroup == "" {
			return fmt.Errorf(
				"%s: gitlab group must be set", errCtx,
			)
		}
	default:
		return fmt.Errorf(
			"%s: unknown destination server %q",
			errCtx, st.DestServer,
		)
	}

	if st.DestToken == "" {
		return fmt.Errorf(
			"%s: destination token must be set", errCtx,
		)
	}

	return nil
}
