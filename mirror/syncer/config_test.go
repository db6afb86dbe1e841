package syncer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_mirror/mirror/syncer"
)

// validSettings returns settings that pass validation
// for an Azure DevOps destination.
func validSettings() syncer.Settings {
	return syncer.Settings{
		SourceOwner:  "acme",
		SourceToken:  "gh-tok",
		DestServer:   syncer.DestAzureDevOps,
		DestToken:    "ado-tok",
		Organization: "acme",
		Project:      "repo-sync",
		ScratchRoot:  "/tmp/mirror",
		Parallelism:  4,
		HistoryMode:  "squash",
	}
}

func TestApplyFile_overlays_set_keys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	content := `
parallelism: 8
dry_run: true
organization: from-file
`

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	st := validSettings()

	err = syncer.ApplyFile(&st, path)

	require.NoError(t, err)
	assert.Equal(t, 8, st.Parallelism)
	assert.True(t, st.DryRun)
	assert.Equal(t, "from-file", st.Organization)

	// Keys absent from the file stay untouched.
	assert.Equal(t, "gh-tok", st.SourceToken)
	assert.Equal(t, "repo-sync", st.Project)
	assert.Equal(t, "squash", st.HistoryMode)
}

func TestApplyFile_missing_file(t *testing.T) {
	t.Parallel()

	st := validSettings()

	err := syncer.ApplyFile(
		&st,
		filepath.Join(t.TempDir(), "nope.yaml"),
	)

	assert.ErrorContains(t, err, "applying settings file")
}

func TestApplyFile_malformed_yaml(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	err := os.WriteFile(
		path,
		[]byte("parallelism: [not an int\n"),
		0o600,
	)
	require.NoError(t, err)

	st := validSettings()

	err = syncer.ApplyFile(&st, path)

	assert.Error(t, err)
}

func TestSettings_Validate_azuredevops(t *testing.T) {
	t.Parallel()

	st := validSettings()

	assert.NoError(t, st.Validate())
}

func TestSettings_Validate_gitlab(t *testing.T) {
	t.Parallel()

	st := validSettings()
	st.DestServer = syncer.DestGitLab
	st.Organization = ""
	st.Project = ""
	st.GitLabGroup = "mirrors"

	assert.NoError(t, st.Validate())
}

func TestSettings_Validate_failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*syncer.Settings)
		wantErr string
	}{
		{
			name: "missing source token",
			mutate: func(st *syncer.Settings) {
				st.SourceToken = ""
			},
			wantErr: "source token",
		},
		{
			name: "missing scratch root",
			mutate: func(st *syncer.Settings) {
				st.ScratchRoot = ""
			},
			wantErr: "scratch root",
		},
		{
			name: "zero parallelism",
			mutate: func(st *syncer.Settings) {
				st.Parallelism = 0
			},
			wantErr: "parallelism",
		},
		{
			name: "negative clone depth",
			mutate: func(st *syncer.Settings) {
				st.CloneDepth = -1
			},
			wantErr: "clone depth",
		},
		{
			name: "unknown history mode",
			mutate: func(st *syncer.Settings) {
				st.HistoryMode = "rebase"
			},
			wantErr: "unknown history mode",
		},
		{
			name: "unknown destination server",
			mutate: func(st *syncer.Settings) {
				st.DestServer = "gitea"
			},
			wantErr: "unknown destination server",
		},
		{
			name: "missing organization",
			mutate: func(st *syncer.Settings) {
				st.Organization = ""
			},
			wantErr: "organization",
		},
		{
			name: "missing project",
			mutate: func(st *syncer.Settings) {
				st.Project = ""
			},
			wantErr: "project",
		},
		{
			name: "missing gitlab group",
			mutate: func(st *syncer.Settings) {
				st.DestServer = syncer.DestGitLab
				st.GitLabGroup = ""
			},
			wantErr: "gitlab group",
		},
		{
			name: "missing destination token",
			mutate: func(st *syncer.Settings) {
				st.DestToken = ""
			},
			wantErr: "destination token",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := validSettings()
			tt.mutate(&st)

			err := st.Validate()

			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
