package azuredevops

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/repo_mirror/mirror/dest"
)

// DefaultBaseURL is the Azure DevOps Services endpoint.
const DefaultBaseURL = "https://dev.azure.com"

// apiVersion pins the REST contract of the git
// repositories resource.
const apiVersion = "6.0"

// Config holds the settings needed to reach the git
// repositories of one Azure DevOps project.
type Config struct {
	// Organization is the Azure DevOps organization
	// name.
	Organization string
	// Project is the project that holds the mirrored
	// repositories.
	Project string
	// AccessToken is a personal access token with code
	// read/write scope. It is sent as the basic-auth
	// password with an empty username.
	AccessToken string
	// BaseURL overrides the Azure DevOps endpoint. Used
	// in tests. Leave empty for dev.azure.com.
	BaseURL string
}

// Destination lists, creates, and addresses the
// repositories of one Azure DevOps project.
//
// Pattern: Strategy -- implements dest.Destination.
type Destination struct {
	base         *url.URL
	organization string
	project      string
	token        string
}

type repository struct {
	Name string `json:"name"`
}

type repositoryList struct {
	Count int          `json:"count"`
	Value []repository `json:"value"`
}

// NewDestination validates cfg and returns a Destination
// ready to use.
func NewDestination(cfg Config) (*Destination, error) {
	const errCtx = "creating azure devops destination"

	if cfg.Organization == "" {
		return nil, fmt.Errorf(
			"%s: organization must be set", errCtx,
		)
	}

	if cfg.Project == "" {
		return nil, fmt.Errorf(
			"%s: project must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	parsed, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return nil, fmt.Errorf(
			"%s: base url: %w", errCtx, err,
		)
	}

	return &Destination{
		base:         parsed,
		organization: cfg.Organization,
		project:      cfg.Project,
		token:        cfg.AccessToken,
	}, nil
}

// List returns the names of the repositories that exist
// in the project.
func (d *Destination) List(
	ctx context.Context,
) ([]string, error) {
	const errCtx = "listing azure devops repositories"

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		d.repositoriesURL(),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: build request: %w", errCtx, err,
		)
	}

	req.SetBasicAuth("", d.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: send request: %w", errCtx, err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: read response body: %w", errCtx, err,
		)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn(
			"azure devops response",
			"status", resp.Status,
			"body", string(rb),
		)

		return nil, fmt.Errorf(
			"%s: unexpected status %d",
			errCtx, resp.StatusCode,
		)
	}

	var list repositoryList
	if err := json.Unmarshal(rb, &list); err != nil {
		return nil, fmt.Errorf(
			"%s: decode response: %w", errCtx, err,
		)
	}

	names := make([]string, 0, len(list.Value))
	for _, r := range list.Value {
		names = append(names, r.Name)
	}

	return names, nil
}

// Create provisions a repository in the project. A name
// that already exists (HTTP 409) is treated as success.
func (d *Destination) Create(
	ctx context.Context,
	name string,
) error {
	const errCtx = "creating azure devops repository"

	name = dest.NormalizeName(name)

	payload, err := json.Marshal(&repository{Name: name})
	if err != nil {
		return fmt.Errorf(
			"%s: marshal request: %w", errCtx, err,
		)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.repositoriesURL(),
		bytes.NewBuffer(payload),
	)
	if err != nil {
		return fmt.Errorf(
			"%s: build request: %w", errCtx, err,
		)
	}

	req.Header.Set(
		"Content-Type",
		"application/json; charset=utf-8",
	)
	req.SetBasicAuth("", d.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf(
			"%s: send request: %w", errCtx, err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	// 200/201: the repository was created.
	if resp.StatusCode == http.StatusOK ||
		resp.StatusCode == http.StatusCreated {
		slog.Info("repository created", "name", name)

		return nil
	}

	// 409 Conflict: the repository already exists.
	if resp.StatusCode == http.StatusConflict {
		slog.Info(
			"reusing existing repository",
			"name", name,
		)

		return nil
	}

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn(
			"cannot read response body",
			"error", err,
		)
	} else {
		slog.Warn(
			"azure devops response",
			"status", resp.Status,
			"body", string(rb),
		)
	}

	return fmt.Errorf(
		"%s: unexpected status %d",
		errCtx, resp.StatusCode,
	)
}

// PushURL returns the repository's HTTPS URL with the
// access token embedded as userinfo.
func (d *Destination) PushURL(name string) string {
	u := *d.base
	u.User = url.User(d.token)
	u.Path = path.Join(
		u.Path,
		d.organization,
		d.project,
		"_git",
		dest.NormalizeName(name),
	)

	return u.String()
}

// Host returns the Azure DevOps host.
func (d *Destination) Host() string {
	return d.base.Host
}

// repositoriesURL returns the project's repositories
// resource URL.
func (d *Destination) repositoriesURL() string {
	return fmt.Sprintf(
		"%s/%s/%s/_apis/git/repositories?api-version=%s",
		d.base,
		url.PathEscape(d.organization),
		url.PathEscape(d.project),
		apiVersion,
	)
}
