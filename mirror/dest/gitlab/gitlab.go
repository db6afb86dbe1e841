package gitlab

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/repo_mirror/mirror/dest"
)

// Config holds the settings needed to mirror into a
// GitLab group.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Group is the full path of the group that holds
	// the mirrored projects (e.g. "acme/mirrors").
	Group string
	// AccessToken is a personal or group access token
	// used for authentication and for pushing.
	AccessToken string
}

// Destination lists, creates, and addresses the projects
// of one GitLab group.
//
// Pattern: Strategy -- implements dest.Destination.
type Destination struct {
	client *gl.Client
	host   *url.URL
	group  string
	token  string
}

// NewDestination validates cfg and returns a Destination
// ready to use.
func NewDestination(cfg Config) (*Destination, error) {
	const errCtx = "creating gitlab destination"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Group == "" {
		return nil, fmt.Errorf(
			"%s: group must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: host url: %w", errCtx, err,
		)
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Destination{
		client: client,
		host:   parsed,
		group:  cfg.Group,
		token:  cfg.AccessToken,
	}, nil
}

// List returns the project paths that exist in the
// group. Pagination is followed until exhausted.
func (d *Destination) List(
	ctx context.Context,
) ([]string, error) {
	const errCtx = "listing gitlab projects"

	opts := &gl.ListGroupProjectsOptions{
		ListOptions: gl.ListOptions{PerPage: 100},
	}

	var names []string

	for {
		projects, resp, err := d.client.Groups.
			ListGroupProjects(
				d.group, opts, gl.WithContext(ctx),
			)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		for _, p := range projects {
			names = append(names, p.Path)
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return names, nil
}

// Create provisions a project in the group. A path that
// is already taken (HTTP 400) is treated as success.
func (d *Destination) Create(
	ctx context.Context,
	name string,
) error {
	const errCtx = "creating gitlab project"

	name = dest.NormalizeName(name)

	group, _, err := d.client.Groups.GetGroup(
		d.group, nil, gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf(
			"%s: resolve group: %w", errCtx, err,
		)
	}

	opts := &gl.CreateProjectOptions{
		Name:        gl.Ptr(name),
		Path:        gl.Ptr(name),
		NamespaceID: gl.Ptr(group.ID),
	}

	created, resp, err := d.client.Projects.CreateProject(
		opts, gl.WithContext(ctx),
	)
	if err == nil {
		slog.Info(
			"project created",
			"name", name,
			"url", created.WebURL,
		)

		return nil
	}

	// HTTP 400: the project path is already taken.
	if resp != nil &&
		resp.StatusCode == http.StatusBadRequest {
		slog.Info(
			"reusing existing project",
			"name", name,
		)

		return nil
	}

	// Log the response body for debugging.
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close() //nolint:errcheck

		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			slog.Warn(
				"cannot read response body",
				"error", readErr,
			)
		} else {
			slog.Warn(
				"gitlab response",
				"body", string(rb),
			)
		}
	}

	return fmt.Errorf("%s: %w", errCtx, err)
}

// PushURL returns the project's HTTPS URL with the
// access token embedded as userinfo.
func (d *Destination) PushURL(name string) string {
	u := *d.host
	u.User = url.UserPassword("oauth2", d.token)
	u.Path = path.Join(
		u.Path,
		d.group,
		dest.NormalizeName(name),
	) + ".git"

	return u.String()
}

// Host returns the GitLab host.
func (d *Destination) Host() string {
	return d.host.Host
}
