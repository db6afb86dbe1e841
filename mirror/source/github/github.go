package github

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/repo_mirror/mirror/source"
)

// Config holds the settings needed to create a GitHub
// repository lister.
type Config struct {
	// Owner is the GitHub user whose repositories are
	// listed. Leave empty to list the repositories
	// visible to the authenticated account.
	Owner string
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// APIBaseURL overrides the API endpoint. Used in
	// tests. Leave empty for the public API.
	APIBaseURL string
	// Filter holds the name rules applied to the
	// listing before it is returned.
	Filter source.Filter
}

// Lister enumerates repositories on GitHub.
//
// Pattern: Strategy -- implements source.Lister.
type Lister struct {
	client *gh.Client
	owner  string
	filter source.Filter
}

// NewLister validates cfg and returns a Lister ready to
// enumerate repositories.
func NewLister(cfg Config) (*Lister, error) {
	const errCtx = "creating github lister"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	if cfg.EnterpriseHost != "" {
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	if cfg.APIBaseURL != "" {
		base, err := url.Parse(cfg.APIBaseURL)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: api base url: %w", errCtx, err,
			)
		}

		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}

		client.BaseURL = base
	}

	return &Lister{
		client: client,
		owner:  cfg.Owner,
		filter: cfg.Filter,
	}, nil
}

// List returns the repositories visible to the lister,
// filtered by the configured name rules and sorted by
// name. Pagination is followed until exhausted.
func (l *Lister) List(
	ctx context.Context,
) ([]source.Repository, error) {
	const errCtx = "listing github repositories"

	var all []*gh.Repository

	page := 1

	for {
		repos, resp, err := l.listPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		all = append(all, repos...)

		if resp.NextPage == 0 {
			break
		}

		page = resp.NextPage
	}

	out := l.filter.Apply(toRepositories(all))

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out, nil
}

// listPage fetches one page of the listing, using the
// authenticated-user endpoint when no owner is set.
func (l *Lister) listPage(
	ctx context.Context,
	page int,
) ([]*gh.Repository, *gh.Response, error) {
	list := gh.ListOptions{
		Page:    page,
		PerPage: 100,
	}

	if l.owner == "" {
		opts := &gh.RepositoryListByAuthenticatedUserOptions{
			ListOptions: list,
		}

		return l.client.Repositories.
			ListByAuthenticatedUser(ctx, opts)
	}

	opts := &gh.RepositoryListByUserOptions{
		ListOptions: list,
	}

	return l.client.Repositories.ListByUser(
		ctx, l.owner, opts,
	)
}

// toRepositories maps the API model to the mirroring
// model. Repositories without commits keep their empty
// default branch so downstream stages can skip them.
func toRepositories(
	repos []*gh.Repository,
) []source.Repository {
	out := make([]source.Repository, 0, len(repos))

	for _, r := range repos {
		out = append(out, source.Repository{
			Name:          r.GetName(),
			DefaultBranch: r.GetDefaultBranch(),
			CloneURL:      r.GetCloneURL(),
		})
	}

	return out
}
