package github_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_mirror/mirror/source"
	ghsrc "github.com/byte4ever/repo_mirror/mirror/source/github"
)

func TestNewLister_valid(t *testing.T) {
	t.Parallel()

	ls, err := ghsrc.NewLister(ghsrc.Config{
		Owner:       "acme",
		AccessToken: "tok",
	})

	require.NoError(t, err)
	assert.NotNil(t, ls)
}

func TestNewLister_missing_token(t *testing.T) {
	t.Parallel()

	ls, err := ghsrc.NewLister(ghsrc.Config{
		Owner: "acme",
	})

	assert.Nil(t, ls)
	assert.ErrorContains(t, err, "access token")
}

func TestNewLister_enterprise_host(t *testing.T) {
	t.Parallel()

	ls, err := ghsrc.NewLister(ghsrc.Config{
		Owner:          "acme",
		AccessToken:    "tok",
		EnterpriseHost: "git.corp.example.com",
	})

	require.NoError(t, err)
	assert.NotNil(t, ls)
}

func TestLister_List_authenticated_user(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/user/repos", r.URL.Path)
			assert.Equal(
				t,
				"Bearer tok",
				r.Header.Get("Authorization"),
			)

			w.Header().Set(
				"Content-Type", "application/json",
			)
			fmt.Fprint(w, `[
				{
					"name": "gh-b",
					"default_branch": "main",
					"clone_url": "https://github.com/acme/gh-b.git"
				},
				{
					"name": "gh-a",
					"default_branch": "trunk",
					"clone_url": "https://github.com/acme/gh-a.git"
				}
			]`)
		},
	))
	defer ts.Close()

	ls, err := ghsrc.NewLister(ghsrc.Config{
		AccessToken: "tok",
		APIBaseURL:  ts.URL,
	})
	require.NoError(t, err)

	repos, err := ls.List(context.Background())

	require.NoError(t, err)
	require.Len(t, repos, 2)

	// Sorted by name.
	assert.Equal(t, "gh-a", repos[0].Name)
	assert.Equal(t, "trunk", repos[0].DefaultBranch)
	assert.Equal(
		t,
		"https://github.com/acme/gh-a.git",
		repos[0].CloneURL,
	)
	assert.Equal(t, "gh-b", repos[1].Name)
}

func TestLister_List_by_owner(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(
				t, "/users/acme/repos", r.URL.Path,
			)

			w.Header().Set(
				"Content-Type", "application/json",
			)
			fmt.Fprint(w, `[
				{
					"name": "tool",
					"default_branch": "main",
					"clone_url": "https://github.com/acme/tool.git"
				}
			]`)
		},
	))
	defer ts.Close()

	ls, err := ghsrc.NewLister(ghsrc.Config{
		Owner:       "acme",
		AccessToken: "tok",
		APIBaseURL:  ts.URL,
	})
	require.NoError(t, err)

	repos, err := ls.List(context.Background())

	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "tool", repos[0].Name)
}

func TestLister_List_follows_pagination(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc(
		"/user/repos",
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(
				"Content-Type", "application/json",
			)

			if r.URL.Query().Get("page") == "2" {
				fmt.Fprint(w, `[
					{
						"name": "page2",
						"default_branch": "main",
						"clone_url": "https://github.com/acme/page2.git"
					}
				]`)

				return
			}

			w.Header().Set(
				"Link",
				fmt.Sprintf(
					`<%s/user/repos?page=2>; rel="next"`,
					ts.URL,
				),
			)
			fmt.Fprint(w, `[
				{
					"name": "page1",
					"default_branch": "main",
					"clone_url": "https://github.com/acme/page1.git"
				}
			]`)
		},
	)

	ls, err := ghsrc.NewLister(ghsrc.Config{
		AccessToken: "tok",
		APIBaseURL:  ts.URL,
	})
	require.NoError(t, err)

	repos, err := ls.List(context.Background())

	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "page1", repos[0].Name)
	assert.Equal(t, "page2", repos[1].Name)
}

func TestLister_List_applies_filter(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(
				"Content-Type", "application/json",
			)
			fmt.Fprint(w, `[
				{
					"name": "gh-keep",
					"default_branch": "main",
					"clone_url": "https://github.com/acme/gh-keep.git"
				},
				{
					"name": "restricted-drop",
					"default_branch": "main",
					"clone_url": "https://github.com/acme/restricted-drop.git"
				}
			]`)
		},
	))
	defer ts.Close()

	ls, err := ghsrc.NewLister(ghsrc.Config{
		AccessToken: "tok",
		APIBaseURL:  ts.URL,
		Filter: source.Filter{
			RestrictedPrefix: "restricted",
		},
	})
	require.NoError(t, err)

	repos, err := ls.List(context.Background())

	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "gh-keep", repos[0].Name)
}

func TestLister_List_api_error(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(
				w, `{"message":"bad token"}`,
				http.StatusUnauthorized,
			)
		},
	))
	defer ts.Close()

	ls, err := ghsrc.NewLister(ghsrc.Config{
		AccessToken: "tok",
		APIBaseURL:  ts.URL,
	})
	require.NoError(t, err)

	repos, err := ls.List(context.Background())

	assert.Nil(t, repos)
	assert.ErrorContains(
		t, err, "listing github repositories",
	)
}
