package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestRelease(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/bitcoin/bitcoin/releases/latest", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tag_name":"v25.1","name":"Bitcoin Core 25.1","published_at":"2023-10-19T10:00:00Z"}`))
	})

	c := NewClient("", WithAPIBaseURL(srv.URL))
	defer c.Close()

	rel, err := c.LatestRelease(context.Background(), "bitcoin", "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "v25.1", rel.TagName)
	assert.Equal(t, "Bitcoin Core 25.1", rel.Name)
	assert.Equal(t, time.Date(2023, 10, 19, 10, 0, 0, 0, time.UTC), rel.PublishedAt)
}

func TestLatestReleaseNotFound(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	c := NewClient("", WithAPIBaseURL(srv.URL))
	defer c.Close()

	_, err := c.LatestRelease(context.Background(), "bitcoin", "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTagsSendsToken(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/bitcoin/bitcoin/tags", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"v25.1"},{"name":"v25.0"},{"name":"v24.2"}]`))
	})

	c := NewClient("sekrit", WithAPIBaseURL(srv.URL))
	defer c.Close()

	tags, err := c.Tags(context.Background(), "bitcoin", "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, []string{"v25.1", "v25.0", "v24.2"}, tags)
}

func TestDownloadTarball(t *testing.T) {
	payload := []byte("pretend this is a tar.gz")
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bitcoin/bitcoin/archive/v25.1.tar.gz", r.URL.Path)
		w.Write(payload)
	})

	c := NewClient("", WithDownloadBaseURL(srv.URL))
	defer c.Close()

	dest := filepath.Join(t.TempDir(), "bitcoin-v25.1.tar.gz")
	require.NoError(t, c.DownloadTarball(context.Background(), "bitcoin", "bitcoin", "v25.1", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadTarballNotFoundLeavesNoFile(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	c := NewClient("", WithDownloadBaseURL(srv.URL))
	defer c.Close()

	dest := filepath.Join(t.TempDir(), "missing.tar.gz")
	err := c.DownloadTarball(context.Background(), "bitcoin", "bitcoin", "v99.9", dest)
	require.ErrorIs(t, err, ErrNotFound)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

// localRepo builds an on-disk git repository with one commit and one tag so
// ResolveRef can be exercised without the network. It returns the repo path
// and the commit hash the tag points at.
func localRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi\n"), 0o644))
	_, err = wt.Add("README")
	require.NoError(t, err)

	sig := &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()}
	hash, err := wt.Commit("initial", &git.CommitOptions{Author: sig})
	require.NoError(t, err)

	_, err = repo.CreateTag("v1.0.0", hash, nil)
	require.NoError(t, err)
	return dir, hash.String()
}

func TestResolveRef(t *testing.T) {
	repoURL, want := localRepo(t)
	c := NewClient("")
	defer c.Close()

	commit, err := c.ResolveRef(context.Background(), repoURL, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, want, commit)

	commit, err = c.ResolveRef(context.Background(), repoURL, "v9.9.9")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, commit)
}

func TestLoadTokenPrecedence(t *testing.T) {
	t.Setenv(EnvToken, "from-env")

	got, err := LoadToken("from-flag")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", got)

	got, err = LoadToken("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}
