// Package github talks to GitHub: it resolves source refs, queries releases
// and tags, and downloads source archives for the fetch step that precedes a
// build run.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/memory"
	"resty.dev/v3"

	"github.com/shran-labs/shran/internal/ctxlog"
)

// ErrNotFound reports that the requested repository, release or ref does not
// exist (or is not visible with the current credentials).
var ErrNotFound = errors.New("github: not found")

const (
	defaultAPIBaseURL      = "https://api.github.com"
	defaultDownloadBaseURL = "https://github.com"
)

// Release is the subset of GitHub's release object the fetcher needs.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
}

type tagEntry struct {
	Name string `json:"name"`
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIBaseURL overrides the REST API endpoint. Used by tests.
func WithAPIBaseURL(url string) Option {
	return func(c *Client) { c.apiBaseURL = url }
}

// WithDownloadBaseURL overrides the archive download host. Used by tests.
func WithDownloadBaseURL(url string) Option {
	return func(c *Client) { c.downloadBaseURL = url }
}

// Client is a GitHub API client scoped to the operations the fetch step
// performs. It is safe for concurrent use.
type Client struct {
	http            *resty.Client
	apiBaseURL      string
	downloadBaseURL string
}

// NewClient builds a client. An empty token means unauthenticated requests,
// which GitHub rate-limits aggressively but still serves for public repos.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		apiBaseURL:      defaultAPIBaseURL,
		downloadBaseURL: defaultDownloadBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(c.apiBaseURL).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("User-Agent", "shran")
	if token != "" {
		c.http.SetAuthToken(token)
	}
	return c
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	return c.http.Close()
}

// LatestRelease returns the most recent published release of owner/repo.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	var release Release
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&release).
		Get(fmt.Sprintf("/repos/%s/%s/releases/latest", owner, repo))
	if err != nil {
		return nil, fmt.Errorf("failed to query latest release of %s/%s: %w", owner, repo, err)
	}
	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: no releases in %s/%s", ErrNotFound, owner, repo)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("github API returned %s for latest release of %s/%s", resp.Status(), owner, repo)
	}
	return &release, nil
}

// Tags returns the first page of tag names of owner/repo, newest first.
func (c *Client) Tags(ctx context.Context, owner, repo string) ([]string, error) {
	var entries []tagEntry
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("per_page", "100").
		SetResult(&entries).
		Get(fmt.Sprintf("/repos/%s/%s/tags", owner, repo))
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of %s/%s: %w", owner, repo, err)
	}
	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: repository %s/%s", ErrNotFound, owner, repo)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("github API returned %s for tags of %s/%s", resp.Status(), owner, repo)
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}

// ResolveRef checks that ref exists in the remote at repoURL, consulting the
// advertised refs the way `git ls-remote` does. It accepts tag names, branch
// names and full commit hashes, and returns the commit hash the ref points
// at.
func (c *Client) ResolveRef(ctx context.Context, repoURL, ref string) (string, error) {
	rem := git.NewRemote(memory.NewStorage(), &gitcfg.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})
	refs, err := rem.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list refs of %s: %w", repoURL, err)
	}
	for _, r := range refs {
		if r.Name().Short() == ref || r.Hash().String() == ref {
			return r.Hash().String(), nil
		}
	}
	return "", fmt.Errorf("%w: ref %q in %s", ErrNotFound, ref, repoURL)
}

// DownloadTarball streams the source archive for ref into destPath. The
// archive is GitHub's auto-generated tar.gz of the tree at that ref.
func (c *Client) DownloadTarball(ctx context.Context, owner, repo, ref, destPath string) error {
	logger := ctxlog.FromContext(ctx)
	url := fmt.Sprintf("%s/%s/%s/archive/%s.tar.gz", c.downloadBaseURL, owner, repo, ref)
	logger.Debug("Downloading source archive.", "url", url, "dest", destPath)

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode() == 404 {
		return fmt.Errorf("%w: archive for %s/%s@%s", ErrNotFound, owner, repo, ref)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("archive download returned %s for %s", resp.Status(), url)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file %s: %w", destPath, err)
	}
	written, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to write archive %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finish archive %s: %w", destPath, err)
	}

	logger.Info("Source archive downloaded.", "dest", destPath, "bytes", written)
	return nil
}
