package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shran-labs/shran/internal/archive"
	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/ctxlog"
	"github.com/shran-labs/shran/internal/fsutil"
	"github.com/shran-labs/shran/internal/github"
	"github.com/shran-labs/shran/internal/manifest"
)

// The upstream source tree the tool builds. Library overrides are local
// artifacts; only the node's own source comes from GitHub.
const (
	sourceOwner   = "bitcoin"
	sourceRepo    = "bitcoin"
	sourceRepoURL = "https://github.com/bitcoin/bitcoin"
)

// ensureSource makes the source tree for spec.SourceRef available locally and
// returns its path. Previously fetched refs are reused via the manifest;
// otherwise the ref is resolved against the remote, its tarball downloaded
// into the cache dir and unpacked there.
func (a *App) ensureSource(ctx context.Context, spec *config.Spec) (string, error) {
	logger := ctxlog.FromContext(ctx)

	store, err := manifest.Open()
	if err != nil {
		return "", err
	}
	if entry := store.Lookup(spec.SourceRef); entry != nil {
		if _, err := os.Stat(entry.InstallationLocation); err == nil {
			logger.Info("Reusing previously fetched source tree.",
				"ref", spec.SourceRef, "location", entry.InstallationLocation)
			return entry.InstallationLocation, nil
		}
		logger.Warn("Manifest entry points at a missing tree, refetching.",
			"ref", spec.SourceRef, "location", entry.InstallationLocation)
	}

	// A token given on the command line is remembered for later runs, like
	// logging in once.
	if a.cfg.Token != "" {
		if err := github.SaveToken(a.cfg.Token); err != nil {
			logger.Warn("Could not persist GitHub token.", "error", err)
		}
	}
	token, err := github.LoadToken(a.cfg.Token)
	if err != nil {
		return "", err
	}
	client := github.NewClient(token)
	defer client.Close()

	commit, err := client.ResolveRef(ctx, sourceRepoURL, spec.SourceRef)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			suggestKnownTags(ctx, client, spec.SourceRef)
		}
		return "", err
	}

	cacheDir, err := fsutil.CacheDir()
	if err != nil {
		return "", err
	}
	tarPath := filepath.Join(cacheDir, fmt.Sprintf("%s-%s.tar.gz", sourceRepo, refSlug(spec.SourceRef)))
	if err := client.DownloadTarball(ctx, sourceOwner, sourceRepo, spec.SourceRef, tarPath); err != nil {
		return "", err
	}
	defer os.Remove(tarPath)

	root, err := archive.ExtractTarGz(ctx, tarPath, cacheDir)
	if err != nil {
		return "", err
	}
	location := filepath.Join(cacheDir, root)

	entry := &manifest.Entry{
		Version:              spec.SourceRef,
		Commit:               commit,
		PublishedDate:        publishedDate(ctx, client, spec.SourceRef),
		InstallationLocation: location,
	}
	if err := store.Record(entry); err != nil {
		return "", err
	}

	logger.Info("Source tree fetched.", "ref", spec.SourceRef, "location", location)
	return location, nil
}

// suggestKnownTags logs the most recent upstream tags so a typo in the ref is
// easy to correct. Best effort; a failed lookup changes nothing.
func suggestKnownTags(ctx context.Context, client *github.Client, ref string) {
	logger := ctxlog.FromContext(ctx)
	tags, err := client.Tags(ctx, sourceOwner, sourceRepo)
	if err != nil || len(tags) == 0 {
		return
	}
	const maxSuggestions = 5
	if len(tags) > maxSuggestions {
		tags = tags[:maxSuggestions]
	}
	logger.Info("Ref not found upstream, recent tags:", "ref", ref, "tags", tags)
}

// publishedDate asks GitHub for the release date of ref. When ref is not the
// latest release (or the lookup fails) the fetch time stands in.
func publishedDate(ctx context.Context, client *github.Client, ref string) time.Time {
	rel, err := client.LatestRelease(ctx, sourceOwner, sourceRepo)
	if err == nil && rel.TagName == ref {
		return rel.PublishedAt
	}
	return time.Now().UTC()
}

func refSlug(ref string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == ':' {
			return '_'
		}
		return r
	}, ref)
}
