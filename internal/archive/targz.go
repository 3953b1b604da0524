// Package archive unpacks the tar.gz source archives GitHub serves for a
// tagged ref.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shran-labs/shran/internal/ctxlog"
)

// ExtractTarGz unpacks the archive at srcPath under destDir. GitHub archives
// wrap everything in a single "<repo>-<ref>/" directory; the name of that
// root is returned so callers can locate the unpacked tree. Entries escaping
// destDir are rejected.
func ExtractTarGz(ctx context.Context, srcPath, destDir string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive %s: %w", srcPath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("archive %s is not gzip: %w", srcPath, err)
	}
	defer gz.Close()

	var root string
	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read archive %s: %w", srcPath, err)
		}

		clean := filepath.Clean(hdr.Name)
		if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
			return "", fmt.Errorf("archive %s contains unsafe path %q", srcPath, hdr.Name)
		}
		if root == "" {
			root = topLevel(clean)
		}

		target := filepath.Join(destDir, clean)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)&0o777); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)&0o777); err != nil {
				return "", err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return "", fmt.Errorf("archive %s contains absolute symlink %q", srcPath, hdr.Name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return "", fmt.Errorf("failed to create symlink %s: %w", target, err)
			}
		default:
			logger.Debug("Skipping unsupported archive entry.", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}

	if root == "" {
		return "", fmt.Errorf("archive %s is empty", srcPath)
	}
	logger.Debug("Archive extracted.", "src", srcPath, "root", root)
	return root, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", target, err)
	}
	return out.Close()
}

func topLevel(clean string) string {
	if i := strings.IndexRune(clean, filepath.Separator); i >= 0 {
		return clean[:i]
	}
	return clean
}
