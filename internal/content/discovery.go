// Package content discovers source markdown documents for a publish batch.
package content

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"blogpress/internal/logfields"
)

var (
	ErrContentDirMissing = errors.New("content directory not found")
	ErrContentWalkFailed = errors.New("content directory walk failed")
	ErrFileReadFailed    = errors.New("failed to read document")
)

// Discover walks contentDir and returns one Document per markdown file found.
// Hidden files and non-markdown files are skipped. The returned order is the
// walk order; callers sort before use.
func Discover(contentDir string) ([]Document, error) {
	info, err := os.Stat(contentDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrContentDirMissing, contentDir)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrContentWalkFailed, contentDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrContentDirMissing, contentDir)
	}

	var docs []Document

	err = filepath.Walk(contentDir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if fi.IsDir() {
			// Don't descend into hidden directories (.git in particular).
			if path != contentDir && strings.HasPrefix(fi.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(fi.Name(), ".") || !isMarkdownFile(path) {
			return nil
		}

		relPath, err := filepath.Rel(contentDir, path)
		if err != nil {
			return fmt.Errorf("invalid relative path for %s: %w", path, err)
		}

		docs = append(docs, Document{
			Path:         path,
			RelativePath: relPath,
			Name:         strings.TrimSuffix(fi.Name(), filepath.Ext(fi.Name())),
			ModTime:      fi.ModTime(),
		})

		slog.Debug("Discovered document", logfields.Document(relPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrContentWalkFailed, contentDir, err)
	}

	slog.Info("Content discovery completed", slog.Int("documents", len(docs)), logfields.Path(contentDir))
	return docs, nil
}
