package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Document represents one source markdown post.
type Document struct {
	Path         string    // Absolute path to the file
	RelativePath string    // Path relative to the content directory
	Name         string    // File name without extension
	ModTime      time.Time // Last modification time, drives index ordering
	Content      []byte    // File content (loaded on demand)
}

// LoadContent loads the content of a document from disk.
func (d *Document) LoadContent() error {
	if d.Content != nil {
		return nil // Already loaded
	}

	content, err := os.ReadFile(d.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileReadFailed, d.Path, err)
	}

	d.Content = content
	return nil
}

// ArtifactName returns the output filename for this document. The full
// relative path is flattened into the name, so documents sharing a basename
// in different directories map to distinct artifacts.
func (d *Document) ArtifactName() string {
	rel := filepath.ToSlash(d.RelativePath)
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(base, "/", "-") + ".html"
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}
