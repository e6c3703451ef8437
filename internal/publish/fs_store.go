package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FSStore is a filesystem-based implementation of Store. Writes go to a
// temporary file in the target directory followed by a rename, so a crash
// mid-write never leaves a truncated artifact at its serving path.
type FSStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFSStore creates a store rooted at baseDir, creating it if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", baseDir, err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root of the serving directory.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

// Put writes an artifact atomically.
func (fs *FSStore) Put(_ context.Context, name string, data []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	target, err := fs.artifactPath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(fs.baseDir, ".publish-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("place artifact %s: %w", name, err)
	}

	return nil
}

// Get retrieves an artifact by name.
func (fs *FSStore) Get(_ context.Context, name string) ([]byte, error) {
	path, err := fs.artifactPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Name: name}
		}
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	return data, nil
}

// Exists checks whether an artifact is present.
func (fs *FSStore) Exists(_ context.Context, name string) (bool, error) {
	path, err := fs.artifactPath(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat artifact %s: %w", name, err)
}

// List returns stored artifact names in lexical order.
func (fs *FSStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// artifactPath validates the artifact name and resolves its serving path.
// Names must be plain filenames; path traversal is rejected.
func (fs *FSStore) artifactPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid artifact name: %q", name)
	}
	return filepath.Join(fs.baseDir, name), nil
}
