package gitsync

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
)

// FirstCommitTime returns the committer timestamp of the earliest commit that
// touched relPath within the repository at repoPath. relPath is relative to
// the repository root. Returns ErrNoHistory when the path has no recorded
// commits or the repository has none at all.
func FirstCommitTime(repoPath, relPath string) (time.Time, error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrNoHistory, repoPath, err)
	}

	// go-git matches log paths with forward slashes regardless of platform.
	logPath := filepath.ToSlash(relPath)
	iter, err := repository.Log(&git.LogOptions{
		FileName: &logPath,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrNoHistory, relPath, err)
	}
	defer iter.Close()

	// The iterator yields newest first; walk to the end for the first commit.
	var earliest time.Time
	found := false
	for {
		commit, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", ErrNoHistory, relPath, err)
		}
		earliest = commit.Committer.When
		found = true
	}

	if !found {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoHistory, relPath)
	}

	return earliest, nil
}
