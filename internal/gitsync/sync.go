// Package gitsync keeps a local mirror of the content repository in step with
// its remote and answers whether new content arrived.
package gitsync

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"blogpress/internal/config"
	"blogpress/internal/logfields"
)

var (
	// ErrRemoteUnavailable marks sync failures that should skip the publish
	// cycle rather than abort the process. The scheduler retries on its own
	// cadence.
	ErrRemoteUnavailable = errors.New("content remote unavailable")

	// ErrNoHistory is returned when a path has no recorded commits.
	ErrNoHistory = errors.New("no version history for path")
)

// Syncer mirrors the content repository into a local directory.
type Syncer struct {
	src       config.SourceConfig
	mirrorDir string
}

// NewSyncer creates a syncer for the given source. mirrorDir is where the
// local clone lives.
func NewSyncer(src config.SourceConfig, mirrorDir string) *Syncer {
	return &Syncer{src: src, mirrorDir: mirrorDir}
}

// MirrorDir returns the local mirror path.
func (s *Syncer) MirrorDir() string {
	return s.mirrorDir
}

// ContentDir returns the directory within the mirror that holds the posts.
func (s *Syncer) ContentDir() string {
	return filepath.Join(s.mirrorDir, s.src.ContentDir)
}

// Sync brings the mirror up to date with the remote. It returns true when new
// content arrived (including the initial clone). Remote failures are reported
// as ErrRemoteUnavailable and leave the mirror untouched.
func (s *Syncer) Sync() (bool, error) {
	if s.src.URL == "" {
		// Mirror-only mode: the content directory is maintained by hand (or
		// by an external sync). Treat every cycle as potentially changed.
		slog.Debug("No remote configured, skipping git sync", logfields.Path(s.mirrorDir))
		return true, nil
	}

	if _, err := os.Stat(filepath.Join(s.mirrorDir, ".git")); err == nil {
		return s.pull()
	}

	return s.clone()
}

// clone performs the initial mirror clone.
func (s *Syncer) clone() (bool, error) {
	slog.Debug("Cloning content repository", logfields.URL(s.src.URL), logfields.Path(s.mirrorDir))

	if err := os.RemoveAll(s.mirrorDir); err != nil {
		return false, fmt.Errorf("failed to clear mirror directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{
		URL: s.src.URL,
	}
	if s.src.Branch != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + s.src.Branch)
		cloneOptions.SingleBranch = true
	}

	if s.src.Auth != nil {
		auth, err := authMethod(s.src.Auth)
		if err != nil {
			return false, fmt.Errorf("failed to setup authentication: %w", err)
		}
		cloneOptions.Auth = auth
	}

	repository, err := git.PlainClone(s.mirrorDir, false, cloneOptions)
	if err != nil {
		return false, fmt.Errorf("%w: clone %s: %w", ErrRemoteUnavailable, s.src.URL, err)
	}

	if ref, err := repository.Head(); err == nil {
		slog.Info("Content repository cloned",
			logfields.URL(s.src.URL),
			slog.String("commit", ref.Hash().String()[:8]),
			logfields.Path(s.mirrorDir))
	} else {
		slog.Info("Content repository cloned", logfields.URL(s.src.URL), logfields.Path(s.mirrorDir))
	}

	return true, nil
}

// pull updates an existing mirror. Returns true only when new commits landed.
func (s *Syncer) pull() (bool, error) {
	repository, err := git.PlainOpen(s.mirrorDir)
	if err != nil {
		return false, fmt.Errorf("failed to open mirror: %w", err)
	}

	worktree, err := repository.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullOptions := &git.PullOptions{
		RemoteName: "origin",
	}
	if s.src.Auth != nil {
		auth, err := authMethod(s.src.Auth)
		if err != nil {
			return false, fmt.Errorf("failed to setup authentication: %w", err)
		}
		pullOptions.Auth = auth
	}

	err = worktree.Pull(pullOptions)
	if err == git.NoErrAlreadyUpToDate {
		slog.Debug("Content repository already up to date", logfields.Path(s.mirrorDir))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: pull %s: %w", ErrRemoteUnavailable, s.src.URL, err)
	}

	ref, _ := repository.Head()
	if ref != nil {
		slog.Info("Content repository updated", slog.String("commit", ref.Hash().String()[:8]))
	} else {
		slog.Info("Content repository updated")
	}

	return true, nil
}
