package gitsync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"blogpress/internal/config"
)

// initContentRepo initializes a repository that serves as the "remote" for
// sync tests. Local paths are valid go-git clone URLs.
func initContentRepo(t *testing.T) (*git.Worktree, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	w, err := repo.Worktree()
	require.NoError(t, err)
	return w, dir
}

func commitFile(t *testing.T, w *git.Worktree, repoDir, name, body string, when time.Time) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(repoDir, name)), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, name), []byte(body), 0o600))
	_, err := w.Add(name)
	require.NoError(t, err)

	sig := &object.Signature{Name: "author", Email: "author@example.com", When: when}
	_, err = w.Commit("add "+name, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
}

func TestSync_InitialCloneReportsUpdate(t *testing.T) {
	w, remote := initContentRepo(t)
	commitFile(t, w, remote, "a.md", "# Post A", time.Now())

	mirror := filepath.Join(t.TempDir(), "mirror")
	s := NewSyncer(config.SourceConfig{URL: remote, Branch: "master"}, mirror)

	updated, err := s.Sync()
	require.NoError(t, err)
	require.True(t, updated)
	require.FileExists(t, filepath.Join(mirror, "a.md"))
}

func TestSync_NoNewContent(t *testing.T) {
	w, remote := initContentRepo(t)
	commitFile(t, w, remote, "a.md", "# Post A", time.Now())

	mirror := filepath.Join(t.TempDir(), "mirror")
	s := NewSyncer(config.SourceConfig{URL: remote, Branch: "master"}, mirror)

	_, err := s.Sync()
	require.NoError(t, err)

	updated, err := s.Sync()
	require.NoError(t, err)
	require.False(t, updated)
}

func TestSync_DetectsNewCommits(t *testing.T) {
	w, remote := initContentRepo(t)
	commitFile(t, w, remote, "a.md", "# Post A", time.Now())

	mirror := filepath.Join(t.TempDir(), "mirror")
	s := NewSyncer(config.SourceConfig{URL: remote, Branch: "master"}, mirror)

	_, err := s.Sync()
	require.NoError(t, err)

	commitFile(t, w, remote, "b.md", "# Post B", time.Now())

	updated, err := s.Sync()
	require.NoError(t, err)
	require.True(t, updated)
	require.FileExists(t, filepath.Join(mirror, "b.md"))
}

func TestSync_RemoteUnreachable(t *testing.T) {
	mirror := filepath.Join(t.TempDir(), "mirror")
	s := NewSyncer(config.SourceConfig{URL: filepath.Join(t.TempDir(), "absent.git")}, mirror)

	updated, err := s.Sync()
	require.ErrorIs(t, err, ErrRemoteUnavailable)
	require.False(t, updated)
}

func TestSync_MirrorOnlyMode(t *testing.T) {
	mirror := t.TempDir()
	s := NewSyncer(config.SourceConfig{Mirror: mirror}, mirror)

	updated, err := s.Sync()
	require.NoError(t, err)
	require.True(t, updated)
}

func TestSyncer_ContentDir(t *testing.T) {
	s := NewSyncer(config.SourceConfig{URL: "ignored", ContentDir: "posts"}, "/var/mirror")
	require.Equal(t, filepath.Join("/var/mirror", "posts"), s.ContentDir())
}

func TestFirstCommitTime_EarliestOfSeveral(t *testing.T) {
	w, remote := initContentRepo(t)

	first := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	second := time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)
	commitFile(t, w, remote, "a.md", "# v1", first)
	commitFile(t, w, remote, "a.md", "# v2", second)

	got, err := FirstCommitTime(remote, "a.md")
	require.NoError(t, err)
	require.True(t, got.Equal(first), "expected %v, got %v", first, got)
}

func TestFirstCommitTime_UntrackedFile(t *testing.T) {
	w, remote := initContentRepo(t)
	commitFile(t, w, remote, "a.md", "# Post A", time.Now())

	require.NoError(t, os.WriteFile(filepath.Join(remote, "new.md"), []byte("# New"), 0o600))

	_, err := FirstCommitTime(remote, "new.md")
	require.ErrorIs(t, err, ErrNoHistory)
}

func TestFirstCommitTime_NotARepository(t *testing.T) {
	_, err := FirstCommitTime(t.TempDir(), "a.md")
	require.ErrorIs(t, err, ErrNoHistory)
}
