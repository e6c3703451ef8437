package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDiscover_FindsMarkdownOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# Post A")
	writeFile(t, dir, "b.markdown", "# Post B")
	writeFile(t, dir, "notes.txt", "not a post")
	writeFile(t, dir, "logo.png", "binary")

	docs, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	names := []string{docs[0].Name, docs[1].Name}
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestDiscover_SkipsHiddenFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "post.md", "# Post")
	writeFile(t, dir, ".draft.md", "# Draft")
	writeFile(t, dir, ".git/objects/junk.md", "# Not content")

	docs, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "post", docs[0].Name)
}

func TestDiscover_Subdirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2024/essay.md", "# Essay")

	docs, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, filepath.Join("2024", "essay.md"), docs[0].RelativePath)
}

func TestDiscover_MissingDirectory(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	require.ErrorIs(t, err, ErrContentDirMissing)
}

func TestDocument_ArtifactName(t *testing.T) {
	doc := Document{RelativePath: "lesscode.md"}
	require.Equal(t, "lesscode.html", doc.ArtifactName())

	doc = Document{RelativePath: "b.markdown"}
	require.Equal(t, "b.html", doc.ArtifactName())
}

func TestDocument_ArtifactNameFlattensDirectories(t *testing.T) {
	doc := Document{RelativePath: filepath.Join("posts", "lesscode.md")}
	require.Equal(t, "posts-lesscode.html", doc.ArtifactName())

	// Same basename in different directories must not collide.
	a := Document{RelativePath: "a.md"}
	b := Document{RelativePath: filepath.Join("sub", "a.md")}
	require.NotEqual(t, a.ArtifactName(), b.ArtifactName())
}

func TestDocument_LoadContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "# Hello")

	doc := Document{Path: path}
	require.NoError(t, doc.LoadContent())
	require.Equal(t, []byte("# Hello"), doc.Content)

	// Second load is a no-op.
	doc.Content = []byte("cached")
	require.NoError(t, doc.LoadContent())
	require.Equal(t, []byte("cached"), doc.Content)

	missing := Document{Path: filepath.Join(dir, "missing.md")}
	require.ErrorIs(t, missing.LoadContent(), ErrFileReadFailed)
}
