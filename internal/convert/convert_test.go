package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"blogpress/internal/content"
)

func docWithContent(body string) *content.Document {
	return &content.Document{RelativePath: "post.md", Content: []byte(body)}
}

func TestConvert_RendersHeadingAndParagraph(t *testing.T) {
	c := New()
	out, err := c.Convert(docWithContent("# Title\n\nBody text.\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1>Title</h1>")
	require.Contains(t, string(out), "<p>Body text.</p>")
}

func TestConvert_Deterministic(t *testing.T) {
	c := New()
	src := "# Post\n\nSome *emphasis* and a [link](a.html).\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"

	first, err := c.Convert(docWithContent(src))
	require.NoError(t, err)
	second, err := c.Convert(docWithContent(src))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestConvert_GFMTable(t *testing.T) {
	c := New()
	out, err := c.Convert(docWithContent("| h |\n|---|\n| v |\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<table>")
}

func TestConvert_RawHTMLPassesThrough(t *testing.T) {
	c := New()
	out, err := c.Convert(docWithContent("before\n\n<aside>note</aside>\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<aside>note</aside>")
}

func TestConvert_LoadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# From Disk"), 0o600))

	c := New()
	out, err := c.Convert(&content.Document{Path: path, RelativePath: "a.md"})
	require.NoError(t, err)
	require.Contains(t, string(out), "From Disk")
}

func TestConvert_UnreadableDocument(t *testing.T) {
	c := New()
	_, err := c.Convert(&content.Document{Path: filepath.Join(t.TempDir(), "gone.md"), RelativePath: "gone.md"})
	require.ErrorIs(t, err, ErrConversionFailed)
}
