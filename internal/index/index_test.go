package index

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExtractTitle_FirstH1(t *testing.T) {
	title, ok := ExtractTitle([]byte("<h1>Less Code</h1>\n<p>body</p>\n<h1>Second</h1>"))
	require.True(t, ok)
	require.Equal(t, "Less Code", title)
}

func TestExtractTitle_NestedMarkup(t *testing.T) {
	title, ok := ExtractTitle([]byte("<h1>On <em>Iterators</em> and Streams</h1>"))
	require.True(t, ok)
	require.Equal(t, "On Iterators and Streams", title)
}

func TestExtractTitle_NoHeading(t *testing.T) {
	_, ok := ExtractTitle([]byte("<p>just a paragraph</p>"))
	require.False(t, ok)

	_, ok = ExtractTitle([]byte("<h2>subheading only</h2>"))
	require.False(t, ok)

	_, ok = ExtractTitle([]byte("<h1>   </h1>"))
	require.False(t, ok)
}

func entry(link, title string, mod time.Time) Entry {
	return Entry{Link: link, Title: title, Created: mod, ModTime: mod}
}

func TestSort_NewestFirst(t *testing.T) {
	b := NewBuilder("Weblog", "2006-01-02")
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	entries := []Entry{
		entry("a.html", "Post A", older),
		entry("b.html", "Post B", newer),
	}
	b.Sort(entries)

	require.Equal(t, "b.html", entries[0].Link)
	require.Equal(t, "a.html", entries[1].Link)
}

func TestSort_TieBreakByTitle(t *testing.T) {
	b := NewBuilder("Weblog", "2006-01-02")
	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	entries := []Entry{
		entry("z.html", "zebra", when),
		entry("a.html", "Apple", when),
		entry("m.html", "mango", when),
	}
	b.Sort(entries)

	require.Equal(t, []string{"Apple", "mango", "zebra"}, []string{entries[0].Title, entries[1].Title, entries[2].Title})
}

func TestRender_OneRowPerEntry(t *testing.T) {
	b := NewBuilder("My Weblog", "2006-01-02")
	entries := []Entry{
		entry("a.html", "Post A", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		entry("b.html", "Post B", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)),
	}

	page, err := b.Render(entries)
	require.NoError(t, err)

	out := string(page)
	require.Contains(t, out, "<h1>My Weblog</h1>")
	require.Equal(t, 2, strings.Count(out, "<tr>"))
	require.Contains(t, out, `<a href="b.html">Post B</a>`)
	require.Contains(t, out, "2024-01-02")

	// Newest first in the rendered output.
	require.Less(t, strings.Index(out, "b.html"), strings.Index(out, "a.html"))
}

func TestRender_EscapesTitles(t *testing.T) {
	b := NewBuilder("Weblog", "2006-01-02")
	entries := []Entry{entry("x.html", `Java <Streams> & "Iterators"`, time.Now())}

	page, err := b.Render(entries)
	require.NoError(t, err)
	require.Contains(t, string(page), "&lt;Streams&gt;")
	require.NotContains(t, string(page), "<Streams>")
}

func TestRender_Deterministic(t *testing.T) {
	b := NewBuilder("Weblog", "2006-01-02")
	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	make := func() []Entry {
		return []Entry{
			entry("b.html", "B", when),
			entry("a.html", "A", when),
		}
	}

	first, err := b.Render(make())
	require.NoError(t, err)
	second, err := b.Render(make())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRender_Empty(t *testing.T) {
	b := NewBuilder("Weblog", "2006-01-02")
	page, err := b.Render(nil)
	require.NoError(t, err)
	require.Contains(t, string(page), "<table>")
	require.NotContains(t, string(page), "<tr>")
}
