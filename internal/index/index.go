// Package index builds the listing page over all published documents.
package index

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Entry is one row of the index page.
type Entry struct {
	Link    string    // Artifact filename the row links to
	Title   string    // Extracted post title (or filename fallback)
	Created time.Time // Earliest version-history timestamp
	ModTime time.Time // Source modification time, drives ordering
}

// Builder renders the index page from the batch's entries.
type Builder struct {
	siteTitle  string
	dateFormat string
	tmpl       *template.Template
	coll       *collate.Collator
}

const pageTemplate = `<h1>{{.Title}}</h1>
<table>
{{range .Entries}}<tr><td>{{.Date}}</td><td><a href="{{.Link}}">{{.Title}}</a></td></tr>
{{end}}</table>
`

type pageData struct {
	Title   string
	Entries []rowData
}

type rowData struct {
	Date  string
	Link  string
	Title string
}

// NewBuilder creates an index builder. dateFormat is a Go reference layout.
func NewBuilder(siteTitle, dateFormat string) *Builder {
	return &Builder{
		siteTitle:  siteTitle,
		dateFormat: dateFormat,
		tmpl:       template.Must(template.New("index").Parse(pageTemplate)),
		coll:       collate.New(language.English, collate.IgnoreCase),
	}
}

// Sort orders entries newest first by modification time. Entries with equal
// modification times are ordered by collated title, then link, so the index
// is stable across runs regardless of filesystem enumeration order.
func (b *Builder) Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		if c := b.coll.CompareString(entries[i].Title, entries[j].Title); c != 0 {
			return c < 0
		}
		return entries[i].Link < entries[j].Link
	})
}

// Render produces the full index page for the given entries. Entries are
// sorted in place first, so the output is a pure function of the entry set.
func (b *Builder) Render(entries []Entry) ([]byte, error) {
	b.Sort(entries)

	data := pageData{Title: b.siteTitle}
	for _, e := range entries {
		data.Entries = append(data.Entries, rowData{
			Date:  e.Created.Format(b.dateFormat),
			Link:  e.Link,
			Title: e.Title,
		})
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}
	return buf.Bytes(), nil
}
