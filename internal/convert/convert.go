// Package convert renders markdown documents to HTML fragments.
package convert

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"blogpress/internal/content"
)

var ErrConversionFailed = errors.New("markdown conversion failed")

// Converter renders markdown to HTML fragments. The zero value is not usable;
// construct with New.
type Converter struct {
	md goldmark.Markdown
}

// New creates a converter. GFM extensions are enabled so tables and
// strikethrough in posts render; raw HTML passes through unchanged since the
// content is the author's own.
func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Convert renders one document's markdown into an HTML fragment. The result
// is deterministic for identical input. The document's content is loaded from
// disk if not already present.
func (c *Converter) Convert(doc *content.Document) ([]byte, error) {
	if err := doc.LoadContent(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	var buf bytes.Buffer
	if err := c.md.Convert(doc.Content, &buf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConversionFailed, doc.RelativePath, err)
	}

	return buf.Bytes(), nil
}
