package index

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// ExtractTitle returns the text content of the first level-1 heading in an
// HTML fragment. The second return is false when the fragment has no h1.
func ExtractTitle(fragment []byte) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		// html.Parse is lenient; a hard failure means there is nothing usable.
		return "", false
	}

	var h1 *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if h1 != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "h1" {
			h1 = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)

	if h1 == nil {
		return "", false
	}

	title := strings.TrimSpace(textContent(h1))
	if title == "" {
		return "", false
	}
	return title, true
}

// textContent collects the concatenated text of a node's subtree.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
