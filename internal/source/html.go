package source

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
)

// HTMLLoader reads the visible text of an HTML document, one block per line
type HTMLLoader struct {
	maxBytes int64
}

// NewHTMLLoader creates an HTML loader
func NewHTMLLoader(maxBytes int64) *HTMLLoader {
	return &HTMLLoader{maxBytes: maxBytes}
}

// Load parses the file and extracts visible text
func (l *HTMLLoader) Load(ctx context.Context, path string) (Result, error) {
	data, err := readCapped(path, l.maxBytes)
	if err != nil {
		return Result{Method: "html"}, err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Result{Method: "html"}, err
	}
	return Result{Text: visibleText(doc), Method: "html", Pages: 1}, nil
}

// blockElements end a line so "Label: value" rows survive as separate lines
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "tr": true, "li": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "dt": true, "dd": true,
}

// visibleText walks the tree, skipping scripts and styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}

	walk(n)
	return buf.String()
}
