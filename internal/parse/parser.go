// Package parse turns an uploaded resume document into plain text.
package parse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	// ErrUnsupportedType is returned for document types without a local parser
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrEmptyDocument is returned when a document has no text
	ErrEmptyDocument = errors.New("document contains no text")
)

// Parser extracts text from a document
type Parser interface {
	Parse(ctx context.Context, data []byte, contentType string) (string, error)
}

// DocumentParser handles plain text, markdown and HTML
type DocumentParser struct{}

// New returns the default parser
func New() *DocumentParser {
	return &DocumentParser{}
}

// MediaType normalizes a content type, sniffing data when it is empty
func MediaType(data []byte, contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		contentType = http.DetectContentType(data)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Parse returns the document text
func (p *DocumentParser) Parse(ctx context.Context, data []byte, contentType string) (string, error) {
	mt := MediaType(data, contentType)

	var text string
	switch mt {
	case "text/plain", "text/markdown", "text/x-markdown":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s is not valid UTF-8", mt)
		}
		text = normalize(string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	case "text/html", "application/xhtml+xml":
		doc, err := html.Parse(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("parse html: %w", err)
		}
		text = normalize(visibleText(doc))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt)
	}

	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"article": true, "header": true, "footer": true, "ul": true, "ol": true, "table": true,
}

// visibleText extracts text nodes from HTML, skipping scripts and styles.
// Block elements end a line.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
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

// normalize trims lines, drops blank runs and unifies line endings
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(strings.TrimSpace(line), " \t")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
