// Package feed reads the supported inventory feed dialects into canonical
// records and writes them back out: XML parsing, per-schema record
// extraction, CSV ingestion, multi-feed merge/dedup, and the canonical
// data/cars/car writer.
package feed

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Parse reads an XML document, tolerating a leading UTF-8 BOM.
func Parse(r io.Reader) (*xmlquery.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

// ParseBytes parses an in-memory XML document.
func ParseBytes(data []byte) (*xmlquery.Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("feed: parse: %w", err)
	}
	return doc, nil
}

// Load parses an XML feed file from disk.
func Load(path string) (*xmlquery.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("feed: read %s: %w", path, err)
	}
	return ParseBytes(data)
}

// childElement returns the first direct child element with the given tag.
func childElement(n *xmlquery.Node, tag string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// childText returns the trimmed inner text of the first direct child with
// the given tag, or "".
func childText(n *xmlquery.Node, tag string) string {
	if c := childElement(n, tag); c != nil {
		return strings.TrimSpace(c.InnerText())
	}
	return ""
}
