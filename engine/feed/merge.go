package feed

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/antchfx/xmlquery"
)

// Merger combines several feeds of one dialect into a single document.
// Records are keyed by VIN; the first occurrence wins and later duplicates
// are dropped, so source order expresses priority. Records without any VIN
// are kept as-is and counted, never silently lost.
type Merger struct {
	// Selector is the XPath selecting record nodes, e.g. "/data/cars/car".
	Selector string
	// KeyTag names the VIN child element; attribute lookup tries the same
	// name case-insensitively first.
	KeyTag string
	Log    *slog.Logger
}

// MergeStats reports what a merge did.
type MergeStats struct {
	Sources    int
	Records    int
	Duplicates int
	Unkeyed    int
}

// NewMerger builds a Merger with the canonical selector and vin key.
func NewMerger(log *slog.Logger) *Merger {
	return &Merger{Selector: "/data/cars/car", KeyTag: "vin", Log: log}
}

// Merge folds the sources into the first document. The first source becomes
// the output envelope; unique records from later sources are appended to its
// record container.
func (m *Merger) Merge(docs []*xmlquery.Node) (*xmlquery.Node, MergeStats, error) {
	stats := MergeStats{Sources: len(docs)}
	if len(docs) == 0 {
		return nil, stats, domain.ErrNoData
	}

	base := docs[0]
	container, err := m.container(base)
	if err != nil {
		return nil, stats, err
	}

	seen := make(map[string]bool)
	for _, rec := range xmlquery.Find(base, m.Selector) {
		key := m.key(rec)
		if key == "" {
			stats.Unkeyed++
			stats.Records++
			continue
		}
		if seen[key] {
			stats.Duplicates++
			detach(rec)
			continue
		}
		seen[key] = true
		stats.Records++
	}

	for _, doc := range docs[1:] {
		for _, rec := range xmlquery.Find(doc, m.Selector) {
			key := m.key(rec)
			if key == "" {
				stats.Unkeyed++
				stats.Records++
				m.logf("merge: record without %s kept", m.KeyTag)
				appendChild(container, rec)
				continue
			}
			if seen[key] {
				stats.Duplicates++
				continue
			}
			seen[key] = true
			stats.Records++
			appendChild(container, rec)
		}
	}
	return base, stats, nil
}

// container finds the node new records are appended under: the parent of an
// existing record, falling back to the selector path minus its last step.
func (m *Merger) container(doc *xmlquery.Node) (*xmlquery.Node, error) {
	if rec := xmlquery.FindOne(doc, m.Selector); rec != nil && rec.Parent != nil {
		return rec.Parent, nil
	}
	parentPath := m.Selector[:strings.LastIndex(m.Selector, "/")]
	if parentPath != "" {
		if n := xmlquery.FindOne(doc, parentPath); n != nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("merge: no container for %s: %w", m.Selector, domain.ErrEmptyFeed)
}

// key extracts the normalized VIN: attribute first, child element second,
// both matched case-insensitively.
func (m *Merger) key(rec *xmlquery.Node) string {
	for _, a := range rec.Attr {
		if strings.EqualFold(a.Name.Local, m.KeyTag) {
			if v := strings.TrimSpace(a.Value); v != "" {
				return strings.ToUpper(v)
			}
		}
	}
	for c := rec.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && strings.EqualFold(c.Data, m.KeyTag) {
			if v := strings.TrimSpace(c.InnerText()); v != "" {
				return strings.ToUpper(v)
			}
		}
	}
	return ""
}

func (m *Merger) logf(msg string, args ...any) {
	if m.Log != nil {
		m.Log.Warn(fmt.Sprintf(msg, args...))
	}
}

func detach(n *xmlquery.Node) {
	if n.Parent == nil {
		return
	}
	if n.Parent.FirstChild == n {
		n.Parent.FirstChild = n.NextSibling
	}
	if n.Parent.LastChild == n {
		n.Parent.LastChild = n.PrevSibling
	}
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	}
	n.Parent, n.PrevSibling, n.NextSibling = nil, nil, nil
}

func appendChild(parent, n *xmlquery.Node) {
	detach(n)
	n.Parent = parent
	if parent.LastChild == nil {
		parent.FirstChild = n
		parent.LastChild = n
		return
	}
	n.PrevSibling = parent.LastChild
	parent.LastChild.NextSibling = n
	parent.LastChild = n
}
