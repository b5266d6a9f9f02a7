package export

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/alexsab-ru/carfeed/pkg/ident"
	"github.com/antchfx/xmlquery"
)

// Target names the tag layout of the feed being rewritten. Avito feeds use
// PascalCase Ads/Ad tags, Auto.ru-style feeds the canonical snake_case ones.
type Target struct {
	Name            string
	RecordsPath     string
	VINTag          string
	IDTag           string
	ColorTag        string
	DescriptionTag  string
	AddressTag      string
	PhoneTag        string
	AvailabilityTag string
	RunTag          string
}

// Built-in targets.
var (
	TargetAvito = Target{
		Name:            "avito",
		RecordsPath:     "/Ads/Ad",
		VINTag:          "VIN",
		IDTag:           "Id",
		ColorTag:        "Color",
		DescriptionTag:  "Description",
		AddressTag:      "Address",
		PhoneTag:        "ContactPhone",
		AvailabilityTag: "Availability",
		RunTag:          "Kilometrage",
	}
	TargetAutoru = Target{
		Name:            "autoru",
		RecordsPath:     "/data/cars/car",
		VINTag:          "vin",
		IDTag:           "unique_id",
		ColorTag:        "color",
		DescriptionTag:  "description",
		AddressTag:      "poi_id",
		PhoneTag:        "phone",
		AvailabilityTag: "availability",
		RunTag:          "run",
	}
)

// LookupTarget resolves a CLI target name.
func LookupTarget(name string) (Target, bool) {
	switch name {
	case TargetAvito.Name:
		return TargetAvito, true
	case TargetAutoru.Name:
		return TargetAutoru, true
	}
	return Target{}, false
}

// Stock maps a VIN to the number of units physically on the lot; each unit
// beyond the first becomes a duplicated record with a derived VIN.
type Stock map[string]int

// Stats reports one transform run.
type Stats struct {
	Records    int
	Removed    int
	Shifted    int
	Duplicated int
}

// Transformer rewrites a parsed feed in place for one marketplace.
type Transformer struct {
	Target Target
	Config Config
	Stock  Stock
	Log    *slog.Logger
}

// Transform applies removals, overrides, VIN/id shifting and stock
// duplication. Duplicates are collected during the walk and appended after
// it, so the record list is never mutated while being iterated.
func (t *Transformer) Transform(doc *xmlquery.Node) (Stats, error) {
	var stats Stats

	records := xmlquery.Find(doc, t.Target.RecordsPath)
	if len(records) == 0 {
		return stats, fmt.Errorf("export: %s: %w", t.Target.RecordsPath, domain.ErrEmptyFeed)
	}
	container := records[0].Parent

	var remove []*xmlquery.Node
	var duplicates []*xmlquery.Node

	for _, rec := range records {
		if t.shouldRemove(rec) {
			remove = append(remove, rec)
			continue
		}
		stats.Records++

		t.rewriteTexts(rec)

		vin := childText(rec, t.Target.VINTag)
		if t.Config.MoveVINIDUp != 0 {
			if vin != "" {
				shifted, err := ident.Shift(vin, int64(t.Config.MoveVINIDUp), 8)
				if err != nil {
					t.warn("vin shift failed", "vin", vin, "err", err)
				} else {
					setChildText(rec, t.Target.VINTag, strings.ToUpper(shifted))
					stats.Shifted++
				}
			}
			if id := childText(rec, t.Target.IDTag); id != "" {
				shifted, err := ident.Shift(id, int64(t.Config.MoveVINIDUp), 8)
				if err != nil {
					t.warn("id shift failed", "id", id, "err", err)
				} else {
					setChildText(rec, t.Target.IDTag, shifted)
				}
			}
		}

		// Stock lookup uses the original VIN: the dealer's sheet does not
		// know about shifting.
		if count := t.Stock[strings.ToUpper(vin)]; count > 1 {
			dups, err := t.duplicate(rec, vin, count-1)
			if err != nil {
				return stats, err
			}
			duplicates = append(duplicates, dups...)
			stats.Duplicated += len(dups)
			if contains(t.Config.RemoveCarsAfterDuplicate, vin) {
				remove = append(remove, rec)
				stats.Records--
			}
		}
	}

	for _, rec := range remove {
		detach(rec)
		stats.Removed++
	}
	for _, dup := range duplicates {
		appendChild(container, dup)
		stats.Records++
	}
	return stats, nil
}

func (t *Transformer) shouldRemove(rec *xmlquery.Node) bool {
	mark := childText(rec, "mark_id")
	if mark == "" {
		mark = childText(rec, "Make")
	}
	folder := childText(rec, "folder_id")
	if folder == "" {
		folder = childText(rec, "Model")
	}
	return contains(t.Config.RemoveMarkIDs, mark) || contains(t.Config.RemoveFolderIDs, folder)
}

func (t *Transformer) rewriteTexts(rec *xmlquery.Node) {
	if desc := childText(rec, t.Target.DescriptionTag); desc != "" && len(t.Config.Replacements) > 0 {
		updated := desc
		for old, repl := range t.Config.Replacements {
			updated = strings.ReplaceAll(updated, old, repl)
		}
		if updated != desc {
			setChildText(rec, t.Target.DescriptionTag, updated)
		}
	}
	if t.Config.NewAddress != "" && childText(rec, t.Target.AddressTag) != "" {
		setChildText(rec, t.Target.AddressTag, t.Config.NewAddress)
	}
	if t.Config.NewPhone != "" && childText(rec, t.Target.PhoneTag) != "" {
		setChildText(rec, t.Target.PhoneTag, t.Config.NewPhone)
	}
	if t.Config.GenerateFriendlyURL && t.Config.Domain != "" {
		slug := slugFromRecord(rec)
		if slug != "" {
			setChildText(rec, "url", "https://"+t.Config.Domain+"/cars/"+slug+"/")
		}
	}
}

// duplicate clones a record n times with per-unit VINs derived by shifting
// the listed VIN's tail, so clones never collide with the original. Clones
// are marked in stock with zero mileage.
func (t *Transformer) duplicate(rec *xmlquery.Node, vin string, n int) ([]*xmlquery.Node, error) {
	out := make([]*xmlquery.Node, 0, n)
	for i := 1; i <= n; i++ {
		unitVIN, err := ident.Shift(vin, int64(i), 8)
		if err != nil {
			return nil, fmt.Errorf("export: duplicate %s: %w", vin, err)
		}
		clone := copyNode(rec)
		setChildText(clone, t.Target.VINTag, strings.ToUpper(unitVIN))
		setChildText(clone, t.Target.AvailabilityTag, "в наличии")
		setChildText(clone, t.Target.RunTag, "0")
		out = append(out, clone)
	}
	return out, nil
}

func (t *Transformer) warn(msg string, args ...any) {
	if t.Log != nil {
		t.Log.Warn(msg, args...)
	}
}

func slugFromRecord(rec *xmlquery.Node) string {
	return domain.Slug(
		childText(rec, "mark_id"),
		childText(rec, "folder_id"),
		childText(rec, "modification_id"),
		childText(rec, "complectation_name"),
		childText(rec, "color"),
		childText(rec, "year"),
	)
}

func contains(list []string, v string) bool {
	for _, have := range list {
		if strings.EqualFold(have, v) {
			return true
		}
	}
	return false
}

func childElement(n *xmlquery.Node, tag string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

func childText(n *xmlquery.Node, tag string) string {
	if c := childElement(n, tag); c != nil {
		return strings.TrimSpace(c.InnerText())
	}
	return ""
}

// setChildText replaces the text of a child element, creating the element
// when missing.
func setChildText(n *xmlquery.Node, tag, text string) {
	el := childElement(n, tag)
	if el == nil {
		el = &xmlquery.Node{Type: xmlquery.ElementNode, Data: tag}
		appendChild(n, el)
	}
	el.FirstChild = nil
	el.LastChild = nil
	appendChild(el, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
}

// copyNode deep-copies an element subtree, detached from any parent.
func copyNode(n *xmlquery.Node) *xmlquery.Node {
	clone := &xmlquery.Node{
		Type:         n.Type,
		Data:         n.Data,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
		Attr:         append([]xmlquery.Attr(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendChild(clone, copyNode(c))
	}
	return clone
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
	n.Parent = parent
	n.PrevSibling = nil
	n.NextSibling = nil
	if parent.LastChild == nil {
		parent.FirstChild = n
		parent.LastChild = n
		return
	}
	n.PrevSibling = parent.LastChild
	parent.LastChild.NextSibling = n
	parent.LastChild = n
}
