package schema

import (
	"fmt"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/antchfx/xmlquery"
)

// Detect inspects a parsed feed and returns the matching Kind. The check is
// a fixed priority list over root tag and child structure; the first
// structural match wins, there is no confidence scoring. A feed whose
// container matches but holds zero records returns the Kind together with
// domain.ErrEmptyFeed so operators can tell a misconfigured source from a
// genuinely empty one. No match at all fails with domain.ErrUnknownSchema;
// the caller must then supply the schema explicitly.
func Detect(doc *xmlquery.Node) (Kind, error) {
	root := rootElement(doc)
	if root == nil {
		return KindUnknown, fmt.Errorf("detect: document has no root element: %w", domain.ErrUnknownSchema)
	}

	kind := KindUnknown
	switch root.Data {
	case "Ads":
		kind = KindAdsAd
	case "data":
		if childElement(root, "cars") != nil {
			kind = KindDataCars
		}
	case "vehicles":
		kind = KindVehicles
	case "catalog":
		if childElement(root, "vehicles") != nil {
			kind = KindVehicles
		}
	case "carcopy":
		if childElement(root, "offers") != nil {
			kind = KindCarcopy
		}
	case "yml_catalog":
		if shop := childElement(root, "shop"); shop != nil && childElement(shop, "offers") != nil {
			kind = KindYML
		}
	}

	// Fallback: an Ads-style feed whose root tag was renamed but whose
	// records are still <Ad> elements.
	if kind == KindUnknown {
		if first := firstChildElement(root); first != nil && first.Data == "Ad" {
			kind = KindAdsAd
		}
	}

	if kind == KindUnknown {
		return KindUnknown, fmt.Errorf("detect: root <%s>: %w", root.Data, domain.ErrUnknownSchema)
	}

	desc, _ := Lookup(kind)
	if len(xmlquery.Find(doc, desc.RecordsPath)) == 0 {
		return kind, fmt.Errorf("detect: %s: %w", kind, domain.ErrEmptyFeed)
	}
	return kind, nil
}

// Records selects the record nodes for a descriptor.
func Records(doc *xmlquery.Node, desc Descriptor) []*xmlquery.Node {
	return xmlquery.Find(doc, desc.RecordsPath)
}

func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

func childElement(n *xmlquery.Node, tag string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

func firstChildElement(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}
