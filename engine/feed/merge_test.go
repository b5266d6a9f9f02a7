package feed

import (
	"errors"
	"strings"
	"testing"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/antchfx/xmlquery"
)

func mustParse(t *testing.T, s string) *xmlquery.Node {
	t.Helper()
	doc, err := Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestMergeFirstWins(t *testing.T) {
	a := mustParse(t, `<data><cars>
		<car><vin>V1</vin><price>100</price></car>
		<car><vin>V2</vin><price>200</price></car>
	</cars></data>`)
	b := mustParse(t, `<data><cars>
		<car><vin>V2</vin><price>999</price></car>
		<car><vin>V3</vin><price>300</price></car>
	</cars></data>`)

	merged, stats, err := NewMerger(nil).Merge([]*xmlquery.Node{a, b})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Sources != 2 || stats.Records != 3 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v", stats)
	}

	cars := xmlquery.Find(merged, "/data/cars/car")
	if len(cars) != 3 {
		t.Fatalf("merged cars = %d, want 3", len(cars))
	}
	// The earlier source's V2 price survives.
	for _, c := range cars {
		if childText(c, "vin") == "V2" && childText(c, "price") != "200" {
			t.Errorf("V2 price = %s, want first-source 200", childText(c, "price"))
		}
	}
}

func TestMergeCaseInsensitiveKey(t *testing.T) {
	a := mustParse(t, `<data><cars><car><vin>v1</vin></car></cars></data>`)
	b := mustParse(t, `<data><cars><car><VIN>V1</VIN></car></cars></data>`)
	_, stats, err := NewMerger(nil).Merge([]*xmlquery.Node{a, b})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Duplicates != 1 || stats.Records != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMergeAttributeKey(t *testing.T) {
	m := &Merger{Selector: "/yml_catalog/shop/offers/offer", KeyTag: "vin"}
	a := mustParse(t, `<yml_catalog><shop><offers><offer vin="V1"/></offers></shop></yml_catalog>`)
	b := mustParse(t, `<yml_catalog><shop><offers><offer vin="V1"/><offer vin="V2"/></offers></shop></yml_catalog>`)
	merged, stats, err := m.Merge([]*xmlquery.Node{a, b})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Records != 2 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if got := len(xmlquery.Find(merged, m.Selector)); got != 2 {
		t.Errorf("merged offers = %d", got)
	}
}

func TestMergeUnkeyedKept(t *testing.T) {
	a := mustParse(t, `<data><cars><car><vin>V1</vin></car></cars></data>`)
	b := mustParse(t, `<data><cars><car><price>1</price></car></cars></data>`)
	merged, stats, err := NewMerger(nil).Merge([]*xmlquery.Node{a, b})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Unkeyed != 1 || stats.Records != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if got := len(xmlquery.Find(merged, "/data/cars/car")); got != 2 {
		t.Errorf("merged cars = %d", got)
	}
}

func TestMergeDuplicateWithinOneSource(t *testing.T) {
	a := mustParse(t, `<data><cars>
		<car><vin>V1</vin><price>100</price></car>
		<car><vin>V1</vin><price>999</price></car>
	</cars></data>`)
	merged, stats, err := NewMerger(nil).Merge([]*xmlquery.Node{a})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Duplicates != 1 || stats.Records != 1 {
		t.Errorf("stats = %+v", stats)
	}
	cars := xmlquery.Find(merged, "/data/cars/car")
	if len(cars) != 1 || childText(cars[0], "price") != "100" {
		t.Errorf("kept = %d cars", len(cars))
	}
}

func TestMergeNoSources(t *testing.T) {
	_, _, err := NewMerger(nil).Merge(nil)
	if !errors.Is(err, domain.ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}
