package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/antchfx/xmlquery"
)

func parse(t *testing.T, s string) *xmlquery.Node {
	t.Helper()
	doc, err := xmlquery.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		xml  string
		want Kind
	}{
		{"ads", `<Ads><Ad><VIN>X</VIN></Ad></Ads>`, KindAdsAd},
		{"data-cars", `<data><cars><car><vin>X</vin></car></cars></data>`, KindDataCars},
		{"vehicles", `<vehicles><vehicle><vin>X</vin></vehicle></vehicles>`, KindVehicles},
		{"vehicles-offer-alias", `<vehicles><offer><vin>X</vin></offer></vehicles>`, KindVehicles},
		{"catalog-vehicles", `<catalog><vehicles><vehicle><vin>X</vin></vehicle></vehicles></catalog>`, KindVehicles},
		{"carcopy", `<carcopy><offers><offer><vin>X</vin></offer></offers></carcopy>`, KindCarcopy},
		{"yml", `<yml_catalog><shop><offers><offer id="1"/></offers></shop></yml_catalog>`, KindYML},
		{"ad-fallback", `<export><Ad><VIN>X</VIN></Ad></export>`, KindAdsAd},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			kind, err := Detect(parse(t, c.xml))
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if kind != c.want {
				t.Errorf("Detect = %v, want %v", kind, c.want)
			}
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	_, err := Detect(parse(t, `<rss><channel/></rss>`))
	if !errors.Is(err, domain.ErrUnknownSchema) {
		t.Errorf("expected ErrUnknownSchema, got %v", err)
	}
}

func TestDetectMatchedEmpty(t *testing.T) {
	kind, err := Detect(parse(t, `<data><cars></cars></data>`))
	if !errors.Is(err, domain.ErrEmptyFeed) {
		t.Fatalf("expected ErrEmptyFeed, got %v", err)
	}
	// The kind is still reported so the operator knows the shape matched.
	if kind != KindDataCars {
		t.Errorf("kind = %v, want %v", kind, KindDataCars)
	}
}

func TestRecordsUnderRenamedAdsRoot(t *testing.T) {
	doc := parse(t, `<export><Ad><VIN>A</VIN></Ad><Ad><VIN>B</VIN></Ad></export>`)
	kind, err := Detect(doc)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if kind != KindAdsAd {
		t.Fatalf("kind = %v", kind)
	}
	desc, _ := Lookup(kind)
	if got := len(Records(doc, desc)); got != 2 {
		t.Errorf("Records = %d nodes, want 2", got)
	}
}

func TestRecordsSelection(t *testing.T) {
	doc := parse(t, `<data><cars><car><vin>A</vin></car><car><vin>B</vin></car></cars></data>`)
	desc, ok := Lookup(KindDataCars)
	if !ok {
		t.Fatal("missing descriptor")
	}
	if got := len(Records(doc, desc)); got != 2 {
		t.Errorf("Records = %d nodes, want 2", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range Names() {
		k, ok := ParseKind(name)
		if !ok || k == KindUnknown {
			t.Errorf("ParseKind(%q) failed", name)
		}
		if k.String() != name {
			t.Errorf("round trip %q -> %v -> %q", name, k, k.String())
		}
	}
	if _, ok := ParseKind("nope"); ok {
		t.Error("ParseKind accepted unknown name")
	}
}
