package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexsab-ru/carfeed/engine/feed"
	"github.com/antchfx/xmlquery"
)

func parse(t *testing.T, s string) *xmlquery.Node {
	t.Helper()
	doc, err := feed.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func text(t *testing.T, doc *xmlquery.Node, path string) string {
	t.Helper()
	n := xmlquery.FindOne(doc, path)
	if n == nil {
		t.Fatalf("no node at %s", path)
	}
	return strings.TrimSpace(n.InnerText())
}

const autoruFeed = `<data><cars>
	<car>
		<mark_id>Geely</mark_id>
		<folder_id>Coolray</folder_id>
		<vin>X7LASRA1200000001</vin>
		<unique_id>00000001</unique_id>
		<description>Звоните в салон Старый Дилер!</description>
		<availability>в пути</availability>
		<run>10</run>
	</car>
	<car>
		<mark_id>Lada</mark_id>
		<folder_id>Vesta</folder_id>
		<vin>XTA00000000000002</vin>
		<run>0</run>
	</car>
</cars></data>`

func TestTransformReplacementsAndRemoval(t *testing.T) {
	doc := parse(t, autoruFeed)
	tr := &Transformer{
		Target: TargetAutoru,
		Config: Config{
			Replacements:  map[string]string{"Старый Дилер": "Новый Дилер"},
			RemoveMarkIDs: []string{"Lada"},
		},
	}
	stats, err := tr.Transform(doc)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if stats.Records != 1 || stats.Removed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if got := text(t, doc, "/data/cars/car/description"); !strings.Contains(got, "Новый Дилер") {
		t.Errorf("description = %q", got)
	}
	if n := xmlquery.FindOne(doc, "//car[mark_id='Lada']"); n != nil {
		t.Error("removed mark still present")
	}
}

func TestTransformVINShift(t *testing.T) {
	doc := parse(t, autoruFeed)
	tr := &Transformer{
		Target: TargetAutoru,
		Config: Config{MoveVINIDUp: 1},
	}
	stats, err := tr.Transform(doc)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if stats.Shifted != 2 {
		t.Errorf("shifted = %d, want 2", stats.Shifted)
	}
	if got := text(t, doc, "/data/cars/car[1]/vin"); got != "X7LASRA1200000002" {
		t.Errorf("vin = %q, want X7LASRA1200000002", got)
	}
	if got := text(t, doc, "/data/cars/car[1]/unique_id"); got != "00000002" {
		t.Errorf("unique_id = %q, want 00000002", got)
	}
}

func TestTransformStockDuplication(t *testing.T) {
	doc := parse(t, autoruFeed)
	tr := &Transformer{
		Target: TargetAutoru,
		Stock:  Stock{"X7LASRA1200000001": 3},
	}
	stats, err := tr.Transform(doc)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if stats.Duplicated != 2 {
		t.Errorf("duplicated = %d, want 2", stats.Duplicated)
	}
	cars := xmlquery.Find(doc, "/data/cars/car")
	if len(cars) != 4 {
		t.Fatalf("cars = %d, want 4", len(cars))
	}
	// Clones get sequential VINs, on-lot availability and zero mileage.
	last := cars[len(cars)-1]
	vin := text(t, last, "vin")
	if vin != "X7LASRA1200000003" {
		t.Errorf("clone vin = %q", vin)
	}
	if text(t, last, "availability") != "в наличии" || text(t, last, "run") != "0" {
		t.Errorf("clone availability/run = %q/%q", text(t, last, "availability"), text(t, last, "run"))
	}
	// The original keeps its own state.
	if text(t, cars[0], "availability") != "в пути" {
		t.Error("original availability rewritten")
	}
}

func TestTransformRemoveAfterDuplicate(t *testing.T) {
	doc := parse(t, autoruFeed)
	tr := &Transformer{
		Target: TargetAutoru,
		Stock:  Stock{"X7LASRA1200000001": 2},
		Config: Config{RemoveCarsAfterDuplicate: []string{"X7LASRA1200000001"}},
	}
	if _, err := tr.Transform(doc); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	vins := map[string]bool{}
	for _, c := range xmlquery.Find(doc, "/data/cars/car") {
		vins[text(t, c, "vin")] = true
	}
	if vins["X7LASRA1200000001"] {
		t.Error("original kept despite remove_cars_after_duplicate")
	}
	if !vins["X7LASRA1200000002"] {
		t.Error("duplicate missing")
	}
}

func TestTransformFriendlyURL(t *testing.T) {
	doc := parse(t, autoruFeed)
	tr := &Transformer{
		Target: TargetAutoru,
		Config: Config{GenerateFriendlyURL: true, Domain: "dealer.example"},
	}
	if _, err := tr.Transform(doc); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	got := text(t, doc, "/data/cars/car[1]/url")
	if got != "https://dealer.example/cars/geely-coolray/" {
		t.Errorf("url = %q", got)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"move_vin_id_up": 2, "replacements": {"a": "b"}, "remove_mark_ids": ["Lada"]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(context.Background(), Source{Kind: SourceFile, Path: path}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MoveVINIDUp != 2 || cfg.Replacements["a"] != "b" || len(cfg.RemoveMarkIDs) != 1 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := Load(context.Background(), Source{Kind: SourceFile, Path: "/nope.json"}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MoveVINIDUp != 0 {
		t.Errorf("config = %+v, want zero", cfg)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("EXPORT_CONFIG", `{"new_phone": "+7 800 000-00-00"}`)
	cfg, err := Load(context.Background(), Source{Kind: SourceEnv, EnvVar: "EXPORT_CONFIG"}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NewPhone != "+7 800 000-00-00" {
		t.Errorf("config = %+v", cfg)
	}
}
