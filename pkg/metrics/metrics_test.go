package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	r := New()
	c := r.Counter("cars_processed_total", "records processed")
	c.Inc()
	c.Add(4)
	if c.Value() != 5 {
		t.Errorf("counter = %d, want 5", c.Value())
	}

	g := r.Gauge("feed_records", "records in the current feed")
	g.Set(10)
	g.Dec()
	if g.Value() != 9 {
		t.Errorf("gauge = %d, want 9", g.Value())
	}

	// Create-or-get returns the same instance.
	if r.Counter("cars_processed_total", "") != c {
		t.Error("Counter did not return existing instance")
	}
}

func TestWithLabels(t *testing.T) {
	name := WithLabels("cars_skipped_total", "schema", "data-cars-car")
	if name != `cars_skipped_total{schema="data-cars-car"}` {
		t.Errorf("WithLabels = %q", name)
	}
	if baseName(name) != "cars_skipped_total" {
		t.Errorf("baseName = %q", baseName(name))
	}
}

func TestRender(t *testing.T) {
	r := New()
	r.Counter("cars_processed_total", "records processed").Add(3)
	r.Counter(WithLabels("cars_skipped_total", "schema", "Ads-Ad"), "records skipped").Inc()
	r.Gauge("feed_sources", "loaded sources").Set(2)

	out := r.Render()
	for _, want := range []string{
		"# HELP cars_processed_total records processed",
		"# TYPE cars_processed_total counter",
		"cars_processed_total 3",
		`cars_skipped_total{schema="Ads-Ad"} 1`,
		"# TYPE feed_sources gauge",
		"feed_sources 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteFile(t *testing.T) {
	r := New()
	r.Counter("runs_total", "").Inc()
	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "runs_total 1") {
		t.Errorf("file = %q", data)
	}
}
