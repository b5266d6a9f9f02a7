// Command build-pages turns one or more dealer inventory feeds into the MDX
// page tree and the canonical XML feed for the site. Sources are local files
// or URLs; the dialect of each is auto-detected unless forced.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/alexsab-ru/carfeed/engine/feed"
	"github.com/alexsab-ru/carfeed/engine/pages"
	"github.com/alexsab-ru/carfeed/engine/pricing"
	"github.com/alexsab-ru/carfeed/engine/schema"
	"github.com/alexsab-ru/carfeed/pkg/fetch"
	"github.com/alexsab-ru/carfeed/pkg/fn"
	"github.com/alexsab-ru/carfeed/pkg/metrics"
	"github.com/alexsab-ru/carfeed/pkg/runlog"
	"github.com/antchfx/xmlquery"
)

type config struct {
	inputs      []string
	urls        []string
	sourceType  string
	carsDir     string
	output      string
	overrides   string
	sortStorage string
	domain      string
	city        string
	cityWhere   string
	logPath     string
	metricsPath string
	verbose     bool
}

func parseFlags() config {
	var cfg config
	var urlList string
	flag.StringVar(&urlList, "xml-url", os.Getenv("XML_URL"), "feed URL(s), newline-separated")
	flag.StringVar(&cfg.sourceType, "source-type", "", "force feed dialect, one of: "+strings.Join(schema.Names(), ", "))
	flag.StringVar(&cfg.carsDir, "cars-dir", "src/content/cars", "MDX page output directory")
	flag.StringVar(&cfg.output, "output", "", "canonical XML output path (empty: skip)")
	flag.StringVar(&cfg.overrides, "overrides", "dealer_prices.json", "VIN-keyed price override JSON")
	flag.StringVar(&cfg.sortStorage, "sort-storage", "", "VIN-keyed page order JSON")
	flag.StringVar(&cfg.domain, "domain", envOr("DOMAIN", "localhost"), "site domain for page URLs")
	flag.StringVar(&cfg.city, "city", os.Getenv("LEGAL_CITY"), "dealer city, nominative")
	flag.StringVar(&cfg.cityWhere, "city-where", os.Getenv("LEGAL_CITY_WHERE"), "dealer city, prepositional")
	flag.StringVar(&cfg.logPath, "log", "output.txt", "run log / CI sentinel file")
	flag.StringVar(&cfg.metricsPath, "metrics", "", "write metrics snapshot to this file")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	cfg.inputs = flag.Args()
	for _, u := range strings.Split(urlList, "\n") {
		if u = strings.TrimSpace(u); u != "" {
			cfg.urls = append(cfg.urls, u)
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// batch is one parsed source feed travelling through the pipeline.
type batch struct {
	desc    schema.Descriptor
	records []*xmlquery.Node
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := parseFlags()
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	run, err := runlog.New(cfg.logPath, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := run.Log

	if err := build(ctx, cfg, log); err != nil {
		log.Error("run failed", "err", err)
		run.Finish(true)
		os.Exit(1)
	}
	if err := run.Finish(false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func build(ctx context.Context, cfg config, log *slog.Logger) error {
	reg := metrics.New()
	processed := reg.Counter("cars_processed_total", "records accepted into the page tree")
	skipped := reg.Counter("cars_skipped_total", "records rejected by validation")
	sources := reg.Counter("feed_sources_total", "feed sources successfully loaded")

	docs := loadSources(ctx, cfg, log)
	if len(docs) == 0 {
		return domain.ErrNoData
	}
	sources.Add(int64(len(docs)))

	overrides, err := pricing.LoadOverrides(cfg.overrides)
	if err != nil {
		return err
	}
	calc := pricing.NewCalculator(log, overrides)

	sortOrder, err := loadSortStorage(cfg.sortStorage)
	if err != nil {
		return err
	}

	extract := fn.TracedStage("extract", func(ctx context.Context, b batch) fn.Result[[]*domain.Record] {
		ex := feed.NewExtractor(b.desc)
		var out []*domain.Record
		for _, node := range b.records {
			rec, err := ex.Extract(node)
			if err != nil {
				skipped.Inc()
				log.Warn("record skipped", "schema", b.desc.Kind.String(), "err", err)
				continue
			}
			out = append(out, rec)
		}
		return fn.Ok(out)
	})

	var all []*domain.Record
	for _, d := range docs {
		kind, desc, err := resolveSchema(cfg.sourceType, d.doc)
		if errors.Is(err, domain.ErrEmptyFeed) {
			log.Warn("source empty", "source", d.name, "schema", kind.String())
			continue
		}
		if err != nil {
			return err
		}
		log.Info("feed loaded", "source", d.name, "schema", kind.String())

		price := fn.TracedStage("price", fn.MapStage(func(rs []*domain.Record) []*domain.Record {
			for _, rec := range rs {
				calc.Apply(rec, desc)
			}
			return rs
		}))
		localize := fn.TracedStage("localize", fn.MapStage(func(rs []*domain.Record) []*domain.Record {
			for _, rec := range rs {
				domain.LocalizeRecord(rec, desc.Localize)
				rec.Color = domain.TitleColor(rec.Color)
			}
			return rs
		}))
		slugify := fn.TracedStage("slug", fn.MapStage(func(rs []*domain.Record) []*domain.Record {
			for _, rec := range rs {
				rec.FriendlyURL = domain.FriendlyURL(rec)
				rec.URL = "https://" + cfg.domain + "/cars/" + rec.FriendlyURL + "/"
			}
			return rs
		}))

		b := batch{desc: desc, records: schema.Records(d.doc, desc)}
		process := fn.Then(extract, fn.Pipeline(price, localize, slugify))
		records, err := process(ctx, b).Unwrap()
		if err != nil {
			return err
		}
		all = append(all, records...)
	}

	all = foldDuplicates(all)
	processed.Add(int64(len(all)))
	if len(all) == 0 {
		return fmt.Errorf("no usable records: %w", domain.ErrNoData)
	}

	emitter := pages.NewEmitter(cfg.carsDir, log)
	emitter.City = cfg.city
	emitter.CityWhere = cfg.cityWhere
	emitter.SortOrder = sortOrder
	stats, err := emitter.Emit(all)
	if err != nil {
		return err
	}
	log.Info("pages emitted", "created", stats.Created, "merged", stats.Merged, "pruned", stats.Pruned)

	if cfg.output != "" {
		if err := feed.NewWriter().WriteFile(cfg.output, all); err != nil {
			return err
		}
		log.Info("canonical feed written", "path", cfg.output, "records", len(all))
	}

	if cfg.metricsPath != "" {
		if err := reg.WriteFile(cfg.metricsPath); err != nil {
			return err
		}
	}
	return nil
}

type source struct {
	name string
	doc  *xmlquery.Node
}

// loadSources reads all file and URL sources, skipping the ones that fail:
// a dealer with several feeds wants the healthy ones published even when
// one supplier is down.
func loadSources(ctx context.Context, cfg config, log *slog.Logger) []source {
	var out []source
	for _, path := range cfg.inputs {
		doc, err := feed.Load(path)
		if err != nil {
			log.Warn("source skipped", "source", path, "err", err)
			continue
		}
		out = append(out, source{name: path, doc: doc})
	}
	if len(cfg.urls) > 0 {
		client := fetch.New()
		for _, url := range cfg.urls {
			body, err := client.Get(ctx, url)
			if err != nil {
				log.Warn("source skipped", "source", url, "err", err)
				continue
			}
			doc, err := feed.ParseBytes(body)
			if err != nil {
				log.Warn("source skipped", "source", url, "err", err)
				continue
			}
			out = append(out, source{name: url, doc: doc})
		}
	}
	return out
}

func resolveSchema(forced string, doc *xmlquery.Node) (schema.Kind, schema.Descriptor, error) {
	if forced != "" {
		kind, ok := schema.ParseKind(forced)
		if !ok {
			return schema.KindUnknown, schema.Descriptor{}, fmt.Errorf("unknown source type %q", forced)
		}
		desc, _ := schema.Lookup(kind)
		return kind, desc, nil
	}
	kind, err := schema.Detect(doc)
	if err != nil {
		return kind, schema.Descriptor{}, err
	}
	desc, _ := schema.Lookup(kind)
	return kind, desc, nil
}

// foldDuplicates merges later sightings of a VIN into the first one: totals
// sum, run and sale price take the minimum, images extend. The first source
// stays authoritative for everything else.
func foldDuplicates(records []*domain.Record) []*domain.Record {
	byVIN := make(map[string]*domain.Record, len(records))
	out := records[:0]
	for _, rec := range records {
		key := strings.ToUpper(rec.VIN)
		if have, ok := byVIN[key]; ok {
			have.Merge(rec)
			continue
		}
		byVIN[key] = rec
		out = append(out, rec)
	}
	return out
}

func loadSortStorage(path string) (map[string]int, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sort storage %s: %w", path, err)
	}
	var order map[string]int
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("parse sort storage %s: %w", path, err)
	}
	return order, nil
}
