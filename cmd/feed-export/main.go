// Command feed-export rewrites a feed for re-publication on a marketplace:
// description replacements, contact overrides, VIN/id shifting and stock
// duplication, configured per source.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexsab-ru/carfeed/engine/export"
	"github.com/alexsab-ru/carfeed/engine/feed"
	"github.com/alexsab-ru/carfeed/pkg/fetch"
	"github.com/alexsab-ru/carfeed/pkg/runlog"
	"github.com/antchfx/xmlquery"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		input        = flag.String("input", "", "feed file path (empty: use -xml-url)")
		xmlURL       = flag.String("xml-url", os.Getenv("XML_URL"), "feed URL")
		target       = flag.String("target", export.TargetAutoru.Name, "marketplace target: avito or autoru")
		output       = flag.String("output", "export.xml", "rewritten feed output path")
		stockPath    = flag.String("stock", "air_storage.json", "VIN-keyed stock count JSON")
		configSource = flag.String("config-source", "file", "config source: file, env or github")
		configPath   = flag.String("config-path", "./config_export.json", "config file path (file source)")
		configEnv    = flag.String("config-env", "EXPORT_CONFIG", "env var holding config JSON (env source)")
		githubRepo   = flag.String("github-repo", "", "owner/repo holding the config (github source)")
		githubPath   = flag.String("github-path", "config", "config directory inside the repo")
		gistID       = flag.String("gist-id", "", "gist id holding the config (github source)")
		logPath      = flag.String("log", "output.txt", "run log / CI sentinel file")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	run, err := runlog.New(*logPath, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := run.Log

	tgt, ok := export.LookupTarget(*target)
	if !ok {
		log.Error("unknown target", "target", *target)
		run.Finish(true)
		os.Exit(1)
	}

	kind, err := export.ParseSourceKind(*configSource)
	if err != nil {
		log.Error("bad config source", "err", err)
		run.Finish(true)
		os.Exit(1)
	}
	src := export.Source{
		Kind:   kind,
		Path:   *configPath,
		EnvVar: *configEnv,
		GistID: *gistID,
		Repo:   *githubRepo,
		Dir:    *githubPath,
		File:   tgt.Name + ".json",
		Token:  os.Getenv("GITHUB_TOKEN"),
	}

	args := exportArgs{
		input:  *input,
		xmlURL: *xmlURL,
		target: tgt,
		source: src,
		stock:  *stockPath,
		output: *output,
	}
	if err := runExport(ctx, args, log); err != nil {
		log.Error("run failed", "err", err)
		run.Finish(true)
		os.Exit(1)
	}
	if err := run.Finish(false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exportArgs struct {
	input  string
	xmlURL string
	target export.Target
	source export.Source
	stock  string
	output string
}

func runExport(ctx context.Context, args exportArgs, log *slog.Logger) error {
	client := fetch.New()

	doc, err := loadDoc(ctx, args.input, args.xmlURL, client)
	if err != nil {
		return err
	}

	cfg, err := export.Load(ctx, args.source, client)
	if err != nil {
		return err
	}
	stock, err := loadStock(args.stock)
	if err != nil {
		return err
	}

	tr := &export.Transformer{Target: args.target, Config: cfg, Stock: stock, Log: log}
	stats, err := tr.Transform(doc)
	if err != nil {
		return err
	}
	log.Info("feed transformed",
		"target", args.target.Name,
		"records", stats.Records,
		"removed", stats.Removed,
		"shifted", stats.Shifted,
		"duplicated", stats.Duplicated)

	content := doc.OutputXML(true)
	if !strings.HasPrefix(content, "<?xml") {
		content = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + content
	}
	if err := os.WriteFile(args.output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args.output, err)
	}
	log.Info("export written", "path", args.output)
	return nil
}

func loadDoc(ctx context.Context, input, url string, client *fetch.Client) (*xmlquery.Node, error) {
	if input != "" {
		return feed.Load(input)
	}
	if url == "" {
		return nil, fmt.Errorf("either -input or -xml-url is required")
	}
	body, err := client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return feed.ParseBytes(body)
}

func loadStock(path string) (export.Stock, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stock %s: %w", path, err)
	}
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse stock %s: %w", path, err)
	}
	stock := make(export.Stock, len(raw))
	for vin, n := range raw {
		stock[strings.ToUpper(strings.TrimSpace(vin))] = n
	}
	return stock, nil
}
