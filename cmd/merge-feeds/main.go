// Command merge-feeds downloads or reads several same-dialect feeds and
// writes one deduplicated document. Feed order expresses priority: the
// first occurrence of a VIN wins.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/alexsab-ru/carfeed/engine/feed"
	"github.com/alexsab-ru/carfeed/pkg/fetch"
	"github.com/alexsab-ru/carfeed/pkg/runlog"
	"github.com/antchfx/xmlquery"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		urlList  = flag.String("xml-url", os.Getenv("ENV_XML_URL"), "feed URL(s), newline-separated")
		output   = flag.String("output", "merged.xml", "merged feed output path")
		selector = flag.String("selector", "/data/cars/car", "XPath selecting record nodes")
		keyTag   = flag.String("key", "vin", "record key tag or attribute name")
		logPath  = flag.String("log", "output.txt", "run log / CI sentinel file")
		verbose  = flag.Bool("v", false, "debug logging")
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

	if err := merge(ctx, flag.Args(), *urlList, *selector, *keyTag, *output, log); err != nil {
		log.Error("run failed", "err", err)
		run.Finish(true)
		os.Exit(1)
	}
	if err := run.Finish(false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func merge(ctx context.Context, files []string, urlList, selector, keyTag, output string, log *slog.Logger) error {
	var docs []*xmlquery.Node

	for _, path := range files {
		doc, err := feed.Load(path)
		if err != nil {
			log.Warn("source skipped", "source", path, "err", err)
			continue
		}
		docs = append(docs, doc)
	}

	client := fetch.New()
	for _, url := range strings.Split(urlList, "\n") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
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
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		// Every source failed. The previous merged feed on disk is better
		// than an empty one, so decline to overwrite it.
		return fmt.Errorf("all sources failed, keeping existing %s: %w", output, domain.ErrNoData)
	}

	merger := &feed.Merger{Selector: selector, KeyTag: keyTag, Log: log}
	merged, stats, err := merger.Merge(docs)
	if err != nil {
		return err
	}
	log.Info("feeds merged",
		"sources", stats.Sources,
		"records", stats.Records,
		"duplicates", stats.Duplicates,
		"unkeyed", stats.Unkeyed)

	content := merged.OutputXML(true)
	if !strings.HasPrefix(content, "<?xml") {
		content = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + content
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	log.Info("merged feed written", "path", output)
	return nil
}
