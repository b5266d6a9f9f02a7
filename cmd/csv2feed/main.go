// Command csv2feed converts a dealer inventory spreadsheet (CSV with
// Cyrillic headers) into the canonical data/cars/car XML feed.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/alexsab-ru/carfeed/engine/feed"
	"github.com/alexsab-ru/carfeed/engine/pricing"
	"github.com/alexsab-ru/carfeed/engine/schema"
	"github.com/alexsab-ru/carfeed/pkg/runlog"
)

func main() {
	var (
		input     = flag.String("input", "cars.csv", "inventory CSV path")
		output    = flag.String("output", "cars.xml", "canonical XML output path")
		overrides = flag.String("overrides", "", "VIN-keyed price override JSON")
		logPath   = flag.String("log", "output.txt", "run log / CI sentinel file")
		verbose   = flag.Bool("v", false, "debug logging")
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

	if err := convert(*input, *output, *overrides, run.Log); err != nil {
		run.Log.Error("run failed", "err", err)
		run.Finish(true)
		os.Exit(1)
	}
	if err := run.Finish(false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func convert(input, output, overridesPath string, log *slog.Logger) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	defer f.Close()

	records, err := feed.ReadCSV(f, log)
	if err != nil {
		return err
	}
	log.Info("csv read", "path", input, "records", len(records))

	overrides, err := pricing.LoadOverrides(overridesPath)
	if err != nil {
		return err
	}
	calc := pricing.NewCalculator(log, overrides)
	// Spreadsheets carry a single discount column, so the direct rule
	// applies regardless of downstream dialect.
	desc, _ := schema.Lookup(schema.KindAdsAd)
	for _, rec := range records {
		calc.Apply(rec, desc)
		rec.Color = domain.TitleColor(rec.Color)
	}

	if err := feed.NewWriter().WriteFile(output, records); err != nil {
		return err
	}
	log.Info("feed written", "path", output, "records", len(records))
	return nil
}
