// SPDX-License-Identifier: MIT

// profile is a one-shot CLI that profiles a CSV file and emits the JSON
// report, without running the daemon.
//
// Usage:
//
//	profile [flags] dataset.csv
//
// Exit codes:
//   - 0: Report written
//   - 1: Ingestion or profiling failed
//   - 2: Usage error
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/renameio/v2"

	"github.com/john-james-ai/d8analysis/internal/dataset"
	d8log "github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/profile"
	"github.com/john-james-ai/d8analysis/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		name        string
		schemaPath  string
		delimiter   string
		out         string
		bins        int
		topK        int
		alpha       float64
		noFit       bool
		noCorr      bool
		concurrency int
		sampleRows  int
		preview     int
		compact     bool
		logLevel    string
		showVersion bool
	)

	fs.StringVar(&name, "name", "", "dataset name (defaults to the file name)")
	fs.StringVar(&schemaPath, "schema", "", "YAML schema file with column kind overrides")
	fs.StringVar(&delimiter, "delimiter", "", "CSV delimiter (single character, default: sniffed)")
	fs.StringVar(&out, "out", "", "report output path (default: stdout)")
	fs.IntVar(&bins, "bins", 0, "histogram bins (0 applies the Sturges rule)")
	fs.IntVar(&topK, "top-k", 10, "frequency levels per categorical column")
	fs.Float64Var(&alpha, "alpha", 0.05, "significance level for embedded tests")
	fs.BoolVar(&noFit, "no-fit", false, "skip distribution fitting")
	fs.BoolVar(&noCorr, "no-correlations", false, "skip the correlation matrix")
	fs.IntVar(&concurrency, "concurrency", 0, "column workers (0 uses the default)")
	fs.IntVar(&sampleRows, "sample-rows", 0, "rows examined during kind inference (0 uses the default)")
	fs.IntVar(&preview, "preview", 10, "preview rows embedded in the report (negative disables)")
	fs.BoolVar(&compact, "compact", false, "emit compact JSON instead of indented")
	fs.StringVar(&logLevel, "log-level", "warn", "log level while profiling")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: profile [flags] dataset.csv")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		return 0
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one CSV file is required")
		fmt.Fprintln(os.Stderr, "")
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	// The report goes to stdout, logs must not mix into it.
	d8log.Configure(d8log.Config{
		Level:   logLevel,
		Output:  os.Stderr,
		Service: "d8analysis",
	})
	logger := d8log.WithComponent("profile-cli")

	readOpts := dataset.ReadOptions{
		Name:       name,
		SampleRows: sampleRows,
	}
	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			fmt.Fprintf(os.Stderr, "Error: delimiter must be a single character, got %q\n", delimiter)
			return 2
		}
		readOpts.Delimiter = runes[0]
	}
	if schemaPath != "" {
		schema, err := dataset.LoadSchema(schemaPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Schema error: %v\n", err)
			return 1
		}
		readOpts.Schema = schema
	}

	ds, err := dataset.ReadFile(path, readOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := profile.Run(ctx, profile.Config{
		MaxConcurrency: concurrency,
		TopK:           topK,
		Bins:           bins,
		Alpha:          alpha,
		BestFit:        !noFit,
		Correlations:   !noCorr,
		SampleRows:     preview,
	}, ds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Profiling error: %v\n", err)
		return 1
	}

	var payload []byte
	if compact {
		payload, err = json.Marshal(report)
	} else {
		payload, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Encoding error: %v\n", err)
		return 1
	}

	if out == "" {
		fmt.Println(string(payload))
		return 0
	}

	if err := renameio.WriteFile(out, append(payload, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		return 1
	}
	logger.Info().
		Str("event", "profile.report_written").
		Str("path", out).
		Int("columns", len(report.Columns)).
		Msg("report written")
	return 0
}
