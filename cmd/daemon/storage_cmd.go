// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/config"
	"github.com/john-james-ai/d8analysis/internal/persistence/sqlite"
)

func runStorageCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printStorageUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "verify":
		return runStorageVerify(args[1:])
	case "prune-reports":
		return runStoragePruneReports(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printStorageUsage(os.Stderr)
		return 2
	}
}

func printStorageUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  d8analysis storage verify [--path PATH] [--mode quick|full]")
	_, _ = fmt.Fprintln(w, "  d8analysis storage prune-reports [--report-dir DIR] [--catalog PATH] [--older-than DUR] [--dry-run]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Subcommands:")
	_, _ = fmt.Fprintln(w, "  verify         Check catalog database integrity")
	_, _ = fmt.Fprintln(w, "  prune-reports  Delete report files for datasets no longer in the catalog")
}

// catalogPath resolves the catalog database location the same way the
// daemon does: explicit flag > D8A_CATALOG_PATH > D8A_DATA_DIR/catalog.db.
func catalogPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := strings.TrimSpace(config.ParseString(config.EnvCatalogPath, "")); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(config.ParseString(config.EnvDataDir, "./data"))
	return filepath.Join(dataDir, "catalog.db")
}

func runStorageVerify(args []string) int {
	fs := flag.NewFlagSet("d8analysis storage verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var path string
	var mode string

	fs.StringVar(&path, "path", "", "Path to the catalog database (defaults to the configured catalog)")
	fs.StringVar(&mode, "mode", "quick", "Verification mode: quick or full")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != "quick" && mode != "full" {
		fmt.Fprintf(os.Stderr, "Error: invalid mode %q. Use 'quick' or 'full'.\n", mode)
		return 2
	}

	dbPath := catalogPath(path)
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: catalog database not found at %s\n", dbPath)
		return 2
	}

	fmt.Fprintf(os.Stderr, "Verifying integrity of %s (mode: %s)...\n", dbPath, mode)

	issues, err := sqlite.VerifyIntegrity(dbPath, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification interrupted by system error: %v\n", err)
		return 1
	}

	if issues != nil {
		fmt.Fprintln(os.Stderr, "CORRUPTION DETECTED!")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		return 1
	}

	fmt.Println("Integrity verified: ok")
	return 0
}

// runStoragePruneReports removes report files whose dataset no longer
// exists in the catalog, plus (with --older-than) reports older than the
// given age. This is the only path that deletes reports: neither the
// daemon nor the API prune on their own.
func runStoragePruneReports(args []string) int {
	fs := flag.NewFlagSet("d8analysis storage prune-reports", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var reportDir string
	var catPath string
	var olderThan time.Duration
	var dryRun bool

	fs.StringVar(&reportDir, "report-dir", "", "Report directory (defaults to D8A_REPORT_DIR or D8A_DATA_DIR/reports)")
	fs.StringVar(&catPath, "catalog", "", "Path to the catalog database (defaults to the configured catalog)")
	fs.DurationVar(&olderThan, "older-than", 0, "Also delete reports older than this age, even for known datasets (0 disables)")
	fs.BoolVar(&dryRun, "dry-run", false, "Report what would be deleted without deleting")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if reportDir == "" {
		reportDir = strings.TrimSpace(config.ParseString(config.EnvReportDir, ""))
	}
	if reportDir == "" {
		dataDir := strings.TrimSpace(config.ParseString(config.EnvDataDir, "./data"))
		reportDir = filepath.Join(dataDir, "reports")
	}

	entries, err := os.ReadDir(reportDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read report directory %s: %v\n", reportDir, err)
		return 1
	}

	cat, err := catalog.Open(catalogPath(catPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open catalog: %v\n", err)
		return 1
	}
	defer func() { _ = cat.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	known := make(map[string]bool)
	recs, err := cat.ListDatasets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot list datasets: %v\n", err)
		return 1
	}
	for _, rec := range recs {
		known[rec.ID] = true
	}

	now := time.Now()
	pruned := 0
	kept := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		datasetID := strings.TrimSuffix(name, ".json")
		reason := ""
		switch {
		case !known[datasetID]:
			reason = "orphaned"
		case olderThan > 0:
			info, err := entry.Info()
			if err == nil && now.Sub(info.ModTime()) > olderThan {
				reason = "expired"
			}
		}

		if reason == "" {
			kept++
			continue
		}

		path := filepath.Join(reportDir, name)
		if dryRun {
			fmt.Printf("would prune %s (%s)\n", path, reason)
			pruned++
			continue
		}
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot remove %s: %v\n", path, err)
			return 1
		}
		fmt.Printf("pruned %s (%s)\n", path, reason)
		pruned++
	}

	verb := "pruned"
	if dryRun {
		verb = "would prune"
	}
	fmt.Printf("%s %d report(s), kept %d\n", verb, pruned, kept)
	return 0
}
