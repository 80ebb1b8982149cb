// Command extract-stats reads a saved weapon-stat HTML page, extracts one
// attribute record per weapon, and writes two JSON artifacts: compact and
// pretty-printed.
//
// Usage (default file names):
//
//	extract-stats
//
// Usage (explicit paths, stdin input):
//
//	cat page.html | extract-stats -input - -out weapons.json -pretty-out weapons_pretty.json
//
// Debug (print outer HTML blocks for a selector):
//
//	extract-stats -input page.html -selector "table.sortable"
//
// Optional sinks:
//
//	extract-stats -storage-kind sqlite -storage-dsn stats.db
//	extract-stats -metrics-backend datadog
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"weaponstats/internal/extract"
	"weaponstats/internal/jsonout"
	"weaponstats/internal/metrics"
	"weaponstats/internal/metrics/datadog"
	"weaponstats/internal/stats"
	"weaponstats/internal/storage"

	// Register all storage backends; -storage-kind picks one at runtime.
	_ "weaponstats/internal/storage/all"
)

// backendCloser is the minimal interface this command needs from a metrics
// backend.
type backendCloser interface {
	metrics.Backend
	Close() error
}

// deps are external seams for testability.
type deps struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	NewRepo    func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
	NewMetrics func(ctx context.Context, jobName string, tags []string) (backendCloser, error)
	Now        func() time.Time
}

// main wires real dependencies and exits with run's code.
func main() {
	os.Exit(run(context.Background(), os.Args[1:], deps{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		NewRepo: storage.New,
		NewMetrics: func(ctx context.Context, jobName string, tags []string) (backendCloser, error) {
			return datadog.NewBackend(ctx, datadog.Options{JobName: jobName, Tags: tags})
		},
		Now: time.Now,
	}))
}

// run executes the command and returns a Unix-style exit code:
//   - 0 success
//   - 1 operational/runtime errors (unreadable input, failed writes)
//   - 2 usage/config errors
func run(ctx context.Context, args []string, d deps) int {
	if d.Stdout == nil {
		d.Stdout = io.Discard
	}
	if d.Stderr == nil {
		d.Stderr = io.Discard
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	fs := flag.NewFlagSet("extract-stats", flag.ContinueOnError)
	fs.SetOutput(d.Stderr)

	input := fs.String("input", "stats.html", "HTML stat page to read (\"-\" for stdin)")
	outPath := fs.String("out", "weapon_data.json", "compact JSON output path")
	prettyPath := fs.String("pretty-out", "weapon_data_pretty.json", "pretty JSON output path")
	debugSelector := fs.String("selector", "", "Debug: CSS selector to print matches for (no extraction)")
	onlyText := fs.Bool("text", false, "Debug: print text instead of HTML for -selector matches")
	storageKind := fs.String("storage-kind", "", "optional snapshot sink: sqlite, postgres, or mssql")
	storageDSN := fs.String("storage-dsn", "", "DSN for -storage-kind")
	metricsBackend := fs.String("metrics-backend", "none", "metrics backend: none or datadog")
	verbose := fs.Bool("v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *storageKind != "" && *storageDSN == "" {
		fmt.Fprintln(d.Stderr, "missing -storage-dsn for -storage-kind")
		return 2
	}

	html, err := extract.Load(extract.Input{Path: *input, Stdin: d.Stdin})
	if err != nil {
		fmt.Fprintf(d.Stderr, "load html: %v\n", err)
		return 1
	}

	// Debug selector mode inspects the page and skips extraction entirely.
	if *debugSelector != "" {
		if err := extract.InspectSelector(d.Stdout, html, *debugSelector, *onlyText); err != nil {
			fmt.Fprintf(d.Stderr, "debug selector: %v\n", err)
			return 1
		}
		return 0
	}

	switch *metricsBackend {
	case "datadog":
		if d.NewMetrics == nil {
			fmt.Fprintln(d.Stderr, "internal error: NewMetrics is nil")
			return 2
		}
		b, err := d.NewMetrics(ctx, "extract_stats", datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")))
		if err != nil {
			fmt.Fprintf(d.Stderr, "metrics: failed to init datadog backend: %v; using nop\n", err)
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := b.Close(); err != nil {
					fmt.Fprintf(d.Stderr, "metrics: close/flush error: %v\n", err)
				}
			}()
		}
	case "", "none":
		// nop backend remains
	default:
		fmt.Fprintf(d.Stderr, "metrics: unknown backend %q; metrics disabled\n", *metricsBackend)
	}

	start := d.Now()

	set, rep, err := extract.Extract(html)
	if err != nil {
		fmt.Fprintf(d.Stderr, "extract: %v\n", err)
		return 1
	}

	metrics.RecordWeapons("extracted", rep.Weapons)
	metrics.RecordWeapons("skipped_no_name", rep.SkippedNoName)
	metrics.RecordWeapons("overwritten", rep.Overwritten)
	metrics.RecordMissingFields(rep.MissingFields)

	if *verbose {
		fmt.Fprintf(d.Stderr, "extracted %d weapons (%d skipped without name, %d overwritten, %d fields missing)\n",
			rep.Weapons, rep.SkippedNoName, rep.Overwritten, rep.MissingFields)
	}
	if rep.SkippedNoName > 0 {
		fmt.Fprintf(d.Stderr, "warning: %d weapon blocks had no name and were skipped\n", rep.SkippedNoName)
	}
	if rep.Overwritten > 0 {
		fmt.Fprintf(d.Stderr, "warning: %d duplicate weapon names overwritten (last block wins)\n", rep.Overwritten)
	}

	// Both artifacts are always attempted; a failure on one never blocks
	// the other.
	failed := 0
	if b, err := jsonout.Compact(set); err != nil {
		fmt.Fprintf(d.Stderr, "render compact json: %v\n", err)
		failed++
	} else if err := jsonout.Persist(*outPath, b); err != nil {
		fmt.Fprintf(d.Stderr, "%v\n", err)
		metrics.RecordWriteError("compact")
		failed++
	}
	if b, err := jsonout.Pretty(set); err != nil {
		fmt.Fprintf(d.Stderr, "render pretty json: %v\n", err)
		failed++
	} else if err := jsonout.Persist(*prettyPath, b); err != nil {
		fmt.Fprintf(d.Stderr, "%v\n", err)
		metrics.RecordWriteError("pretty")
		failed++
	}

	if *storageKind != "" {
		if err := archiveSnapshot(ctx, d, storage.Config{Kind: *storageKind, DSN: *storageDSN}, set, *verbose); err != nil {
			fmt.Fprintf(d.Stderr, "storage: %v\n", err)
			failed++
		}
	}

	metrics.ObserveRunDuration(d.Now().Sub(start).Seconds())

	if failed > 0 {
		return 1
	}
	return 0
}

// archiveSnapshot writes the extracted set into the configured SQL sink.
// Sink failures are reported to the caller but never roll back the JSON
// artifacts, which have already been written.
func archiveSnapshot(ctx context.Context, d deps, cfg storage.Config, set *stats.WeaponSet, verbose bool) error {
	newRepo := d.NewRepo
	if newRepo == nil {
		newRepo = storage.New
	}

	repo, err := newRepo(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Kind, err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	rows, err := storage.RowsFromSet(set, d.Now())
	if err != nil {
		return err
	}
	n, err := repo.UpsertWeapons(ctx, rows)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(d.Stderr, "storage: archived %d weapons to %s\n", n, cfg.Kind)
	}
	return nil
}
