package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/config"
	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/output"
	"github.com/bidlens/bidlens/pkg/output/events"
	"github.com/bidlens/bidlens/pkg/output/exitcode"
	"github.com/bidlens/bidlens/pkg/ui"
)

const compareUsageLine = "bidlens compare <id> <id> [...] [flags]"

// runCompare executes the compare command: fetches the selected
// reports, runs the comparison engine, and replays the result through
// the output dispatcher (console matrix plus any configured exports).
func runCompare() {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	src := &SourceFlags{}
	src.Register(fs)
	out := &OutputFlags{}
	out.Register(fs)
	idsFlag := fs.String("ids", "", "Report ids as a comma-separated list (alternative to positional ids)")
	failOnFlags := fs.Bool("fail-on-flags", false, "Exit 1 when the compared reports carry red flags")
	flagThreshold := fs.Int("flag-threshold", 1, "Red flags needed to trip -fail-on-flags")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", compareUsageLine)
		fmt.Fprintf(os.Stderr, "Compare 2-%d bid reports metric by metric: per-metric best/worst\n", defaults.SelectionCap)
		fmt.Fprintf(os.Stderr, "classification, opportunity ranking, and an aggregate summary.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  bidlens compare 1 3\n")
		fmt.Fprintf(os.Stderr, "  bidlens compare 1 3 5 -file reports.json -md-export compare.md\n")
		fmt.Fprintf(os.Stderr, "  bidlens compare -ids 2,4 -fail-on-flags\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	fs.Parse(os.Args[2:])

	applyConfigFile(fs, src, out)
	out.ApplyUISettings()

	distinct, err := selectionFromArgs(fs.Args(), *idsFlag)
	if err != nil {
		exitWithUsage(err.Error(), compareUsageLine)
	}

	source, info, err := src.Build()
	if err != nil {
		exitClassified("Opening report source", err)
	}

	if !out.ShouldSuppressBanner() {
		ui.PrintMiniBanner()
		m := ui.CompareManifest(string(info.Kind), info.Detail, distinct, out.ActiveExports())
		if info.Kind == events.SourceService {
			m.AddConcurrency(src.EffectiveConcurrency(), float64(src.RateLimit))
		}
		m.Print()
		out.PrintOutputConfig()
	}

	d, err := output.BuildDispatcher(out.ToConfig(out.BuildLogger()))
	if err != nil {
		exitWithError("Building output pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fetchCtx, cancel := context.WithTimeout(ctx, duration.ContextFetch)
	defer cancel()

	started := time.Now().UTC()
	result, err := compare.CompareByID(fetchCtx, source, distinct)
	if err != nil {
		_ = output.EmitError(context.Background(), d, "", string(info.Kind), "fetch", err.Error(), true)
		_ = d.Close()
		exitClassified("Comparison failed", err)
	}

	mgr := exitcode.New(exitcode.Config{
		FailOnRedFlags:   *failOnFlags,
		RedFlagThreshold: *flagThreshold,
	})
	mgr.RecordRedFlags(result.Summary.TotalRedFlags)
	if ctx.Err() != nil {
		mgr.SetInterrupted()
	}
	code, reason := mgr.ExitCode()

	// Emit on a fresh context so a late interrupt cannot truncate exports.
	_, err = output.EmitRun(context.Background(), d, result, output.EmitOptions{
		Operation: "compare",
		Source:    info,
		Selection: distinct,
		RunConfig: events.RunConfig{
			Concurrency: src.EffectiveConcurrency(),
			Timeout:     src.EffectiveTimeoutSec(),
			Exports:     out.ActiveExports(),
		},
		StartedAt:  started,
		ExitCode:   int(code),
		ExitReason: reason,
	})
	if err != nil {
		_ = d.Close()
		exitWithError("Writing output: %v", err)
	}

	if err := d.Close(); err != nil {
		exitWithError("Closing output pipeline: %v", err)
	}

	if code != exitcode.Success {
		ui.PrintWarning(reason)
	}
	os.Exit(int(code))
}

// selectionFromArgs merges positional ids with the -ids list, collapses
// duplicates to the first occurrence, and enforces the selection bounds.
func selectionFromArgs(args []string, idsFlag string) ([]int, error) {
	if idsFlag != "" {
		args = append(append([]string(nil), args...), idsFlag)
	}
	ids, err := parseIDArgs(args)
	if err != nil {
		return nil, err
	}

	distinct := compare.DistinctIDs(ids)
	if len(distinct) < defaults.SelectionMin {
		return nil, fmt.Errorf("a comparison needs at least %d distinct report ids (got %d)",
			defaults.SelectionMin, len(distinct))
	}
	if len(distinct) > defaults.SelectionCap {
		return nil, fmt.Errorf("a comparison covers at most %d reports (got %d distinct ids)",
			defaults.SelectionCap, len(distinct))
	}
	return distinct, nil
}

// applyConfigFile loads the -config overlay and applies it to flags
// the command line left unset. out may be nil for commands without
// output flags.
func applyConfigFile(fs *flag.FlagSet, src *SourceFlags, out *OutputFlags) *config.Config {
	cfg, err := src.LoadConfig()
	if err != nil {
		exitClassified("Loading config", err)
	}
	set := setFlags(fs)
	src.Apply(cfg, set)
	if out != nil {
		out.Apply(cfg, set)
	}
	return cfg
}
