package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/filter"
	"github.com/bidlens/bidlens/pkg/output"
	"github.com/bidlens/bidlens/pkg/output/events"
	"github.com/bidlens/bidlens/pkg/output/exitcode"
	"github.com/bidlens/bidlens/pkg/ui"
)

const rankUsageLine = "bidlens rank [-filter <expr>] [-ids <id,id,...>] [flags]"

// runRank executes the rank command: scores every report the source
// and filter select, ranks them by composite opportunity score, and
// replays the run through the output dispatcher.
func runRank() {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	src := &SourceFlags{}
	src.Register(fs)
	out := &OutputFlags{}
	out.Register(fs)
	filterExpr := fs.String("filter", "", "Filter expression over report fields (see 'bidlens list -fields')")
	idsFlag := fs.String("ids", "", "Rank only these report ids (comma-separated)")
	failOnFlags := fs.Bool("fail-on-flags", false, "Exit 1 when the ranked reports carry red flags")
	flagThreshold := fs.Int("flag-threshold", 1, "Red flags needed to trip -fail-on-flags")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", rankUsageLine)
		fmt.Fprintf(os.Stderr, "Score and rank reports by composite opportunity score (lower is\n")
		fmt.Fprintf(os.Stderr, "better). Ranks the whole catalog unless -filter or -ids narrows it.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  bidlens rank\n")
		fmt.Fprintf(os.Stderr, "  bidlens rank -filter 'risk_score < 5 && recommendation != \"NO\"'\n")
		fmt.Fprintf(os.Stderr, "  bidlens rank -ids 1,3,5 -csv-export ranking.csv\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	fs.Parse(os.Args[2:])

	applyConfigFile(fs, src, out)
	out.ApplyUISettings()

	// Compile the filter before touching the network so a typo fails fast.
	var expr *filter.Expr
	if *filterExpr != "" {
		var err error
		expr, err = filter.Compile(*filterExpr)
		if err != nil {
			exitWithUsage(
				fmt.Sprintf("Invalid filter expression: %v. Available fields: %s.",
					err, strings.Join(filter.Fields(), ", ")),
				rankUsageLine)
		}
	}

	var ids []int
	if *idsFlag != "" {
		var err error
		ids, err = parseIDArgs([]string{*idsFlag})
		if err != nil {
			exitWithUsage(err.Error(), rankUsageLine)
		}
	}

	source, info, err := src.Build()
	if err != nil {
		exitClassified("Opening report source", err)
	}

	if !out.ShouldSuppressBanner() {
		ui.PrintMiniBanner()
		m := ui.RankManifest(string(info.Kind), info.Detail, *filterExpr, out.ActiveExports())
		if len(ids) > 0 {
			m.AddSelection(compare.DistinctIDs(ids))
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
	fetchCtx, cancel := context.WithTimeout(ctx, duration.ContextBulk)
	defer cancel()

	started := time.Now().UTC()

	var reports []bidreport.Report
	if len(ids) > 0 {
		reports, err = source.ReportsByID(fetchCtx, compare.DistinctIDs(ids))
	} else {
		reports, err = source.List(fetchCtx)
	}
	if err != nil {
		_ = output.EmitError(context.Background(), d, "", string(info.Kind), "fetch", err.Error(), true)
		_ = d.Close()
		exitClassified("Fetching reports", err)
	}

	if expr != nil {
		reports, err = expr.Filter(reports)
		if err != nil {
			_ = output.EmitError(context.Background(), d, "", string(info.Kind), "filter", err.Error(), true)
			_ = d.Close()
			exitClassified("Applying filter", err)
		}
	}

	// The comparison engine produces the ranking plus the matrix and
	// summary the writers render. It needs two reports to rank against
	// each other; anything less is a selection problem.
	result, err := compare.Compare(reports)
	if err != nil {
		_ = output.EmitError(context.Background(), d, "", string(info.Kind), "rank", err.Error(), true)
		_ = d.Close()
		exitClassified(fmt.Sprintf("Ranking needs at least 2 reports (got %d)", len(reports)), err)
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

	_, err = output.EmitRun(context.Background(), d, result, output.EmitOptions{
		Operation: "rank",
		Source:    info,
		RunConfig: events.RunConfig{
			Concurrency: src.EffectiveConcurrency(),
			Timeout:     src.EffectiveTimeoutSec(),
			Filter:      *filterExpr,
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
