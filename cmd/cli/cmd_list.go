package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/filter"
	"github.com/bidlens/bidlens/pkg/jsonutil"
	"github.com/bidlens/bidlens/pkg/ui"
)

const listUsageLine = "bidlens list [-filter <expr>] [flags]"

// runList executes the list command: one line per report to stdout,
// optionally narrowed by a filter expression. Chrome goes to stderr so
// piped output stays clean.
func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	src := &SourceFlags{}
	src.Register(fs)
	filterExpr := fs.String("filter", "", "Filter expression over report fields")
	jsonOut := fs.Bool("json", false, "Print the reports as a JSON array to stdout")
	showFields := fs.Bool("fields", false, "List the fields filter expressions can use")
	silent := fs.Bool("silent", false, "Suppress the banner and headers")
	noColor := fs.Bool("no-color", false, "Disable colored output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", listUsageLine)
		fmt.Fprintf(os.Stderr, "List the reports available at the source.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  bidlens list\n")
		fmt.Fprintf(os.Stderr, "  bidlens list -filter 'budget_max >= 1e6 && risk_score < 5'\n")
		fmt.Fprintf(os.Stderr, "  bidlens list -file reports.json -json > catalog.json\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	fs.Parse(os.Args[2:])

	if *showFields {
		for _, f := range filter.Fields() {
			fmt.Println(f)
		}
		return
	}

	applyConfigFile(fs, src, nil)
	if *silent {
		ui.SetSilent(true)
	}
	if *noColor {
		ui.SetNoColor(true)
	}

	var expr *filter.Expr
	if *filterExpr != "" {
		var err error
		expr, err = filter.Compile(*filterExpr)
		if err != nil {
			exitWithUsage(
				fmt.Sprintf("Invalid filter expression: %v. Available fields: %s.",
					err, strings.Join(filter.Fields(), ", ")),
				listUsageLine)
		}
	}

	source, info, err := src.Build()
	if err != nil {
		exitClassified("Opening report source", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	listCtx, cancel := context.WithTimeout(ctx, duration.ContextBulk)
	defer cancel()

	reports, err := source.List(listCtx)
	if err != nil {
		exitClassified("Listing reports", err)
	}
	if expr != nil {
		reports, err = expr.Filter(reports)
		if err != nil {
			exitClassified("Applying filter", err)
		}
	}

	if *jsonOut {
		data, err := jsonutil.MarshalIndent(reports, "", "  ")
		if err != nil {
			exitWithError("Marshaling reports: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	if !*silent {
		ui.PrintMiniBanner()
		ui.PrintSection("Reports from " + info.Detail)
	}

	if len(reports) == 0 {
		if *filterExpr != "" {
			ui.PrintInfo("No reports match the filter.")
		} else {
			ui.PrintInfo("The source has no reports.")
		}
		return
	}

	for _, r := range reports {
		ui.Printf("%s\n", ui.FormatReportLine(r))
	}

	if !*silent {
		fmt.Fprintln(os.Stderr)
		ui.PrintConfigLine("Total", strconv.Itoa(len(reports)))
		if *filterExpr != "" {
			ui.PrintConfigLine("Filter", *filterExpr)
		}
	}
}
