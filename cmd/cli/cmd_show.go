package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/jsonutil"
	"github.com/bidlens/bidlens/pkg/scoring"
	"github.com/bidlens/bidlens/pkg/ui"
)

const showUsageLine = "bidlens show <id> [flags]"

// runShow executes the show command: fetches one report and renders
// the full detail panel with its opportunity score.
func runShow() {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	src := &SourceFlags{}
	src.Register(fs)
	jsonOut := fs.Bool("json", false, "Print the report and its score as JSON")
	noColor := fs.Bool("no-color", false, "Disable colored output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", showUsageLine)
		fmt.Fprintf(os.Stderr, "Show a single report in full detail: budget, duration, risk,\n")
		fmt.Fprintf(os.Stderr, "red flags, and the composite opportunity score.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  bidlens show 3\n")
		fmt.Fprintf(os.Stderr, "  bidlens show 3 -file reports.json -json\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	fs.Parse(os.Args[2:])

	applyConfigFile(fs, src, nil)
	if *noColor {
		ui.SetNoColor(true)
	}

	ids, err := parseIDArgs(fs.Args())
	if err != nil {
		exitWithUsage(err.Error(), showUsageLine)
	}
	if len(ids) != 1 {
		exitWithUsage(fmt.Sprintf("show takes exactly one report id (got %d)", len(ids)), showUsageLine)
	}

	source, _, err := src.Build()
	if err != nil {
		exitClassified("Opening report source", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fetchCtx, cancel := context.WithTimeout(ctx, duration.ContextFetch)
	defer cancel()

	report, err := source.Report(fetchCtx, ids[0])
	if err != nil {
		exitClassified("Fetching report", err)
	}
	score := scoring.Score(report)

	if *jsonOut {
		detail := struct {
			Report *bidreport.Report `json:"report"`
			Score  float64           `json:"score"`
		}{report, score}
		data, err := jsonutil.MarshalIndent(detail, "", "  ")
		if err != nil {
			exitWithError("Marshaling report: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	ui.PrintMiniBanner()
	ui.Printf("%s", ui.FormatReportPanel(*report))
	ui.Printf("    %s %s %s\n",
		ui.ConfigLabelStyle.Render("Score:"),
		ui.StatValueStyle.Render(ui.FormatScore(score)),
		ui.SubtitleStyle.Render("(lower is better)"))
	fmt.Println()
}
