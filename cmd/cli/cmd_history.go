package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bidlens/bidlens/pkg/config"
	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/history"
	"github.com/bidlens/bidlens/pkg/jsonutil"
	"github.com/bidlens/bidlens/pkg/ui"
)

// defaultHistoryDir is the conventional archive location when neither
// the -path flag nor a config file names one.
const defaultHistoryDir = ".bidlens/history"

const historyUsageLine = "bidlens history [list|show <run-id>|trend <report-id>|prune|stats] [flags]"

// runHistory executes the history subcommand: browsing, inspecting, and
// maintaining the on-disk archive of past comparison runs.
func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)

	pathFlag := fs.String("path", "", "Archive directory (default "+defaultHistoryDir+")")
	configPath := fs.String("config", "", "YAML config file supplying the archive path")
	limit := fs.Int("limit", defaults.HistoryListDefault, "Runs to list / trend points to show")
	keep := fs.Int("keep", defaults.HistoryKeepDefault, "Runs to keep when pruning")
	jsonOut := fs.Bool("json", false, "Print results as JSON to stdout")
	noColor := fs.Bool("no-color", false, "Disable colored output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", historyUsageLine)
		fmt.Fprintf(os.Stderr, "Browse and maintain the archive of past comparison runs.\n\n")
		fmt.Fprintf(os.Stderr, "Actions:\n")
		fmt.Fprintf(os.Stderr, "  list                 List archived runs, newest first (default)\n")
		fmt.Fprintf(os.Stderr, "  show <run-id>        Show one run; accepts 'latest' or a unique id prefix\n")
		fmt.Fprintf(os.Stderr, "  trend <report-id>    Show how one report scored across runs\n")
		fmt.Fprintf(os.Stderr, "  prune                Delete old runs, keeping the newest -keep\n")
		fmt.Fprintf(os.Stderr, "  stats                Summarize the archive\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  bidlens history\n")
		fmt.Fprintf(os.Stderr, "  bidlens history show latest\n")
		fmt.Fprintf(os.Stderr, "  bidlens history trend 3 -limit 10\n")
		fmt.Fprintf(os.Stderr, "  bidlens history prune -keep 25\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	action, target, rest := splitHistoryArgs(os.Args[2:])
	fs.Parse(rest)
	if fs.NArg() > 0 {
		exitWithUsage(fmt.Sprintf("Unexpected arguments after flags: %s.", strings.Join(fs.Args(), " ")), historyUsageLine)
	}
	if *noColor {
		ui.SetNoColor(true)
	}

	dir := resolveHistoryDir(*pathFlag, *configPath)
	store, err := history.Open(dir)
	if err != nil {
		exitClassified("Opening archive", err)
	}

	switch action {
	case "list":
		historyList(store, *limit, *jsonOut, dir)
	case "show":
		historyShow(store, target, *jsonOut)
	case "trend":
		historyTrend(store, target, *limit, *jsonOut)
	case "prune":
		historyPrune(store, *keep, *jsonOut)
	case "stats":
		historyStats(store, *jsonOut)
	default:
		exitWithUsage(fmt.Sprintf("Unknown history action %q.", action), historyUsageLine)
	}
}

// splitHistoryArgs separates the leading action word and its positional
// target from the flags that follow. The action defaults to list so a
// bare "bidlens history" works.
func splitHistoryArgs(args []string) (action, target string, flags []string) {
	action = "list"
	rest := args
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		action = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		target = rest[0]
		rest = rest[1:]
	}
	return action, target, rest
}

// resolveHistoryDir picks the archive location: explicit flag first,
// then the config file's history.path, then the built-in default.
func resolveHistoryDir(flagPath, configPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			exitClassified("Loading config", err)
		}
		if cfg.History.Path != "" {
			return cfg.History.Path
		}
	}
	return defaultHistoryDir
}

func historyList(store *history.Store, limit int, jsonOut bool, dir string) {
	entries := store.List(limit)
	if jsonOut {
		printJSON(entries)
		return
	}

	ui.PrintMiniBanner()
	ui.PrintSection("Archived Runs")
	if len(entries) == 0 {
		ui.PrintInfo(fmt.Sprintf("No archived runs in %s yet.", dir))
		ui.PrintHelp("Archive one with: bidlens compare 1 3 -history-path " + dir)
		return
	}
	for _, e := range entries {
		ui.Printf("%s\n", formatHistoryLine(e))
	}
	fmt.Fprintln(os.Stderr)
	ui.PrintConfigLine("Archive", dir)
	ui.PrintConfigLine("Showing", fmt.Sprintf("%d of %d runs", len(entries), store.Stats().Runs))
}

func historyShow(store *history.Store, target string, jsonOut bool) {
	rec, err := loadRecord(store, target)
	if err != nil {
		exitClassified("Loading run", err)
	}
	if jsonOut {
		printJSON(rec)
		return
	}

	ui.PrintMiniBanner()
	ui.PrintSection("Run " + shortRunID(rec.RunID))
	ui.PrintConfigLine("Run ID", rec.RunID)
	ui.PrintConfigLine("Archived", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	ui.PrintConfigLine("Reports", strings.Trim(fmt.Sprint(rec.ReportIDs), "[]"))
	ui.PrintConfigLine("Fingerprint", rec.Fingerprint)
	if len(rec.Tags) > 0 {
		ui.PrintConfigLine("Tags", strings.Join(rec.Tags, ", "))
	}

	if rec.Result != nil {
		ui.PrintSection("Ranking")
		for _, sr := range rec.Result.Ranking {
			ui.Printf("%s\n", ui.FormatRankLine(sr.Rank, sr.Report, sr.Score, sr.Report.ID == rec.BestReportID))
		}
	}

	ui.PrintSection("Aggregates")
	ui.PrintConfigLine("Avg Risk", ui.FormatRisk(rec.AvgRisk))
	ui.PrintConfigLine("Avg Budget", ui.FormatMoney(rec.AvgBudget))
	ui.PrintConfigLine("Red Flags", strconv.Itoa(rec.TotalRedFlags))
}

func historyTrend(store *history.Store, target string, limit int, jsonOut bool) {
	const trendUsage = "bidlens history trend <report-id> [flags]"
	if target == "" {
		exitWithUsage("trend needs a report id.", trendUsage)
	}
	reportID, err := strconv.Atoi(target)
	if err != nil || reportID <= 0 {
		exitWithUsage(fmt.Sprintf("Report id %q is not a positive number.", target), trendUsage)
	}

	points, err := store.Trend(reportID, limit)
	if err != nil {
		exitClassified("Loading trend", err)
	}
	if jsonOut {
		printJSON(points)
		return
	}

	ui.PrintMiniBanner()
	ui.PrintSection(fmt.Sprintf("Score Trend for Report %d", reportID))
	if len(points) == 0 {
		ui.PrintInfo(fmt.Sprintf("Report %d has no archived runs.", reportID))
		return
	}
	for i, p := range points {
		delta := ui.StatLabelStyle.Render("      ")
		if i > 0 {
			delta = formatScoreDelta(p.Score - points[i-1].Score)
		}
		marker := " "
		if p.Best {
			marker = ui.BestStyle.Render("*")
		}
		ui.Printf("  %s  %s  rank %s  score %s  %s %s\n",
			ui.StatValueStyle.Render(shortRunID(p.RunID)),
			ui.StatLabelStyle.Render(p.CreatedAt.Local().Format("2006-01-02 15:04")),
			ui.ConfigValueStyle.Render(strconv.Itoa(p.Rank)),
			ui.StatValueStyle.Render(ui.FormatScore(p.Score)),
			delta, marker)
	}
	fmt.Fprintln(os.Stderr)
	ui.PrintHelp("* best opportunity of its run. Scores are lower-is-better.")
}

func historyPrune(store *history.Store, keep int, jsonOut bool) {
	removed, err := store.Prune(keep)
	if err != nil {
		exitClassified("Pruning archive", err)
	}
	if jsonOut {
		printJSON(map[string]int{"removed": removed, "kept": store.Stats().Runs})
		return
	}
	if removed == 0 {
		ui.PrintInfo(fmt.Sprintf("Nothing to prune; archive has %d run(s).", store.Stats().Runs))
		return
	}
	ui.PrintSuccess(fmt.Sprintf("Pruned %d run(s), kept the newest %d.", removed, store.Stats().Runs))
}

func historyStats(store *history.Store, jsonOut bool) {
	stats := store.Stats()
	if jsonOut {
		printJSON(stats)
		return
	}

	ui.PrintMiniBanner()
	ui.PrintSection("Archive Stats")
	ui.PrintConfigLine("Location", store.Dir())
	ui.PrintConfigLine("Runs", strconv.Itoa(stats.Runs))
	ui.PrintConfigLine("Distinct Reports", strconv.Itoa(stats.DistinctReports))
	if stats.Runs > 0 {
		ui.PrintConfigLine("Oldest", stats.Oldest.Local().Format("2006-01-02 15:04"))
		ui.PrintConfigLine("Newest", stats.Newest.Local().Format("2006-01-02 15:04"))
	}
	ui.PrintConfigLine("Disk", formatBytes(stats.DiskBytes))
}

// loadRecord resolves target ("latest", empty, a full run id, or a
// unique id prefix) to an archived record.
func loadRecord(store *history.Store, target string) (*history.Record, error) {
	if target == "" || target == "latest" {
		return store.Latest()
	}
	rec, err := store.Get(target)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, history.ErrRunNotFound) {
		return nil, err
	}
	id, err := resolveRunID(store.List(store.Stats().Runs), target)
	if err != nil {
		return nil, err
	}
	return store.Get(id)
}

// resolveRunID matches target as a run id prefix over the archive
// index. Anything other than exactly one match is an error.
func resolveRunID(entries []history.IndexEntry, target string) (string, error) {
	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.RunID, target) {
			matches = append(matches, e.RunID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("%w: %s", history.ErrRunNotFound, target)
	default:
		return "", fmt.Errorf("%w: prefix %q matches %d runs", history.ErrRunNotFound, target, len(matches))
	}
}

// formatHistoryLine renders one archived run as a listing row.
func formatHistoryLine(e history.IndexEntry) string {
	var parts []string
	parts = append(parts, ui.StatValueStyle.Render(shortRunID(e.RunID)))
	parts = append(parts, ui.StatLabelStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")))
	parts = append(parts, ui.StatLabelStyle.Render("reports ")+ui.ConfigValueStyle.Render(strings.Trim(fmt.Sprint(e.ReportIDs), "[]")))
	parts = append(parts, ui.StatLabelStyle.Render("best ")+ui.ProjectStyle.Render(e.BestProject)+ui.StatLabelStyle.Render(" (score "+ui.FormatScore(e.BestScore)+")"))
	if e.TotalRedFlags > 0 {
		parts = append(parts, ui.WarnStyle.Render(fmt.Sprintf("%d flag(s)", e.TotalRedFlags)))
	}
	if len(e.Tags) > 0 {
		parts = append(parts, ui.BracketStyle.Render("["+strings.Join(e.Tags, " ")+"]"))
	}
	return "  " + strings.Join(parts, "  ")
}

// formatScoreDelta renders the score change against the previous run.
// Scores are lower-is-better, so an increase renders as a regression.
func formatScoreDelta(d float64) string {
	switch {
	case d > 0:
		return ui.WorstStyle.Render("+" + ui.FormatScore(d))
	case d < 0:
		return ui.BestStyle.Render(ui.FormatScore(d))
	default:
		return ui.StatLabelStyle.Render("=")
	}
}

// shortRunID returns the first UUID segment, enough to identify a run
// in listings and to paste back into 'history show'.
func shortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// formatBytes renders a byte count in a human unit.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		exitWithError("Marshaling JSON: %v", err)
	}
	fmt.Println(string(data))
}
