// Command cli is the bidlens command line interface: comparison and
// opportunity ranking of bid analysis reports, with exports, run
// history, and an MCP server for agent integrations.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/ui"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "compare":
		runCompare()
	case "rank":
		runRank()
	case "list":
		runList()
	case "show":
		runShow()
	case "history":
		runHistory()
	case "mcp":
		runMCP()
	case "version", "-v", "--version":
		ui.PrintMiniBanner()
		os.Exit(0)
	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)
	default:
		ui.PrintError(fmt.Sprintf("Unknown command: %s", os.Args[1]))
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(2)
	}
}

// printUsage renders the top-level help screen to stderr.
func printUsage() {
	ui.PrintBanner()

	fmt.Fprintln(os.Stderr, ui.SectionStyle.Render("USAGE"))
	fmt.Fprintf(os.Stderr, "  %s <command> [flags]\n\n", defaults.ToolName)

	fmt.Fprintln(os.Stderr, ui.SectionStyle.Render("COMMANDS"))
	printCommandLine("compare <id> <id> [...]", "Compare 2-5 bid reports metric by metric")
	printCommandLine("rank", "Score and rank reports (all, filtered, or by id)")
	printCommandLine("list", "List the reports available at the source")
	printCommandLine("show <id>", "Show a single report in full detail")
	printCommandLine("history", "Browse archived comparison runs")
	printCommandLine("mcp", "Serve the analysis tools over MCP (stdio or HTTP)")
	printCommandLine("version", "Print version information")
	printCommandLine("help", "Show this help")
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, ui.SectionStyle.Render("REPORT SOURCES"))
	printCommandLine("-service <url>", "Reporting service base URL (default "+defaults.ServiceBaseURL+")")
	printCommandLine("-file <path>", "Local JSON report file instead of the service")
	printCommandLine("-config <path>", "YAML file supplying flag defaults")
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, ui.SectionStyle.Render("EXAMPLES"))
	printExampleLine("bidlens compare 1 3", "Compare reports 1 and 3")
	printExampleLine("bidlens compare 1 3 5 -json-export run.json", "Compare three reports, export JSON")
	printExampleLine("bidlens rank -filter 'risk_score < 5'", "Rank every low-risk report")
	printExampleLine("bidlens list -file reports.json", "List reports from a local file")
	printExampleLine("bidlens history trend 3", "Score history of report 3")
	printExampleLine("bidlens mcp -http :8080", "Serve the MCP tools over HTTP")
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, ui.SectionStyle.Render("EXIT CODES"))
	printCommandLine("0", "Run completed")
	printCommandLine("1", "Red flags detected (-fail-on-flags)")
	printCommandLine("2", "Usage error: bad selection, unknown report, bad config")
	printCommandLine("3", "Report source unreachable or malformed")
	printCommandLine("4", "Runtime error")
	printCommandLine("5", "Run interrupted")
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, ui.HelpStyle.Render("  Run 'bidlens <command> -h' for command flags."))
	fmt.Fprintln(os.Stderr)
}

func printCommandLine(name, desc string) {
	fmt.Fprintf(os.Stderr, "  %-38s %s\n",
		ui.ConfigValueStyle.Render(name),
		ui.SubtitleStyle.Render(desc))
}

func printExampleLine(example, desc string) {
	fmt.Fprintf(os.Stderr, "  %-48s %s\n",
		ui.AccentStyle.Render(example),
		ui.SubtitleStyle.Render(desc))
}

// parseIDArgs converts positional arguments into report ids. Tokens may
// be separated by spaces, commas, or both ("1 3", "1,3", "1, 3").
func parseIDArgs(args []string) ([]int, error) {
	var ids []int
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("report id %q is not a number", part)
			}
			if id <= 0 {
				return nil, fmt.Errorf("report id %d must be positive", id)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
