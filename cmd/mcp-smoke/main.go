// Command mcp-smoke exercises the MCP server end to end: it spawns the
// CLI's mcp command over streamable HTTP, connects a real client, and
// drives every tool through positive, negative, and multi-turn agent
// scenarios against a known three-report catalog.
//
// Usage:
//
//	go run ./cmd/mcp-smoke
//	go run ./cmd/mcp-smoke -scenario comparison_engine
//	go run ./cmd/mcp-smoke -live -service http://localhost:8420
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// scenarioResult tracks the outcome of a single scenario.
type scenarioResult struct {
	name   string
	passed bool
	err    error
}

// scenario is a named test function that runs against a live MCP session.
type scenario struct {
	name string
	live bool // requires a reachable reporting service (skipped without -live)
	fn   func(ctx context.Context, s *mcp.ClientSession, service string) error
}

// fixtureReports is the catalog every scenario runs against. Report 1
// wins every metric, report 2 loses every metric, report 3 sits between
// them. Composite scores: 1 → 0, 3 → 45, 2 → 125.
const fixtureReports = `[
  {
    "id": 1,
    "project": "Harbor Expansion",
    "client": "Port Authority",
    "location": "Rotterdam",
    "budget_min": 1000000,
    "budget_max": 5000000,
    "duration_months": 10,
    "risk_score": 2.0,
    "risk_level": "Low",
    "recommendation": "YES",
    "risk_assessment": {}
  },
  {
    "id": 2,
    "project": "Tunnel Retrofit",
    "client": "Transit Board",
    "location": "Lyon",
    "budget_min": 2000000,
    "budget_max": 3000000,
    "duration_months": 18,
    "risk_score": 6.5,
    "risk_level": "High",
    "recommendation": "NO",
    "risk_assessment": {
      "red_flags": ["unsigned contract addendum", "missing insurance certificate"],
      "notes": "Subcontractor history is thin."
    }
  },
  {
    "id": 3,
    "project": "Metro Station Upgrade",
    "client": "City Works",
    "location": "Warsaw",
    "budget_min": 1500000,
    "budget_max": 4000000,
    "duration_months": 14,
    "risk_score": 4.0,
    "risk_level": "Medium",
    "recommendation": "MAYBE",
    "risk_assessment": {
      "red_flags": ["pending zoning approval"]
    }
  }
]`

// livePort is where the live scenario spawns its service-backed server.
var livePort int

func main() {
	var (
		port    = flag.Int("port", 18019, "MCP HTTP port")
		service = flag.String("service", "http://localhost:8420", "Reporting service URL for live scenarios")
		timeout = flag.Duration("timeout", 90*time.Second, "Overall timeout")
		live    = flag.Bool("live", false, "Enable live scenarios that hit a real reporting service")
		runOnly = flag.String("scenario", "", "Run only this named scenario")
	)
	flag.Parse()
	log.SetFlags(0)
	livePort = *port + 1

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fixture, err := writeFixture()
	if err != nil {
		log.Fatalf("FATAL fixture: %v", err)
	}
	defer os.Remove(fixture)

	serverCmd, err := startServer(ctx, *port, fixture)
	if err != nil {
		log.Fatalf("FATAL start_server: %v", err)
	}
	defer stopServer(serverCmd)

	if err := waitForHealth(ctx, *port); err != nil {
		log.Fatalf("FATAL health_check: %v", err)
	}
	fmt.Println("server: healthy")

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-smoke", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: fmt.Sprintf("http://127.0.0.1:%d/mcp", *port),
	}, nil)
	if err != nil {
		log.Fatalf("FATAL connect: %v", err)
	}
	defer session.Close()

	scenarios := allScenarios()

	var results []scenarioResult
	for _, sc := range scenarios {
		if *runOnly != "" && sc.name != *runOnly {
			continue
		}
		if sc.live && !*live {
			results = append(results, scenarioResult{name: sc.name, passed: true, err: fmt.Errorf("SKIP (needs -live)")})
			fmt.Printf("SKIP  %s\n", sc.name)
			continue
		}

		err := sc.fn(ctx, session, *service)
		passed := err == nil
		results = append(results, scenarioResult{name: sc.name, passed: passed, err: err})

		if passed {
			fmt.Printf("PASS  %s\n", sc.name)
		} else {
			fmt.Printf("FAIL  %s: %v\n", sc.name, err)
		}
	}

	// Summary.
	passed, failed, skipped := 0, 0, 0
	for _, r := range results {
		if r.err != nil && strings.HasPrefix(r.err.Error(), "SKIP") {
			skipped++
		} else if r.passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Printf("\n--- %d passed, %d failed, %d skipped ---\n", passed, failed, skipped)
	if failed > 0 {
		os.Exit(1)
	}
}

// allScenarios returns every smoke scenario in execution order.
func allScenarios() []scenario {
	return []scenario{
		// Surface area verification.
		{"tool_discovery", false, scenarioToolDiscovery},

		// Individual tool validation (positive + negative for each).
		{"report_catalog", false, scenarioReportCatalog},
		{"report_detail", false, scenarioReportDetail},
		{"comparison_engine", false, scenarioComparisonEngine},
		{"comparison_selection_rules", false, scenarioComparisonSelectionRules},
		{"opportunity_ranking", false, scenarioOpportunityRanking},
		{"ranking_filters", false, scenarioRankingFilters},
		{"error_handling", false, scenarioErrorHandling},

		// Agent simulations — multi-turn workflows that mimic real AI agents.
		{"agent_bid_analyst", false, agentBidAnalyst},
		{"agent_risk_reviewer", false, agentRiskReviewer},

		// Live (requires a reachable reporting service).
		{"service_catalog", true, scenarioServiceCatalog},
	}
}

// ---------------------------------------------------------------------------
// tool_discovery — verifies every tool exists with metadata, plus
// negative: a nonexistent tool must fail.
// ---------------------------------------------------------------------------

func scenarioToolDiscovery(ctx context.Context, s *mcp.ClientSession, _ string) error {
	tools, err := s.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("ListTools: %w", err)
	}

	expected := []string{"list_reports", "get_report", "compare_reports", "rank_reports"}
	found := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		found[tool.Name] = true
		if tool.Description == "" {
			return fmt.Errorf("tool %s has no description", tool.Name)
		}
		if tool.InputSchema == nil {
			return fmt.Errorf("tool %s has no input schema", tool.Name)
		}
		if tool.Annotations == nil {
			return fmt.Errorf("tool %s has no annotations", tool.Name)
		}
	}
	for _, name := range expected {
		if !found[name] {
			return fmt.Errorf("tool %s not registered", name)
		}
	}
	if len(tools.Tools) != len(expected) {
		return fmt.Errorf("got %d tools, want %d", len(tools.Tools), len(expected))
	}

	// Negative: unknown tool. Depending on transport this surfaces as a
	// protocol error or a tool error; it must never succeed silently.
	if result, err := callToolRaw(ctx, s, "steal_reports", map[string]any{}); err == nil && !result.IsError {
		return fmt.Errorf("nonexistent tool call succeeded")
	}
	return nil
}

// ---------------------------------------------------------------------------
// report_catalog — list_reports plain, filtered, and with a broken
// filter expression.
// ---------------------------------------------------------------------------

func scenarioReportCatalog(ctx context.Context, s *mcp.ClientSession, _ string) error {
	// Full catalog.
	data, err := callToolJSON(ctx, s, "list_reports", map[string]any{})
	if err != nil {
		return err
	}
	if total := asNumber(data["total"]); total != 3 {
		return fmt.Errorf("total = %v, want 3", total)
	}
	if reports := asSlice(data["reports"]); len(reports) != 3 {
		return fmt.Errorf("reports = %d entries, want 3", len(reports))
	}

	// Filtered subset: reports 1 and 3 sit below risk 5.
	data, err = callToolJSON(ctx, s, "list_reports", map[string]any{"filter": "risk_score < 5"})
	if err != nil {
		return fmt.Errorf("filtered list: %w", err)
	}
	if total := asNumber(data["total"]); total != 2 {
		return fmt.Errorf("filtered total = %v, want 2", total)
	}
	if applied := data["filter_applied"]; applied != "risk_score < 5" {
		return fmt.Errorf("filter_applied = %v", applied)
	}

	// Negative: broken filter names the available fields.
	return expectToolError(ctx, s, "list_reports",
		map[string]any{"filter": "risk_score <<< 5"}, "available fields")
}

// ---------------------------------------------------------------------------
// report_detail — get_report with a valid id, a missing id, and a
// missing argument.
// ---------------------------------------------------------------------------

func scenarioReportDetail(ctx context.Context, s *mcp.ClientSession, _ string) error {
	data, err := callToolJSON(ctx, s, "get_report", map[string]any{"id": 2})
	if err != nil {
		return err
	}
	report := asMap(data["report"])
	if project := report["project"]; project != "Tunnel Retrofit" {
		return fmt.Errorf("project = %v, want Tunnel Retrofit", project)
	}
	if score := asNumber(data["score"]); score != 125 {
		return fmt.Errorf("score = %v, want 125", score)
	}
	flags := asSlice(asMap(report["risk_assessment"])["red_flags"])
	if len(flags) != 2 {
		return fmt.Errorf("red_flags = %d entries, want 2", len(flags))
	}

	// Negative: unknown id points the agent at list_reports.
	if err := expectToolError(ctx, s, "get_report", map[string]any{"id": 99}, "list_reports"); err != nil {
		return err
	}

	// Negative: missing id.
	return expectToolError(ctx, s, "get_report", map[string]any{}, "id is required")
}

// ---------------------------------------------------------------------------
// comparison_engine — the core tool: metric matrix, ranking order,
// best opportunity, and aggregate summary over all three reports.
// ---------------------------------------------------------------------------

func scenarioComparisonEngine(ctx context.Context, s *mcp.ClientSession, _ string) error {
	data, err := callToolJSON(ctx, s, "compare_reports", map[string]any{"ids": []int{1, 2, 3}})
	if err != nil {
		return err
	}

	if reports := asSlice(data["reports"]); len(reports) != 3 {
		return fmt.Errorf("reports = %d entries, want 3", len(reports))
	}

	// Five metric rows, one cell per report, each cell classified.
	metrics := asSlice(data["metrics"])
	if len(metrics) != 5 {
		return fmt.Errorf("metrics = %d rows, want 5", len(metrics))
	}
	for _, row := range metrics {
		m := asMap(row)
		cells := asSlice(m["cells"])
		if len(cells) != 3 {
			return fmt.Errorf("metric %v has %d cells, want 3", m["metric"], len(cells))
		}
		for _, cell := range cells {
			c := asMap(cell)
			switch c["classification"] {
			case "best", "worst", "neutral":
			default:
				return fmt.Errorf("metric %v cell classification = %v", m["metric"], c["classification"])
			}
		}
	}

	// Ranking ascends by score: 1 (0), 3 (45), 2 (125).
	ranking := asSlice(data["ranking"])
	if len(ranking) != 3 {
		return fmt.Errorf("ranking = %d entries, want 3", len(ranking))
	}
	wantOrder := []struct {
		id    float64
		score float64
	}{{1, 0}, {3, 45}, {2, 125}}
	for i, want := range wantOrder {
		entry := asMap(ranking[i])
		report := asMap(entry["report"])
		if id := asNumber(report["id"]); id != want.id {
			return fmt.Errorf("rank %d is report %v, want %v", i+1, id, want.id)
		}
		if score := asNumber(entry["score"]); score != want.score {
			return fmt.Errorf("rank %d score = %v, want %v", i+1, score, want.score)
		}
		if rank := asNumber(entry["rank"]); rank != float64(i+1) {
			return fmt.Errorf("rank field = %v, want %d", rank, i+1)
		}
	}

	best := asMap(data["best_opportunity"])
	if id := asNumber(asMap(best["report"])["id"]); id != 1 {
		return fmt.Errorf("best_opportunity = report %v, want 1", id)
	}

	summary := asMap(data["summary"])
	if flags := asNumber(summary["total_red_flags"]); flags != 3 {
		return fmt.Errorf("total_red_flags = %v, want 3", flags)
	}
	return nil
}

// ---------------------------------------------------------------------------
// comparison_selection_rules — duplicates collapse; bounds and unknown
// ids are rejected with actionable messages.
// ---------------------------------------------------------------------------

func scenarioComparisonSelectionRules(ctx context.Context, s *mcp.ClientSession, _ string) error {
	// Duplicates collapse to the first occurrence; [1,1,3] is a valid pair.
	data, err := callToolJSON(ctx, s, "compare_reports", map[string]any{"ids": []int{1, 1, 3}})
	if err != nil {
		return fmt.Errorf("duplicate ids: %w", err)
	}
	if reports := asSlice(data["reports"]); len(reports) != 2 {
		return fmt.Errorf("duplicate ids: %d reports, want 2", len(reports))
	}

	// One distinct id is below the minimum even when repeated.
	if err := expectToolError(ctx, s, "compare_reports",
		map[string]any{"ids": []int{3, 3, 3}}, "at least 2"); err != nil {
		return err
	}

	// Six distinct ids breach the cap before any fetch happens.
	if err := expectToolError(ctx, s, "compare_reports",
		map[string]any{"ids": []int{1, 2, 3, 4, 5, 6}}, "at most 5"); err != nil {
		return err
	}

	// One unknown id fails the whole selection.
	return expectToolError(ctx, s, "compare_reports",
		map[string]any{"ids": []int{1, 99}}, "list_reports")
}

// ---------------------------------------------------------------------------
// opportunity_ranking — rank_reports over the whole catalog.
// ---------------------------------------------------------------------------

func scenarioOpportunityRanking(ctx context.Context, s *mcp.ClientSession, _ string) error {
	data, err := callToolJSON(ctx, s, "rank_reports", map[string]any{})
	if err != nil {
		return err
	}
	if total := asNumber(data["total"]); total != 3 {
		return fmt.Errorf("total = %v, want 3", total)
	}

	ranking := asSlice(data["ranking"])
	if len(ranking) != 3 {
		return fmt.Errorf("ranking = %d entries, want 3", len(ranking))
	}
	first := asMap(ranking[0])
	if id := asNumber(asMap(first["report"])["id"]); id != 1 {
		return fmt.Errorf("rank 1 = report %v, want 1", id)
	}
	last := asMap(ranking[2])
	if score := asNumber(last["score"]); score != 125 {
		return fmt.Errorf("rank 3 score = %v, want 125", score)
	}

	best := asMap(data["best_opportunity"])
	if id := asNumber(asMap(best["report"])["id"]); id != 1 {
		return fmt.Errorf("best_opportunity = report %v, want 1", id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// ranking_filters — filtered and id-restricted rankings, plus the
// everything-filtered-out negative.
// ---------------------------------------------------------------------------

func scenarioRankingFilters(ctx context.Context, s *mcp.ClientSession, _ string) error {
	// Drop the NO recommendation; 1 and 3 remain, 1 still wins.
	data, err := callToolJSON(ctx, s, "rank_reports",
		map[string]any{"filter": `recommendation != "NO"`})
	if err != nil {
		return err
	}
	if total := asNumber(data["total"]); total != 2 {
		return fmt.Errorf("filtered total = %v, want 2", total)
	}
	best := asMap(data["best_opportunity"])
	if id := asNumber(asMap(best["report"])["id"]); id != 1 {
		return fmt.Errorf("filtered best = report %v, want 1", id)
	}

	// Explicit id restriction: between 2 and 3, report 3 wins.
	data, err = callToolJSON(ctx, s, "rank_reports", map[string]any{"ids": []int{2, 3}})
	if err != nil {
		return fmt.Errorf("id restriction: %w", err)
	}
	best = asMap(data["best_opportunity"])
	if id := asNumber(asMap(best["report"])["id"]); id != 3 {
		return fmt.Errorf("restricted best = report %v, want 3", id)
	}

	// Negative: a filter that matches nothing leaves nothing to rank.
	return expectToolError(ctx, s, "rank_reports",
		map[string]any{"filter": "risk_score > 99"}, "no reports to rank")
}

// ---------------------------------------------------------------------------
// error_handling — malformed arguments fail as tool errors with
// recovery guidance, never as protocol failures.
// ---------------------------------------------------------------------------

func scenarioErrorHandling(ctx context.Context, s *mcp.ClientSession, _ string) error {
	// Wrong argument type for ids.
	if err := expectToolError(ctx, s, "compare_reports",
		map[string]any{"ids": "1,2"}, "invalid arguments"); err != nil {
		return err
	}

	// Wrong argument type for id.
	if err := expectToolError(ctx, s, "get_report",
		map[string]any{"id": "two"}, "invalid arguments"); err != nil {
		return err
	}

	// Bad filter on rank_reports names the available fields.
	return expectToolError(ctx, s, "rank_reports",
		map[string]any{"filter": "budget_min &&"}, "available fields")
}

// ---------------------------------------------------------------------------
// agent_bid_analyst — multi-turn workflow: catalog, ranking, head-to-head
// comparison of the top two, then full detail on the winner.
// ---------------------------------------------------------------------------

func agentBidAnalyst(ctx context.Context, s *mcp.ClientSession, _ string) error {
	// Turn 1: what bids do we have?
	catalog, err := callToolJSON(ctx, s, "list_reports", map[string]any{})
	if err != nil {
		return fmt.Errorf("turn1 list: %w", err)
	}
	if asNumber(catalog["total"]) < 2 {
		return fmt.Errorf("turn1: catalog too small to analyze")
	}

	// Turn 2: rank everything, note the top two.
	ranked, err := callToolJSON(ctx, s, "rank_reports", map[string]any{})
	if err != nil {
		return fmt.Errorf("turn2 rank: %w", err)
	}
	ranking := asSlice(ranked["ranking"])
	if len(ranking) < 2 {
		return fmt.Errorf("turn2: ranking has %d entries", len(ranking))
	}
	topID := int(asNumber(asMap(asMap(ranking[0])["report"])["id"]))
	runnerUpID := int(asNumber(asMap(asMap(ranking[1])["report"])["id"]))

	// Turn 3: head-to-head on the top two.
	headToHead, err := callToolJSON(ctx, s, "compare_reports",
		map[string]any{"ids": []int{topID, runnerUpID}})
	if err != nil {
		return fmt.Errorf("turn3 compare: %w", err)
	}
	bestID := int(asNumber(asMap(asMap(headToHead["best_opportunity"])["report"])["id"]))
	if bestID != topID {
		return fmt.Errorf("turn3: comparison best %d disagrees with ranking top %d", bestID, topID)
	}

	// Turn 4: pull the winner's full detail for the write-up.
	detail, err := callToolJSON(ctx, s, "get_report", map[string]any{"id": topID})
	if err != nil {
		return fmt.Errorf("turn4 detail: %w", err)
	}
	winner := asMap(detail["report"])
	if asNumber(winner["id"]) != float64(topID) {
		return fmt.Errorf("turn4: detail is report %v, want %d", winner["id"], topID)
	}
	if project, _ := winner["project"].(string); project == "" {
		return fmt.Errorf("turn4: winner has no project name")
	}
	return nil
}

// ---------------------------------------------------------------------------
// agent_risk_reviewer — multi-turn workflow: find the flagged bids,
// inspect each flag, then rank the risky subset.
// ---------------------------------------------------------------------------

func agentRiskReviewer(ctx context.Context, s *mcp.ClientSession, _ string) error {
	// Turn 1: which bids carry red flags?
	flagged, err := callToolJSON(ctx, s, "list_reports",
		map[string]any{"filter": "red_flags > 0"})
	if err != nil {
		return fmt.Errorf("turn1 flagged: %w", err)
	}
	reports := asSlice(flagged["reports"])
	if len(reports) != 2 {
		return fmt.Errorf("turn1: %d flagged reports, want 2", len(reports))
	}

	// Turn 2: read every flag on every flagged bid.
	var ids []int
	for _, r := range reports {
		id := int(asNumber(asMap(r)["id"]))
		ids = append(ids, id)

		detail, err := callToolJSON(ctx, s, "get_report", map[string]any{"id": id})
		if err != nil {
			return fmt.Errorf("turn2 detail(%d): %w", id, err)
		}
		assessment := asMap(asMap(detail["report"])["risk_assessment"])
		if len(asSlice(assessment["red_flags"])) == 0 {
			return fmt.Errorf("turn2: report %d listed as flagged but has no flags", id)
		}
	}

	// Turn 3: rank the risky subset; fewer flags should win.
	ranked, err := callToolJSON(ctx, s, "rank_reports", map[string]any{"ids": ids})
	if err != nil {
		return fmt.Errorf("turn3 rank: %w", err)
	}
	best := asMap(asMap(ranked["best_opportunity"])["report"])
	if id := asNumber(best["id"]); id != 3 {
		return fmt.Errorf("turn3: best risky bid = report %v, want 3", id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// service_catalog — live: spawn a second server backed by the real
// reporting service and list its catalog through MCP.
// ---------------------------------------------------------------------------

func scenarioServiceCatalog(ctx context.Context, _ *mcp.ClientSession, service string) error {
	root, err := findRepoRoot()
	if err != nil {
		return fmt.Errorf("find repo root: %w", err)
	}

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/cli", "mcp",
		"-http", fmt.Sprintf(":%d", livePort), "-service", service)
	cmd.Dir = root
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start service-backed server: %w", err)
	}
	defer stopServer(cmd)

	if err := waitForHealth(ctx, livePort); err != nil {
		return fmt.Errorf("service-backed health: %w", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-smoke-live", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: fmt.Sprintf("http://127.0.0.1:%d/mcp", livePort),
	}, nil)
	if err != nil {
		return fmt.Errorf("connect service-backed server: %w", err)
	}
	defer session.Close()

	data, err := callToolJSON(ctx, session, "list_reports", map[string]any{})
	if err != nil {
		return fmt.Errorf("live catalog: %w", err)
	}
	if _, ok := data["total"]; !ok {
		return fmt.Errorf("live catalog response has no total")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tool call helpers
// ---------------------------------------------------------------------------

func callToolJSON(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (map[string]any, error) {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("call %s: tool error: %s", name, truncate(extractText(result), 200))
	}
	text := extractText(result)
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("call %s: parse JSON: %w (text: %s)", name, err, truncate(text, 100))
	}
	return data, nil
}

func callToolRaw(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal %s args: %w", name, err)
	}
	return s.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: json.RawMessage(payload)})
}

// expectToolError asserts the call fails at the tool level with a
// message mentioning want.
func expectToolError(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any, want string) error {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	if !result.IsError {
		return fmt.Errorf("%s(%v) succeeded, want tool error mentioning %q", name, args, want)
	}
	text := extractText(result)
	if !strings.Contains(strings.ToLower(text), strings.ToLower(want)) {
		return fmt.Errorf("%s error %q does not mention %q", name, truncate(text, 120), want)
	}
	return nil
}

func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return fmt.Sprintf("%T", result.Content[0])
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asNumber(v any) float64 {
	f, _ := v.(float64)
	return f
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// ---------------------------------------------------------------------------
// Server lifecycle
// ---------------------------------------------------------------------------

func writeFixture() (string, error) {
	f, err := os.CreateTemp("", "bidlens-smoke-*.json")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(fixtureReports); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func startServer(ctx context.Context, port int, fixture string) (*exec.Cmd, error) {
	root, err := findRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("find repo root: %w", err)
	}

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/cli", "mcp",
		"-http", fmt.Sprintf(":%d", port), "-file", fixture)
	cmd.Dir = root
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func stopServer(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	_, _ = cmd.Process.Wait()
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		modPath := filepath.Join(dir, "go.mod")
		if data, err := os.ReadFile(modPath); err == nil {
			if strings.Contains(string(data), "module github.com/bidlens/bidlens\n") ||
				strings.Contains(string(data), "module github.com/bidlens/bidlens\r\n") {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir || parent == "" {
			return "", fmt.Errorf("repo root not found walking up from %s", dir)
		}
		dir = parent
	}
}

func waitForHealth(ctx context.Context, port int) error {
	client := &http.Client{Timeout: 2 * time.Second}
	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)

	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
