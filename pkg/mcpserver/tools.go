package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/filter"
	"github.com/bidlens/bidlens/pkg/reportsvc"
	"github.com/bidlens/bidlens/pkg/scoring"
)

// registerTools adds all bid analysis tools to the MCP server.
func (s *Server) registerTools() {
	s.addListReportsTool()
	s.addGetReportTool()
	s.addCompareReportsTool()
	s.addRankReportsTool()
}

// ═══════════════════════════════════════════════════════════════════════════
// list_reports — Browse the report catalog
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addListReportsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "list_reports",
			Title: "List Bid Reports",
			Description: `Inventory tool — browse every analyzed bid report the source knows about, optionally narrowed by a filter expression.

USE THIS TOOL WHEN:
• The user asks "what bids do we have?" or "show me the reports"
• You need valid report ids before calling 'compare_reports' or 'get_report'
• The user wants a subset: "bids under 5 risk", "everything except NO recommendations"

DO NOT USE THIS TOOL WHEN:
• You want a single report's detail — use 'get_report' instead
• You want a ranking by opportunity — use 'rank_reports' instead
• You want the metric-by-metric matrix — use 'compare_reports' instead

FILTER EXPRESSIONS (optional): sandboxed expressions over report fields that must evaluate to a boolean.
Fields: id, project, client, location, budget_min, budget_max, budget_mid, duration_months, risk_score, risk_level, recommendation, red_flags, notes, deadline.

EXAMPLE INPUTS:
• Everything: {} (no arguments)
• Low risk only: {"filter": "risk_score < 5"}
• Big viable bids: {"filter": "budget_max >= 1e6 && recommendation != \"NO\""}
• Clean bids: {"filter": "red_flags == 0"}

Returns: total count, the filter applied (if any), and the full report objects in source order.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"filter": map[string]any{
						"type":        "string",
						"description": "Filter expression over report fields (e.g. \"risk_score < 5 && recommendation != \\\"NO\\\"\"). Leave empty to list everything.",
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(true),
				Title:          "List Bid Reports",
			},
		},
		s.handleListReports,
	)
}

type listReportsArgs struct {
	Filter string `json:"filter"`
}

type listReportsResult struct {
	Total         int                `json:"total"`
	FilterApplied string             `json:"filter_applied,omitempty"`
	Reports       []bidreport.Report `json:"reports"`
}

func (s *Server) handleListReports(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args listReportsArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected optional 'filter' (string).", err)), nil
	}

	var expr *filter.Expr
	if args.Filter != "" {
		var err error
		expr, err = filter.Compile(args.Filter)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid filter expression: %v. Available fields: %s.",
				err, strings.Join(filter.Fields(), ", "))), nil
		}
	}

	reports, err := s.config.Source.List(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to list reports: %v. Check that the report source is reachable.", err)), nil
	}

	if expr != nil {
		reports, err = expr.Filter(reports)
		if err != nil {
			return errorResult(fmt.Sprintf("filter evaluation failed: %v", err)), nil
		}
	}

	result := listReportsResult{
		Total:         len(reports),
		FilterApplied: args.Filter,
		Reports:       reports,
	}
	return jsonResult(result)
}

// ═══════════════════════════════════════════════════════════════════════════
// get_report — Single report detail
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGetReportTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "get_report",
			Title: "Get Bid Report",
			Description: `Fetch one analyzed bid report by id, with its composite opportunity score.

USE THIS TOOL WHEN:
• The user asks about a specific bid: "show me bid 3", "what are the red flags on 7?"
• You ranked or compared reports and now need the full detail on one of them
• Verifying a report exists before adding its id to a comparison

DO NOT USE THIS TOOL WHEN:
• You don't know the id yet — use 'list_reports' first
• You want several reports side by side — use 'compare_reports' instead

EXAMPLE INPUTS:
• {"id": 3}

Returns: the full report object (budget range, duration, risk assessment with red flags, analyst recommendation, deadline) plus its opportunity score (lower = better).`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "integer",
						"description": "Report id to fetch.",
						"minimum":     1,
					},
				},
				"required": []string{"id"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(true),
				Title:          "Get Bid Report",
			},
		},
		s.handleGetReport,
	)
}

type getReportArgs struct {
	ID int `json:"id"`
}

type reportDetail struct {
	Report *bidreport.Report `json:"report"`
	Score  float64           `json:"score"`
}

func (s *Server) handleGetReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args getReportArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected 'id' (integer).", err)), nil
	}

	if args.ID <= 0 {
		return errorResult(`report id is required. Example: {"id": 3}`), nil
	}

	report, err := s.config.Source.Report(ctx, args.ID)
	if err != nil {
		if errors.Is(err, reportsvc.ErrNotFound) {
			return errorResult(fmt.Sprintf("%v. Use list_reports to see available ids.", err)), nil
		}
		return errorResult(fmt.Sprintf("failed to fetch report %d: %v", args.ID, err)), nil
	}

	return jsonResult(reportDetail{
		Report: report,
		Score:  scoring.Score(report),
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// compare_reports — Metric matrix + ranking
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addCompareReportsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "compare_reports",
			Title: "Compare Bid Reports",
			Description: `Run the comparison engine over 2-5 report ids: per-metric best/worst classification, composite opportunity ranking, and an aggregate summary. This is the core analysis tool.

USE THIS TOOL WHEN:
• The user says "compare bids 1, 3 and 5" or "which of these is the better deal?"
• 'rank_reports' surfaced candidates and you need to explain WHY the winner wins
• The user wants the metric matrix: who has the lowest risk, the highest budget ceiling, the shortest duration

DO NOT USE THIS TOOL WHEN:
• You only have one id — use 'get_report' instead (a comparison needs at least 2 distinct reports)
• You want to rank the whole catalog — use 'rank_reports' instead (no id list needed)

SELECTION RULES:
• 2 to 5 report ids per comparison
• Duplicate ids collapse to the first occurrence before the bounds are checked
• Every id must exist at the source; one unknown id fails the whole call

METRICS: risk_score, duration_months, budget_max, budget_min, red_flags. Lower is better everywhere except budget_max (higher ceiling wins). Each report's cell is classified "best", "worst", or "neutral" per metric.

EXAMPLE INPUTS:
• {"ids": [1, 3]}
• {"ids": [2, 4, 5, 7]}

Returns: the distinct report set, one comparison row per metric with per-report classifications, the composite ranking (ascending score, rank 1 = best opportunity), the best opportunity, and aggregate averages. Same JSON shape as the CLI's file exports.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ids": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"minItems":    defaults.SelectionMin,
						"maxItems":    defaults.SelectionCap,
						"description": "Report ids to compare (2-5 distinct ids). Example: [1, 3, 5].",
					},
				},
				"required": []string{"ids"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(true),
				Title:          "Compare Bid Reports",
			},
		},
		s.handleCompareReports,
	)
}

type compareReportsArgs struct {
	IDs []int `json:"ids"`
}

func (s *Server) handleCompareReports(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args compareReportsArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected 'ids' (array of integers).", err)), nil
	}

	distinct := compare.DistinctIDs(args.IDs)
	if len(distinct) < defaults.SelectionMin {
		return errorResult(fmt.Sprintf(
			"at least %d distinct report ids are required (got %d). Example: {\"ids\": [1, 3]}",
			defaults.SelectionMin, len(distinct))), nil
	}
	if len(distinct) > defaults.SelectionCap {
		return errorResult(fmt.Sprintf(
			"a comparison covers at most %d reports (got %d distinct ids). Split the selection or use rank_reports for the full set.",
			defaults.SelectionCap, len(distinct))), nil
	}

	result, err := compare.CompareByID(ctx, s.config.Source, distinct)
	if err != nil {
		if errors.Is(err, reportsvc.ErrNotFound) {
			return errorResult(fmt.Sprintf("%v. Use list_reports to see available ids.", err)), nil
		}
		return errorResult(fmt.Sprintf("comparison failed: %v", err)), nil
	}

	return jsonResult(result)
}

// ═══════════════════════════════════════════════════════════════════════════
// rank_reports — Composite opportunity ranking
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addRankReportsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "rank_reports",
			Title: "Rank Bid Reports",
			Description: `Score every report and rank them by composite opportunity. Works over the whole catalog, a filtered subset, or an explicit id list.

USE THIS TOOL WHEN:
• The user asks "which bid should we take?" or "rank our options"
• You need the top candidates to feed into 'compare_reports'
• The user wants a scored shortlist: "rank the bids without red flags"

DO NOT USE THIS TOOL WHEN:
• You need the per-metric best/worst matrix — use 'compare_reports' instead
• You want raw report data without scores — use 'list_reports' instead

SCORING: score = risk_score x 10 + red_flags x 5 + recommendation adjustment ("NO" +50, "YES" -20). LOWER is BETTER; rank 1 is the best opportunity. Ties keep source order.

EXAMPLE INPUTS:
• Whole catalog: {} (no arguments)
• Explicit ids: {"ids": [1, 3, 5, 7]}
• Filtered: {"filter": "recommendation != \"NO\""}
• Both (filter applies to the id selection): {"ids": [1, 2, 3], "filter": "red_flags == 0"}

Returns: total ranked, the ranking (report + score + rank, ascending score), and the best opportunity.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ids": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "Restrict the ranking to these report ids. Empty means the whole catalog.",
					},
					"filter": map[string]any{
						"type":        "string",
						"description": "Filter expression over report fields, applied before scoring.",
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(true),
				Title:          "Rank Bid Reports",
			},
		},
		s.handleRankReports,
	)
}

type rankReportsArgs struct {
	IDs    []int  `json:"ids"`
	Filter string `json:"filter"`
}

type rankReportsResult struct {
	Total           int                    `json:"total"`
	FilterApplied   string                 `json:"filter_applied,omitempty"`
	Ranking         []scoring.ScoredReport `json:"ranking"`
	BestOpportunity scoring.ScoredReport   `json:"best_opportunity"`
}

func (s *Server) handleRankReports(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args rankReportsArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected optional 'ids' (array of integers) and 'filter' (string).", err)), nil
	}

	var expr *filter.Expr
	if args.Filter != "" {
		var err error
		expr, err = filter.Compile(args.Filter)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid filter expression: %v. Available fields: %s.",
				err, strings.Join(filter.Fields(), ", "))), nil
		}
	}

	var (
		reports []bidreport.Report
		err     error
	)
	if len(args.IDs) > 0 {
		reports, err = s.config.Source.ReportsByID(ctx, compare.DistinctIDs(args.IDs))
	} else {
		reports, err = s.config.Source.List(ctx)
	}
	if err != nil {
		if errors.Is(err, reportsvc.ErrNotFound) {
			return errorResult(fmt.Sprintf("%v. Use list_reports to see available ids.", err)), nil
		}
		return errorResult(fmt.Sprintf("failed to fetch reports: %v", err)), nil
	}

	if expr != nil {
		reports, err = expr.Filter(reports)
		if err != nil {
			return errorResult(fmt.Sprintf("filter evaluation failed: %v", err)), nil
		}
	}

	ranked, err := scoring.Rank(reports)
	if err != nil {
		if errors.Is(err, scoring.ErrEmptyInput) {
			return errorResult("no reports to rank. Broaden the filter, or check that the source has reports (list_reports shows what's available)."), nil
		}
		return errorResult(fmt.Sprintf("ranking failed: %v", err)), nil
	}

	result := rankReportsResult{
		Total:           len(ranked),
		FilterApplied:   args.Filter,
		Ranking:         ranked,
		BestOpportunity: ranked[0],
	}
	return jsonResult(result)
}
