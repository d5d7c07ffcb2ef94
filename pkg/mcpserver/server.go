package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/jsonutil"
	"github.com/bidlens/bidlens/pkg/reportsvc"
)

// Config holds MCP server configuration.
type Config struct {
	// Source supplies the reports the tools operate on. Nil falls back
	// to a reporting-service client with package defaults.
	Source reportsvc.Source

	// Logger receives server-side diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Server wraps the MCP server with BidLens functionality.
type Server struct {
	mcp    *mcp.Server
	config *Config
	ready  atomic.Bool // tracks whether startup validation passed
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// MarkReady signals that startup validation (source construction, file
// loading) passed. Until MarkReady is called, the /health endpoint returns
// 503 Service Unavailable.
func (s *Server) MarkReady() { s.ready.Store(true) }

// IsReady returns true if the server has completed startup validation.
func (s *Server) IsReady() bool { return s.ready.Load() }

// New creates a new MCP server with all tools registered.
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Source == nil {
		cfg.Source = reportsvc.NewClient(reportsvc.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{config: cfg}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   "BidLens MCP Server",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()

	return s
}

// RunStdio runs the MCP server over stdio transport.
// This is the primary mode for IDE integrations (VS Code, Claude Desktop, Cursor).
func (s *Server) RunStdio(ctx context.Context) error {
	s.config.Logger.Info("mcp server starting", "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an http.Handler for the streamable HTTP transport with
// CORS support and a /health endpoint. This is the primary handler for remote
// and Docker deployments.
//
// The handler mounts:
//   - /health → readiness/liveness probe (GET only)
//   - /mcp    → streamable HTTP transport (2025-03-26 spec)
//   - /       → streamable HTTP transport (default mount)
//
// All endpoints include CORS headers for browser and cross-origin MCP clients.
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)

	return corsMiddleware(recoveryMiddleware(securityHeaders(mux), s.config.Logger))
}

// handleHealth serves a readiness/liveness probe.
// Returns 200 when the server is ready (report source validated),
// 503 Service Unavailable before MarkReady() is called.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !s.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting","service":"bidlens-mcp"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"bidlens-mcp"}`))
}

// corsMiddleware wraps an http.Handler with permissive CORS headers required
// by browser-based MCP clients and cross-origin integrations.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Always set Vary: Origin so caches don't serve a CORS-enabled response
		// to a non-browser client or vice versa.
		w.Header().Add("Vary", "Origin")

		if origin == "" {
			// No Origin header = non-browser client; skip CORS headers entirely.
			// Setting "*" with Allow-Credentials violates the Fetch specification.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			strings.Join([]string{
				"Content-Type",
				"Authorization",
				"Mcp-Session-Id",
				"MCP-Protocol-Version",
				"Last-Event-ID",
				"Accept",
			}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id, MCP-Protocol-Version")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware catches panics in HTTP handlers and returns a 500 error
// instead of killing the connection.
func recoveryMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic in HTTP handler", "error", err, "stack", string(debug.Stack()))

				// Best-effort error response: if headers were already sent,
				// WriteHeader is a no-op.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeaders adds standard defense-in-depth headers preventing
// MIME-sniffing and clickjacking.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Helpers — result builders
// ---------------------------------------------------------------------------

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError CallToolResult so the LLM can see the error
// and self-correct rather than raising a protocol-level exception.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Server Instructions — the AI's operating manual
// ---------------------------------------------------------------------------

const serverInstructions = `You are operating BidLens — a bid report comparison and opportunity scoring engine. It compares analyzed construction-bid reports metric by metric, classifies each bid's standing, and ranks the set by composite opportunity score.

## YOUR IDENTITY

You are a bid analysis assistant. You have access to the full report catalog through MCP tools. Your job is to help users decide which bids to pursue: surface the best opportunity, explain why it wins, and flag the risks in the rest.

## TOOL SELECTION GUIDE

| User Intent | Tool | Why |
|---|---|---|
| "What bids do we have?" | list_reports | Browse the catalog, optionally filtered |
| "Show me bid 3" | get_report | Single report detail with its score |
| "Compare bids 1, 3 and 5" | compare_reports | Full metric matrix + ranking for 2-5 ids |
| "Which bid should we take?" | rank_reports | Composite ranking over all or filtered reports |

## SCORING MODEL

score = risk_score x 10 + red_flag_count x 5 + recommendation adjustment ("NO" +50, "YES" -20, otherwise 0)

LOWER scores are BETTER. Rank 1 is the best opportunity.

## COMPARISON METRICS

compare_reports classifies every report on five metrics: risk_score, duration_months, budget_max, budget_min, red_flags. Lower wins on all of them except budget_max, where a higher ceiling is the better position. "best"/"worst" mark the extremes per metric; everything between is "neutral".

## FILTER EXPRESSIONS

list_reports and rank_reports accept a sandboxed filter expression over report fields, e.g. risk_score < 5 && budget_max >= 1e6 && recommendation != "NO". Available fields: id, project, client, location, budget_min, budget_max, budget_mid, duration_months, risk_score, risk_level, recommendation, red_flags, notes, deadline.

## RECOMMENDED WORKFLOWS

1. list_reports → see what's in the catalog
2. rank_reports → find the strongest candidates
3. compare_reports with the top 2-5 ids → understand WHY the winner wins
4. get_report on the winner → full detail before the final call

## ERROR RECOVERY

- "report N not found" → call list_reports to see valid ids
- "at least two distinct report ids" → duplicates collapse; pick different ids
- "invalid filter expression" → check the field list above and the expression syntax
- "service unavailable" → the reporting service is down or rate limiting; retry later

## RESPONSE FORMAT PREFERENCES

- Lead with the best opportunity and its score
- Present metric comparisons as a table with best/worst standings marked
- Quote red flags verbatim when they drive the ranking
- Keep money amounts in the report's native figures`
