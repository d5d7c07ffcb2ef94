// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for runtime configuration defaults.
//
// Usage:
//
//	cfg.Concurrency = defaults.ConcurrencyMedium
//	req.Header.Set("Content-Type", defaults.ContentTypeJSON)
//
// DO NOT hardcode values like `Concurrency: 8` anywhere.
// Reference the appropriate constant from this package instead.
package defaults

import "fmt"

// ToolName is the canonical product name used in banners, service names,
// and telemetry resources.
const ToolName = "bidlens"

// Version is the current BidLens version.
const Version = "1.2.0"

// ============================================================================
// SELECTION BOUNDS
// ============================================================================
//
// Comparison selection limits. The engine itself enforces only the lower
// bound; the upper bound is a presentation-layer cap.
// ============================================================================

const (
	// SelectionMin is the minimum number of distinct reports a comparison
	// requires. Below this the engine rejects the selection.
	SelectionMin = 2

	// SelectionCap is the maximum number of reports the selection surfaces
	// (CLI, MCP tools) accept per comparison. The engine places no ceiling.
	SelectionCap = 5
)

// ============================================================================
// CONCURRENCY SETTINGS
// ============================================================================
//
// Use these for worker pools and parallel fetches.
// ============================================================================

const (
	// ConcurrencySerial disables parallelism (1)
	ConcurrencySerial = 1

	// ConcurrencyLow is for per-id fetch against small services (4)
	ConcurrencyLow = 4

	// ConcurrencyMedium is the standard fetch parallelism (8)
	ConcurrencyMedium = 8

	// ConcurrencyHigh is for bulk listing against robust services (16)
	ConcurrencyHigh = 16
)

// ============================================================================
// RETRY SETTINGS
// ============================================================================

const (
	// RetryNone disables retries (0)
	RetryNone = 0

	// RetryLow is for interactive commands (2)
	RetryLow = 2

	// RetryMedium is the standard retry count (3)
	RetryMedium = 3

	// RetryHigh is for flaky service links (5)
	RetryHigh = 5
)

// ============================================================================
// RATE LIMITING
// ============================================================================
//
// Requests per second against the reporting service.
// ============================================================================

const (
	// RateLimitNone disables client-side rate limiting (0)
	RateLimitNone = 0

	// RateLimitLow is conservative (5 req/s)
	RateLimitLow = 5

	// RateLimitMedium is the standard limit (20 req/s)
	RateLimitMedium = 20

	// RateLimitHigh is for bulk operations against dedicated services (100 req/s)
	RateLimitHigh = 100
)

// ============================================================================
// HTTP
// ============================================================================

const (
	// ServiceBaseURL is the default reporting-service endpoint.
	ServiceBaseURL = "http://localhost:8420"

	// ContentTypeJSON is application/json
	ContentTypeJSON = "application/json"

	// AcceptJSON accepts JSON
	AcceptJSON = "application/json"

	// HeaderRequestID carries the per-request correlation id.
	HeaderRequestID = "X-Request-ID"
)

// ============================================================================
// BUFFER / CHANNEL SIZES
// ============================================================================

const (
	// BufferSmall is for typical reads (4KB)
	BufferSmall = 4 * 1024

	// BufferMax is the maximum response body size accepted from the
	// reporting service (10MB)
	BufferMax = 10 * 1024 * 1024

	// ChannelSmall is for typical event buffers (100)
	ChannelSmall = 100
)

// ============================================================================
// HISTORY
// ============================================================================

const (
	// HistoryKeepDefault is how many archived comparison runs Prune retains.
	HistoryKeepDefault = 50

	// HistoryListDefault is how many records List returns when no limit is
	// given.
	HistoryListDefault = 20
)

// UserAgent returns the BidLens user agent, optionally with context.
func UserAgent(context string) string {
	if context == "" {
		return ToolName + "/" + Version
	}
	return fmt.Sprintf("%s/%s (%s)", ToolName, Version, context)
}
