// Package duration provides canonical time constants for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.ContextFetch)
//	Timeout: duration.HTTPFetch,
//
// DO NOT use hardcoded values like `30 * time.Second` anywhere.
// Reference the appropriate constant from this package instead.
package duration

import "time"

// ============================================================================
// HTTP CLIENT TIMEOUTS
// ============================================================================

const (
	// HTTPHealth is for quick health probes against the reporting service (5s)
	HTTPHealth = 5 * time.Second

	// HTTPFetch is the standard report fetch timeout (15s) - the default
	HTTPFetch = 15 * time.Second

	// HTTPBulk is for full catalog listings and batch fetches (60s)
	HTTPBulk = 60 * time.Second

	// DialTimeout bounds TCP connection establishment (10s)
	DialTimeout = 10 * time.Second

	// TLSHandshakeTimeout bounds the TLS handshake (10s)
	TLSHandshakeTimeout = 10 * time.Second

	// IdleConnTimeout is how long idle connections stay pooled (90s)
	IdleConnTimeout = 90 * time.Second
)

// ============================================================================
// CONTEXT/OPERATION TIMEOUTS
// ============================================================================

const (
	// ContextFetch bounds a single comparison's retrieval phase (30s)
	ContextFetch = 30 * time.Second

	// ContextBulk bounds list/rank operations over the whole catalog (2min)
	ContextBulk = 2 * time.Minute
)

// ============================================================================
// RETRY BACKOFF
// ============================================================================

const (
	// RetryBase is the initial retry delay (500ms)
	RetryBase = 500 * time.Millisecond

	// RetryMax caps the delay between retries (10s)
	RetryMax = 10 * time.Second
)

// ============================================================================
// INTEGRATIONS
// ============================================================================

const (
	// WebhookTimeout bounds a single webhook delivery (10s)
	WebhookTimeout = 10 * time.Second

	// OTelConnect bounds OTLP exporter connection establishment (10s)
	OTelConnect = 10 * time.Second

	// ShutdownGrace is the graceful shutdown window for exporters and
	// metric servers (5s)
	ShutdownGrace = 5 * time.Second

	// MetricsReadHeader bounds header reads on the /metrics listener (5s)
	MetricsReadHeader = 5 * time.Second
)

// ============================================================================
// SERVERS
// ============================================================================

const (
	// ServeReadHeader bounds header reads on the MCP HTTP listener (10s)
	ServeReadHeader = 10 * time.Second

	// ServeRead bounds full request reads on the MCP HTTP listener (30s)
	ServeRead = 30 * time.Second

	// ServeIdle is how long keep-alive connections may sit idle (30s)
	ServeIdle = 30 * time.Second

	// ServeShutdown is the graceful shutdown window for the MCP HTTP
	// listener (15s)
	ServeShutdown = 15 * time.Second
)
