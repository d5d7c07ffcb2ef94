// Package writers provides output writers for various formats.
//
// This package contains implementations of the dispatcher.Writer interface
// for different output formats including JSONL (newline-delimited JSON),
// CSV, Markdown, and other formats suitable for pipeline integration.
package writers

import (
	"io"
	"sync"

	"github.com/bidlens/bidlens/pkg/jsonutil"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JSONLWriter)(nil)

// JSONLWriter writes events as newline-delimited JSON (JSONL).
// Each event is serialized as a complete JSON object on a single line,
// making it ideal for streaming processing and pipeline consumers.
//
// JSONL format allows each line to be parsed independently, enabling
// tools like jq, grep, and streaming parsers to process events in real-time.
type JSONLWriter struct {
	w       io.Writer
	mu      sync.Mutex
	opts    JSONLOptions
	encoder *jsonutil.Encoder
}

// JSONLOptions configures the JSONL writer behavior.
type JSONLOptions struct {
	// BestOnly filters output to only the best-ranked report.
	// When true, only ResultEvents flagged as the best opportunity
	// are written; other event types are skipped entirely.
	BestOnly bool

	// OmitFindings strips red flags and analyst notes from result
	// events to reduce size.
	OmitFindings bool

	// Pretty enables indented JSON output.
	// Note: This is not JSONL compliant but useful for debugging.
	Pretty bool
}

// NewJSONLWriter creates a new JSONL writer that writes to w.
// The writer is safe for concurrent use.
func NewJSONLWriter(w io.Writer, opts JSONLOptions) *JSONLWriter {
	encoder := jsonutil.NewStreamEncoder(w)
	if opts.Pretty {
		encoder.SetIndent("", "  ")
	}
	return &JSONLWriter{
		w:       w,
		opts:    opts,
		encoder: encoder,
	}
}

// Write writes an event as a single JSON line.
// Returns nil if the event was filtered out by options.
func (jw *JSONLWriter) Write(event events.Event) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	// Filter: only the best opportunity if requested
	if jw.opts.BestOnly {
		re, ok := event.(*events.ResultEvent)
		if !ok {
			return nil // Skip non-result events
		}
		if !re.Score.Best {
			return nil // Skip reports that did not win
		}
	}

	// Handle findings filtering
	if jw.opts.OmitFindings {
		if re, ok := event.(*events.ResultEvent); ok {
			// Create a copy with the analyst findings removed
			filtered := *re
			filtered.Report.RedFlags = nil
			filtered.Report.Notes = ""
			return jw.encoder.Encode(&filtered)
		}
	}

	return jw.encoder.Encode(event)
}

// Flush flushes any buffered data.
// JSONL writes immediately, so this is a no-op.
func (jw *JSONLWriter) Flush() error {
	// JSONL writes immediately via encoder, no buffering
	return nil
}

// Close closes the writer and releases any resources.
// If the underlying writer implements io.Closer, it will be closed.
func (jw *JSONLWriter) Close() error {
	if closer, ok := jw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for all event types.
// JSONL can serialize any event type.
func (jw *JSONLWriter) SupportsEvent(_ events.EventType) bool {
	return true // JSONL supports all event types
}
