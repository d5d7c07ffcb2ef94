// Package events defines the event types flowing through the output
// pipeline. All events are designed for JSON serialization, so every
// export format and integration hook consumes the same stream.
//
// This package provides the foundational types that all other event
// types embed. The BaseEvent struct is designed to be embedded in
// specific event types (ResultEvent, SummaryEvent, etc.).
package events

import (
	"time"

	"github.com/bidlens/bidlens/pkg/metric"
)

// EventType represents the type of output event.
type EventType string

const (
	// EventTypeStart indicates a comparison run has started.
	EventTypeStart EventType = "start"
	// EventTypeResult indicates a single ranked report.
	EventTypeResult EventType = "result"
	// EventTypeError indicates an error occurred.
	EventTypeError EventType = "error"
	// EventTypeSummary indicates the aggregate summary of a run.
	EventTypeSummary EventType = "summary"
	// EventTypeComplete indicates a run has completed.
	EventTypeComplete EventType = "complete"
)

// Classification re-exports the per-metric standing so event consumers
// do not need a second import for the common case.
type Classification = metric.Classification

const (
	// ClassificationBest marks the winning value on a metric.
	ClassificationBest = metric.Best
	// ClassificationWorst marks the losing value on a metric.
	ClassificationWorst = metric.Worst
	// ClassificationNeutral marks values between the extremes.
	ClassificationNeutral = metric.Neutral
)

// ClassificationPriority returns numeric priority for sorting
// (higher = more favorable standing).
func ClassificationPriority(c Classification) int {
	switch c {
	case ClassificationBest:
		return 2
	case ClassificationNeutral:
		return 1
	case ClassificationWorst:
		return 0
	default:
		return 0
	}
}

// SourceKind identifies which backend supplied the reports for a run.
type SourceKind string

const (
	// SourceService means reports came from the reporting service API.
	SourceService SourceKind = "service"
	// SourceFile means reports came from a local JSON file.
	SourceFile SourceKind = "file"
)

// SourceInfo describes where the compared reports came from: the
// backend kind plus its base URL or file path.
type SourceInfo struct {
	Kind   SourceKind `json:"kind"`
	Detail string     `json:"detail,omitempty"`
}

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	RunID() string
}

// BaseEvent contains common fields for all events.
// It is designed to be embedded in specific event types.
type BaseEvent struct {
	Type EventType `json:"type"`
	Time time.Time `json:"timestamp"`
	Run  string    `json:"run_id"`
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// RunID returns the unique identifier for the run that produced this event.
func (e BaseEvent) RunID() string { return e.Run }

// newBase stamps a BaseEvent for the given type and run.
func newBase(t EventType, runID string) BaseEvent {
	return BaseEvent{Type: t, Time: time.Now().UTC(), Run: runID}
}
