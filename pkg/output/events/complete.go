package events

// CompleteEvent is emitted when a run finishes.
// It indicates the final status and exit code of the run,
// with an optional reference to the summary for detailed results.
type CompleteEvent struct {
	BaseEvent
	Success    bool          `json:"success"`
	ExitCode   int           `json:"exit_code"`
	ExitReason string        `json:"exit_reason,omitempty"`
	Summary    *SummaryEvent `json:"summary,omitempty"`
}

// NewCompleteEvent builds the closing event for a run.
func NewCompleteEvent(runID string, success bool, exitCode int, exitReason string, summary *SummaryEvent) *CompleteEvent {
	return &CompleteEvent{
		BaseEvent:  newBase(EventTypeComplete, runID),
		Success:    success,
		ExitCode:   exitCode,
		ExitReason: exitReason,
		Summary:    summary,
	}
}
