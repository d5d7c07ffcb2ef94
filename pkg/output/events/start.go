package events

// StartEvent is emitted when a comparison run begins.
// It records the selection and run configuration so downstream
// consumers can attribute every later event to its inputs.
type StartEvent struct {
	BaseEvent
	Operation     string     `json:"operation"`
	Source        SourceInfo `json:"source"`
	ReportIDs     []int      `json:"report_ids"`
	SelectionSize int        `json:"selection_size"`
	Config        RunConfig  `json:"config"`
}

// RunConfig contains the run configuration settings.
type RunConfig struct {
	Concurrency int      `json:"concurrency,omitempty"`
	Timeout     int      `json:"timeout_sec,omitempty"`
	Filter      string   `json:"filter,omitempty"`
	Exports     []string `json:"exports,omitempty"`
}

// NewStartEvent builds the opening event for a run. The selection size
// is derived from ids, which are assumed already deduplicated.
func NewStartEvent(runID, operation string, source SourceInfo, ids []int, cfg RunConfig) *StartEvent {
	return &StartEvent{
		BaseEvent:     newBase(EventTypeStart, runID),
		Operation:     operation,
		Source:        source,
		ReportIDs:     append([]int(nil), ids...),
		SelectionSize: len(ids),
		Config:        cfg,
	}
}
