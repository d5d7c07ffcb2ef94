package events

// ErrorEvent is emitted when an error occurs during a run.
// It can represent both recoverable and fatal errors.
type ErrorEvent struct {
	BaseEvent
	Source    string `json:"source,omitempty"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
	Fatal     bool   `json:"fatal"`
}

// NewErrorEvent builds an error event. Source names the backend or
// stage the error came from and may be empty.
func NewErrorEvent(runID, source, errorType, message string, fatal bool) *ErrorEvent {
	return &ErrorEvent{
		BaseEvent: newBase(EventTypeError, runID),
		Source:    source,
		ErrorType: errorType,
		Message:   message,
		Fatal:     fatal,
	}
}
