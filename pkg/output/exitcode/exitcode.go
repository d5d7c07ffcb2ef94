// Package exitcode provides semantic exit codes for CI/CD integration.
// Exit codes communicate run outcomes to automation pipelines.
//
// Exit codes:
//   - 0: Success (run completed)
//   - 1: Red flags detected (only when the red-flag gate is enabled)
//   - 2: Usage error (bad selection, unknown report, invalid configuration)
//   - 3: Report source unreachable or malformed
//   - 4: Runtime error
//   - 5: Run interrupted
package exitcode

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/config"
	"github.com/bidlens/bidlens/pkg/history"
	"github.com/bidlens/bidlens/pkg/reportsvc"
)

// Code represents a semantic exit code for CI/CD pipelines.
type Code int

const (
	// Success indicates the run completed normally.
	Success Code = 0
	// RedFlags indicates the red-flag gate tripped.
	RedFlags Code = 1
	// Usage indicates an invalid selection, unknown report, or bad
	// configuration.
	Usage Code = 2
	// Source indicates the report source was unreachable or returned
	// malformed data.
	Source Code = 3
	// Runtime indicates an internal error or too many per-report failures.
	Runtime Code = 4
	// Interrupted indicates the run was interrupted (e.g., SIGINT).
	Interrupted Code = 5
)

// codeStrings maps exit codes to human-readable identifiers.
var codeStrings = map[Code]string{
	Success:     "success",
	RedFlags:    "red_flags_detected",
	Usage:       "usage_error",
	Source:      "source_unavailable",
	Runtime:     "runtime_error",
	Interrupted: "run_interrupted",
}

// codeDescriptions provides detailed descriptions for exit codes.
var codeDescriptions = map[Code]string{
	Success:     "Run completed successfully",
	RedFlags:    "Red flags were detected in the compared reports",
	Usage:       "Invalid selection or configuration provided",
	Source:      "Report source is unreachable or returned malformed data",
	Runtime:     "Run terminated due to too many report failures",
	Interrupted: "Run was interrupted by user or signal",
}

// String returns the identifier for the exit code.
func (c Code) String() string {
	if s, ok := codeStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown_code_%d", int(c))
}

// Describe returns a detailed description of an exit code.
func Describe(c Code) string {
	if s, ok := codeDescriptions[c]; ok {
		return s
	}
	return fmt.Sprintf("Unknown exit code: %d", int(c))
}

// FromError classifies a fatal error into its exit code. Selection and
// lookup failures are usage errors, source failures point at the
// reporting service or file, everything else is a runtime error.
func FromError(err error) Code {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, context.Canceled):
		return Interrupted
	case errors.Is(err, compare.ErrInsufficientSelection),
		errors.Is(err, reportsvc.ErrNotFound),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrMissingRequired),
		errors.Is(err, config.ErrNotFound),
		errors.Is(err, history.ErrRunNotFound),
		errors.Is(err, history.ErrNoRuns):
		return Usage
	case errors.Is(err, reportsvc.ErrServiceUnavailable),
		errors.Is(err, reportsvc.ErrDecode),
		errors.Is(err, context.DeadlineExceeded):
		return Source
	default:
		return Runtime
	}
}

// Config holds configuration for the exit code manager.
type Config struct {
	// FailOnRedFlags turns red flags into exit code 1 for CI gating.
	FailOnRedFlags bool

	// RedFlagThreshold is the number of red flags across the compared
	// set that trips the gate. Default: 1
	RedFlagThreshold int

	// ExitOnError determines whether to exit with an error code when
	// too many per-report failures accumulate.
	ExitOnError bool

	// ErrorThreshold is the number of per-report failures that triggers
	// a runtime error exit. Default: 10
	ErrorThreshold int
}

// DefaultConfig returns the default exit code configuration.
func DefaultConfig() Config {
	return Config{
		FailOnRedFlags:   false,
		RedFlagThreshold: 1,
		ExitOnError:      true,
		ErrorThreshold:   10,
	}
}

// Manager tracks run outcomes and determines the appropriate exit code.
// It aggregates over a single run; fatal errors that abort a run are
// classified directly with FromError.
type Manager struct {
	cfg      Config
	redFlags int
	errors   int
	mu       sync.Mutex

	interrupted bool
}

// New creates a new exit code manager with the given configuration.
func New(cfg Config) *Manager {
	// Apply defaults for zero values
	if cfg.RedFlagThreshold == 0 {
		cfg.RedFlagThreshold = 1
	}
	if cfg.ErrorThreshold == 0 {
		cfg.ErrorThreshold = 10
	}

	return &Manager{
		cfg: cfg,
	}
}

// RecordRedFlags adds n red flags to the gate counter.
func (m *Manager) RecordRedFlags(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redFlags += n
}

// RecordError increments the per-report failure counter.
func (m *Manager) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// SetInterrupted marks that the run was interrupted.
func (m *Manager) SetInterrupted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interrupted = true
}

// ExitCode returns the appropriate exit code based on recorded outcomes.
// The returned string provides a human-readable reason for the code.
//
// Priority order (highest to lowest):
//  1. Interrupted
//  2. Too many failures (if ExitOnError enabled)
//  3. Red-flag gate (if FailOnRedFlags enabled)
//  4. Success
func (m *Manager) ExitCode() (Code, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interrupted {
		return Interrupted, codeDescriptions[Interrupted]
	}

	if m.cfg.ExitOnError && m.errors >= m.cfg.ErrorThreshold {
		return Runtime, fmt.Sprintf("%s (threshold: %d, actual: %d)",
			codeDescriptions[Runtime], m.cfg.ErrorThreshold, m.errors)
	}

	if m.cfg.FailOnRedFlags && m.redFlags >= m.cfg.RedFlagThreshold {
		return RedFlags, fmt.Sprintf("%s (count: %d)",
			codeDescriptions[RedFlags], m.redFlags)
	}

	return Success, codeDescriptions[Success]
}

// Stats returns the current red-flag and failure counts.
func (m *Manager) Stats() (redFlags, errors int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.redFlags, m.errors
}

// Reset clears all recorded outcomes and state flags.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redFlags = 0
	m.errors = 0
	m.interrupted = false
}
