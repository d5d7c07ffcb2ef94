package exitcode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/config"
	"github.com/bidlens/bidlens/pkg/history"
	"github.com/bidlens/bidlens/pkg/reportsvc"
)

func TestNew(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		cfg := DefaultConfig()
		m := New(cfg)

		if m.cfg.RedFlagThreshold != 1 {
			t.Errorf("expected RedFlagThreshold=1, got %d", m.cfg.RedFlagThreshold)
		}
		if m.cfg.ErrorThreshold != 10 {
			t.Errorf("expected ErrorThreshold=10, got %d", m.cfg.ErrorThreshold)
		}
		if !m.cfg.ExitOnError {
			t.Error("expected ExitOnError=true")
		}
		if m.cfg.FailOnRedFlags {
			t.Error("expected FailOnRedFlags=false")
		}
	})

	t.Run("zero values get defaults", func(t *testing.T) {
		m := New(Config{})

		if m.cfg.RedFlagThreshold != 1 {
			t.Errorf("expected RedFlagThreshold=1, got %d", m.cfg.RedFlagThreshold)
		}
		if m.cfg.ErrorThreshold != 10 {
			t.Errorf("expected ErrorThreshold=10, got %d", m.cfg.ErrorThreshold)
		}
	})

	t.Run("custom config preserved", func(t *testing.T) {
		m := New(Config{
			FailOnRedFlags:   true,
			RedFlagThreshold: 5,
			ExitOnError:      false,
			ErrorThreshold:   20,
		})

		if m.cfg.RedFlagThreshold != 5 {
			t.Errorf("expected RedFlagThreshold=5, got %d", m.cfg.RedFlagThreshold)
		}
		if m.cfg.ErrorThreshold != 20 {
			t.Errorf("expected ErrorThreshold=20, got %d", m.cfg.ErrorThreshold)
		}
		if m.cfg.ExitOnError {
			t.Error("expected ExitOnError=false")
		}
		if !m.cfg.FailOnRedFlags {
			t.Error("expected FailOnRedFlags=true")
		}
	})
}

func TestRecordRedFlags(t *testing.T) {
	tests := []struct {
		name string
		adds []int
		want int
	}{
		{name: "single flag", adds: []int{1}, want: 1},
		{name: "accumulates across reports", adds: []int{2, 3}, want: 5},
		{name: "zero ignored", adds: []int{0, 2}, want: 2},
		{name: "negative ignored", adds: []int{-3, 1}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(DefaultConfig())
			for _, n := range tt.adds {
				m.RecordRedFlags(n)
			}

			flags, errs := m.Stats()
			if flags != tt.want {
				t.Errorf("redFlags = %d, want %d", flags, tt.want)
			}
			if errs != 0 {
				t.Errorf("errors = %d, want 0", errs)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Run("success when no issues", func(t *testing.T) {
		m := New(DefaultConfig())
		code, _ := m.ExitCode()
		if code != Success {
			t.Errorf("expected Success(0), got %d", code)
		}
	})

	t.Run("red flags with gate enabled", func(t *testing.T) {
		m := New(Config{FailOnRedFlags: true})
		m.RecordRedFlags(2)

		code, reason := m.ExitCode()
		if code != RedFlags {
			t.Errorf("expected RedFlags(1), got %d", code)
		}
		if reason == "" {
			t.Error("expected non-empty reason")
		}
	})

	t.Run("red flags without gate stay success", func(t *testing.T) {
		m := New(DefaultConfig())
		m.RecordRedFlags(7)

		code, _ := m.ExitCode()
		if code != Success {
			t.Errorf("expected Success(0), got %d", code)
		}
	})

	t.Run("red flag threshold not reached", func(t *testing.T) {
		m := New(Config{FailOnRedFlags: true, RedFlagThreshold: 3})
		m.RecordRedFlags(2)

		code, _ := m.ExitCode()
		if code != Success {
			t.Errorf("expected Success(0), got %d", code)
		}
	})

	t.Run("error threshold reached", func(t *testing.T) {
		m := New(Config{ExitOnError: true, ErrorThreshold: 5})
		for i := 0; i < 5; i++ {
			m.RecordError()
		}

		code, _ := m.ExitCode()
		if code != Runtime {
			t.Errorf("expected Runtime(4), got %d", code)
		}
	})

	t.Run("error threshold not reached", func(t *testing.T) {
		m := New(Config{ExitOnError: true, ErrorThreshold: 5})
		for i := 0; i < 4; i++ {
			m.RecordError()
		}

		code, _ := m.ExitCode()
		if code != Success {
			t.Errorf("expected Success(0), got %d", code)
		}
	})

	t.Run("exit on error disabled", func(t *testing.T) {
		m := New(Config{ExitOnError: false, ErrorThreshold: 5})
		for i := 0; i < 10; i++ {
			m.RecordError()
		}

		code, _ := m.ExitCode()
		if code != Success {
			t.Errorf("expected Success(0), got %d", code)
		}
	})

	t.Run("errors take precedence over red flags", func(t *testing.T) {
		m := New(Config{
			FailOnRedFlags: true,
			ExitOnError:    true,
			ErrorThreshold: 5,
		})
		m.RecordRedFlags(3)
		for i := 0; i < 5; i++ {
			m.RecordError()
		}

		code, _ := m.ExitCode()
		if code != Runtime {
			t.Errorf("expected Runtime(4), got %d", code)
		}
	})

	t.Run("interrupted over everything", func(t *testing.T) {
		m := New(Config{
			FailOnRedFlags: true,
			ExitOnError:    true,
			ErrorThreshold: 1,
		})
		m.SetInterrupted()
		m.RecordRedFlags(3)
		m.RecordError()

		code, _ := m.ExitCode()
		if code != Interrupted {
			t.Errorf("expected Interrupted(5), got %d", code)
		}
	})
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil error", err: nil, want: Success},
		{name: "insufficient selection", err: compare.ErrInsufficientSelection, want: Usage},
		{
			name: "wrapped insufficient selection",
			err:  fmt.Errorf("%w (got 1)", compare.ErrInsufficientSelection),
			want: Usage,
		},
		{name: "report not found", err: reportsvc.ErrNotFound, want: Usage},
		{name: "invalid config", err: config.ErrInvalidConfig, want: Usage},
		{name: "missing config field", err: config.ErrMissingRequired, want: Usage},
		{name: "config file not found", err: config.ErrNotFound, want: Usage},
		{name: "run not found", err: history.ErrRunNotFound, want: Usage},
		{name: "empty archive", err: history.ErrNoRuns, want: Usage},
		{name: "service unavailable", err: reportsvc.ErrServiceUnavailable, want: Source},
		{
			name: "wrapped service error",
			err:  fmt.Errorf("fetching report 3: %w", reportsvc.ErrServiceUnavailable),
			want: Source,
		},
		{name: "malformed report data", err: reportsvc.ErrDecode, want: Source},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: Source},
		{name: "canceled", err: context.Canceled, want: Interrupted},
		{name: "unclassified error", err: errors.New("boom"), want: Runtime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err); got != tt.want {
				t.Errorf("FromError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{Success, "success"},
		{RedFlags, "red_flags_detected"},
		{Usage, "usage_error"},
		{Source, "source_unavailable"},
		{Runtime, "runtime_error"},
		{Interrupted, "run_interrupted"},
		{Code(99), "unknown_code_99"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.String(); got != tt.want {
				t.Errorf("String(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{Success, "Run completed successfully"},
		{RedFlags, "Red flags were detected in the compared reports"},
		{Code(100), "Unknown exit code: 100"},
	}

	for _, tt := range tests {
		if got := Describe(tt.code); got != tt.want {
			t.Errorf("Describe(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestReset(t *testing.T) {
	m := New(Config{FailOnRedFlags: true, ExitOnError: true, ErrorThreshold: 1})

	m.RecordRedFlags(2)
	m.RecordError()
	m.SetInterrupted()

	code, _ := m.ExitCode()
	if code != Interrupted {
		t.Errorf("expected Interrupted before reset, got %d", code)
	}

	m.Reset()

	code, _ = m.ExitCode()
	if code != Success {
		t.Errorf("expected Success after reset, got %d", code)
	}

	flags, errs := m.Stats()
	if flags != 0 || errs != 0 {
		t.Errorf("expected 0 flags and 0 errors after reset, got %d/%d", flags, errs)
	}
}

func TestConcurrency(t *testing.T) {
	m := New(Config{ExitOnError: true, ErrorThreshold: 10000})

	var wg sync.WaitGroup
	iterations := 100

	// Spawn multiple goroutines recording outcomes
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				m.RecordRedFlags(1)
				m.RecordError()
			}
		}()
	}

	// Also read state concurrently
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				_, _ = m.ExitCode()
				_, _ = m.Stats()
			}
		}()
	}

	wg.Wait()

	flags, errs := m.Stats()
	want := 10 * iterations
	if flags != want {
		t.Errorf("redFlags = %d, want %d", flags, want)
	}
	if errs != want {
		t.Errorf("errors = %d, want %d", errs, want)
	}
}
