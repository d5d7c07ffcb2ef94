package hooks

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/bidlens/bidlens/pkg/output/events"
)

// =============================================================================
// OTelHook Tests
// =============================================================================

// testOTelOptions returns options suitable for tests: insecure transport
// and short timeouts so a missing collector fails fast.
func testOTelOptions() OTelOptions {
	return OTelOptions{
		Endpoint:          "localhost:4317",
		Insecure:          true,
		ConnectionTimeout: 100 * time.Millisecond,
		ShutdownTimeout:   100 * time.Millisecond,
	}
}

// skipIfNoOTLPCollector skips the test when nothing listens on the
// default OTLP gRPC port.
func skipIfNoOTLPCollector(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", "localhost:4317", 100*time.Millisecond)
	if err != nil {
		t.Skipf("skipping: no OTLP collector at localhost:4317: %v", err)
	}
	conn.Close()
}

func TestNewOTelHook_WithDefaults(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	if got := hook.ServiceName(); got != "bidlens" {
		t.Errorf("ServiceName() = %q, want bidlens", got)
	}
	if got := hook.Endpoint(); got != "localhost:4317" {
		t.Errorf("Endpoint() = %q, want localhost:4317", got)
	}
}

func TestNewOTelHook_CustomServiceName(t *testing.T) {
	skipIfNoOTLPCollector(t)

	opts := testOTelOptions()
	opts.ServiceName = "bidlens-ci"

	hook, err := NewOTelHook(opts)
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	if got := hook.ServiceName(); got != "bidlens-ci" {
		t.Errorf("ServiceName() = %q, want bidlens-ci", got)
	}
}

func TestOTelHook_EventTypesReturnsExpectedTypes(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	want := map[events.EventType]bool{
		events.EventTypeStart:    false,
		events.EventTypeResult:   false,
		events.EventTypeError:    false,
		events.EventTypeSummary:  false,
		events.EventTypeComplete: false,
	}
	for _, et := range hook.EventTypes() {
		if _, ok := want[et]; !ok {
			t.Errorf("unexpected event type %q", et)
			continue
		}
		want[et] = true
	}
	for et, seen := range want {
		if !seen {
			t.Errorf("missing event type %q", et)
		}
	}
}

func TestOTelHook_HandlesStartEvent(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	if err := hook.OnEvent(context.Background(), newTestStartEvent()); err != nil {
		t.Errorf("OnEvent(start) error = %v", err)
	}
}

func TestOTelHook_HandlesResultEvent(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	ctx := context.Background()
	if err := hook.OnEvent(ctx, newTestStartEvent()); err != nil {
		t.Fatalf("OnEvent(start) error = %v", err)
	}
	if err := hook.OnEvent(ctx, newTestResultEvent(1, 1, true)); err != nil {
		t.Errorf("OnEvent(result) error = %v", err)
	}
}

func TestOTelHook_HandlesErrorEvent(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	ctx := context.Background()
	if err := hook.OnEvent(ctx, newTestStartEvent()); err != nil {
		t.Fatalf("OnEvent(start) error = %v", err)
	}
	if err := hook.OnEvent(ctx, newTestErrorEvent(true)); err != nil {
		t.Errorf("OnEvent(error) error = %v", err)
	}
}

func TestOTelHook_HandlesSummaryEvent(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	ctx := context.Background()
	if err := hook.OnEvent(ctx, newTestStartEvent()); err != nil {
		t.Fatalf("OnEvent(start) error = %v", err)
	}
	if err := hook.OnEvent(ctx, newTestSummaryEvent()); err != nil {
		t.Errorf("OnEvent(summary) error = %v", err)
	}
}

func TestOTelHook_HandlesCompleteEvent(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	ctx := context.Background()
	if err := hook.OnEvent(ctx, newTestStartEvent()); err != nil {
		t.Fatalf("OnEvent(start) error = %v", err)
	}
	if err := hook.OnEvent(ctx, newTestCompleteEvent(true)); err != nil {
		t.Errorf("OnEvent(complete) error = %v", err)
	}
}

func TestOTelHook_FullRunLifecycle(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	ctx := context.Background()
	for _, ev := range []events.Event{
		newTestStartEvent(),
		newTestResultEvent(1, 1, true),
		newTestResultEvent(2, 2, false),
		newTestErrorEvent(false),
		newTestSummaryEvent(),
		newTestCompleteEvent(true),
	} {
		if err := hook.OnEvent(ctx, ev); err != nil {
			t.Errorf("OnEvent(%s) error = %v", ev.EventType(), err)
		}
	}
}

func TestOTelHook_IgnoresEventsAfterClose(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}

	if err := hook.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := hook.OnEvent(context.Background(), newTestStartEvent()); err != nil {
		t.Errorf("OnEvent() after close error = %v, want nil", err)
	}
}

func TestOTelHook_CloseIsIdempotent(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}

	if err := hook.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := hook.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestOTelHook_HandleResultWithoutStartReturnsNil(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	// No root span yet, the event is dropped silently.
	if err := hook.OnEvent(context.Background(), newTestResultEvent(1, 1, true)); err != nil {
		t.Errorf("OnEvent(result) error = %v, want nil", err)
	}
}

func TestOTelHook_HandleSummaryWithoutStartReturnsNil(t *testing.T) {
	skipIfNoOTLPCollector(t)

	hook, err := NewOTelHook(testOTelOptions())
	if err != nil {
		t.Fatalf("NewOTelHook() error = %v", err)
	}
	defer hook.Close()

	if err := hook.OnEvent(context.Background(), newTestSummaryEvent()); err != nil {
		t.Errorf("OnEvent(summary) error = %v, want nil", err)
	}
}
