package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInstrumenterRecordsRun(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	inst, err := New(
		Config{ServiceName: "hurldeck-test", Version: "test"},
		WithSpanProcessor(recorder),
	)
	if err != nil {
		t.Fatalf("New instrumenter: %v", err)
	}
	t.Cleanup(func() {
		_ = inst.Shutdown(context.Background())
	})

	ctx, span := inst.Start(context.Background(), RunStart{
		FilePath:    "collections/health.hurl",
		Environment: "staging",
		Binary:      "hurl",
	})
	if ctx == nil || span == nil {
		t.Fatalf("expected span to be created")
	}

	span.End(RunResult{Success: true, Duration: 120 * time.Millisecond})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	ended := spans[0]
	if ended.Name() != "run collections/health.hurl" {
		t.Fatalf("unexpected span name %q", ended.Name())
	}
	if ended.Status().Code != codes.Ok {
		t.Fatalf("expected OK status, got %v", ended.Status())
	}

	foundEnv := false
	for _, attr := range ended.Attributes() {
		if string(attr.Key) == "hurldeck.run.environment" &&
			attr.Value.AsString() == "staging" {
			foundEnv = true
		}
	}
	if !foundEnv {
		t.Fatalf("expected environment attribute on span")
	}
}

func TestInstrumenterMarksFailures(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	inst, err := New(Config{ServiceName: "hurldeck-test"}, WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("New instrumenter: %v", err)
	}
	t.Cleanup(func() {
		_ = inst.Shutdown(context.Background())
	})

	_, span := inst.Start(context.Background(), RunStart{FilePath: "x.hurl", Binary: "hurl"})
	span.End(RunResult{Success: false, Err: errors.New("binary not found")})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", spans[0].Status())
	}
}

func TestNoopWhenUnconfigured(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := inst.(noopInstrumenter); !ok {
		t.Fatalf("expected noop instrumenter for empty config")
	}
}
