package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"plan-catalog/internal/config"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LogConfig{Level: "debug", Format: "json"}, false)

	ctx := WithTraceID(context.Background(), "01HTRACE")
	ctx = WithPlanID(ctx, "plan-1")
	ctx = WithActor(ctx, "api_key")
	With(ctx, base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if line["trace_id"] != "01HTRACE" || line["plan_id"] != "plan-1" || line["actor"] != "api_key" {
		t.Fatalf("missing context fields: %v", line)
	}
	if TraceID(ctx) != "01HTRACE" {
		t.Fatalf("TraceID = %q", TraceID(ctx))
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
	l.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Fatal("warn should be written")
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, config.LogConfig{Level: "loud", Format: "json"}, false)
	l.Debug().Msg("dropped")
	l.Info().Msg("kept")
	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Fatalf("expected exactly one line, got %q", buf.String())
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("short", false); got != "***" {
		t.Errorf("Redact(short) = %q", got)
	}
	if got := Redact("supersecretkey", false); got != "supe...ey" {
		t.Errorf("Redact(long) = %q", got)
	}
	if got := Redact("supersecretkey", true); got != "supersecretkey" {
		t.Errorf("dev mode must not redact, got %q", got)
	}
}
