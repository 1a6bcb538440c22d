package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env   string
		level slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.env)
		if got := LogLevel(); got != tt.level {
			t.Errorf("LOG_LEVEL=%q: expected %v, got %v", tt.env, tt.level, got)
		}
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_LEVEL", "INFO")

	var buf bytes.Buffer
	logger := WithSpecies(NewLogger(&buf), "100001")
	logger.Info("hello")

	out := buf.String()
	if !strings.Contains(out, "species_id=100001") {
		t.Errorf("expected species_id attr in %q", out)
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger without context value")
	}

	var buf bytes.Buffer
	logger := NewLogger(&buf)
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveOutcome("genes", "SUCCEEDED")
	m.ObserveOutcome("genes", "SUCCEEDED")
	m.WorkerStarted()
	m.WorkerStarted()
	m.WorkerFinished("genes", time.Second)
	m.ExistsRetried()

	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("genes", "SUCCEEDED")); got != 2 {
		t.Errorf("expected 2 outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeWorkers); got != 1 {
		t.Errorf("expected 1 active worker, got %v", got)
	}
	if got := testutil.ToFloat64(m.existsRetries); got != 1 {
		t.Errorf("expected 1 retry, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveOutcome("genes", "FAILED")
	m.WorkerStarted()
	m.WorkerFinished("genes", time.Second)
	m.ExistsRetried()
}
