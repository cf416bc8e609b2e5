package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(b), &m); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, b)
	}
	return m
}

func TestBuild_FieldsAndContext(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info", Service: "seamd", Component: "http"}, &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithOperation(ctx, "split")
	ctx = WithJobID(ctx, "")
	FromContext(ctx, &zl).Info().Msg("hello")

	m := decode(t, buf.Bytes())
	for k, want := range map[string]string{
		"service":    "seamd",
		"component":  "http",
		"request_id": "req-1",
		"operation":  "split",
		"msg":        "hello",
		"level":      "info",
	} {
		if m[k] != want {
			t.Fatalf("%s=%v want %q (line %v)", k, m[k], want, m)
		}
	}
	if _, ok := m["job_id"]; ok {
		t.Fatalf("empty job id should not be logged")
	}
	if _, ok := m["timestamp"]; !ok {
		t.Fatalf("missing timestamp")
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if id := RequestID(ctx); len(id) != 16 {
		t.Fatalf("generated id %q", id)
	}
}

func TestNewSlog_LevelsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	sl := NewSlog(&zl)

	sl.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn, got %q", buf.String())
	}

	sl.With("topic", "jobs").WithGroup("kafka").Warn("rebalance", "partition", 3, "err", errors.New("boom"))
	m := decode(t, buf.Bytes())
	if m["level"] != "warn" || m["msg"] != "rebalance" {
		t.Fatalf("line %v", m)
	}
	if m["topic"] != "jobs" || m["kafka.partition"] != float64(3) || m["kafka.err"] != "boom" {
		t.Fatalf("attrs %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel(" DEBUG ").String() != "debug" || ParseLevel("bogus").String() != "info" {
		t.Fatalf("ParseLevel mismatch")
	}
}
