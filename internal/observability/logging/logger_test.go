package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestJSONLoggerAddsServiceAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "api", "warn")

	logger.Info("dropped")
	logger.Warn("rag_query_completed", "entries", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected exactly one json record, got %q: %v", buf.String(), err)
	}
	if record["service"] != "api" {
		t.Fatalf("expected service attribute, got %v", record["service"])
	}
	if record["msg"] != "rag_query_completed" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerAddsSourceOnlyAtDebug(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	newJSONLogger(&debugBuf, "worker", "debug").Debug("probe")
	newJSONLogger(&infoBuf, "worker", "info").Info("probe")

	var debugRecord, infoRecord map[string]any
	if err := json.Unmarshal(debugBuf.Bytes(), &debugRecord); err != nil {
		t.Fatalf("decode debug record: %v", err)
	}
	if err := json.Unmarshal(infoBuf.Bytes(), &infoRecord); err != nil {
		t.Fatalf("decode info record: %v", err)
	}
	if _, ok := debugRecord[slog.SourceKey]; !ok {
		t.Fatalf("expected source at debug level, got %v", debugRecord)
	}
	if _, ok := infoRecord[slog.SourceKey]; ok {
		t.Fatalf("source must be omitted above debug level, got %v", infoRecord)
	}
}
