package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewJSONTo_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONTo(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("search failed", "error", "boom", "session_id", "s1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["err"] != "boom" {
		t.Errorf("expected error renamed to err, got %v", rec)
	}
	if _, ok := rec["error"]; ok {
		t.Error("expected the error key to be gone")
	}
	if rec["session_id"] != "s1" {
		t.Errorf("expected session_id, got %v", rec)
	}
}
