package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
)

func TestWriteEmitsJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Warn("render.anchor_missing", map[string]any{"section": "SKILLS", "file": "a.docx"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if entry["level"] != "WARN" {
		t.Fatalf("expected WARN level, got %v", entry["level"])
	}
	if entry["msg"] != "render.anchor_missing" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
	if entry["section"] != "SKILLS" || entry["file"] != "a.docx" {
		t.Fatalf("fields missing: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts field: %v", entry)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestID(WithRequestID(context.Background(), "")); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}
