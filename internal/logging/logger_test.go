package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// decodeLine unmarshals a single JSON log line.
func decodeLine(t *testing.T, line []byte) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	logger.Info("population seeded", map[string]interface{}{
		"size":      20,
		"objective": "dejung",
	})

	entry := decodeLine(t, buf.Bytes())
	if entry["level"] != "INFO" {
		t.Errorf("Expected INFO level, got %v", entry["level"])
	}
	if entry["message"] != "population seeded" {
		t.Errorf("Unexpected message: %v", entry["message"])
	}
	if entry["size"] != float64(20) {
		t.Errorf("Expected size field 20, got %v", entry["size"])
	}
	if entry["objective"] != "dejung" {
		t.Errorf("Expected objective field, got %v", entry["objective"])
	}
	if _, ok := entry["caller"]; !ok {
		t.Error("Expected caller field")
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("Expected timestamp field")
	}
}

func TestLevelGate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("Expected no output below warn, got %q", buf.String())
	}

	logger.Warn("visible")
	if buf.Len() == 0 {
		t.Fatal("Expected warn output")
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(InfoLevel, &buf)
	child := parent.WithField("job_id", "abc")

	parent.Info("from parent")
	entry := decodeLine(t, buf.Bytes())
	if _, ok := entry["job_id"]; ok {
		t.Error("Parent logger inherited child field")
	}

	buf.Reset()
	child.Info("from child")
	entry = decodeLine(t, buf.Bytes())
	if entry["job_id"] != "abc" {
		t.Errorf("Expected job_id on child logger, got %v", entry["job_id"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	logger.WithError(errors.New("boom")).Error("evaluation failed")

	entry := decodeLine(t, buf.Bytes())
	if entry["error"] != "boom" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat(InfoLevel, FormatText, &buf)

	logger.Info("generation complete", map[string]interface{}{
		"generation": 3,
		"alpha":      0.25,
	})

	line := buf.String()
	if !strings.Contains(line, "[INFO] generation complete") {
		t.Errorf("Unexpected text line: %q", line)
	}
	if !strings.Contains(line, "alpha=0.25") {
		t.Errorf("Expected alpha field in %q", line)
	}
	if !strings.Contains(line, "generation=3") {
		t.Errorf("Expected generation field in %q", line)
	}
	// Keys print in sorted order.
	if strings.Index(line, "alpha=") > strings.Index(line, "generation=") {
		t.Errorf("Expected sorted keys in %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("Expected trailing newline in %q", line)
	}
}

func TestNewLoggerDefaults(t *testing.T) {
	logger, err := NewLogger(nil)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger.level != InfoLevel {
		t.Errorf("Expected info default, got %v", logger.level)
	}
	if logger.format != FormatJSON {
		t.Errorf("Expected json default, got %v", logger.format)
	}
}

func TestNewLoggerParsesConfig(t *testing.T) {
	logger, err := NewLogger(&Config{Level: "debug", Format: "TEXT", Output: "stderr"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger.level != DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.level)
	}
	if logger.format != FormatText {
		t.Errorf("Expected text format, got %v", logger.format)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	base := &CtxLogger{New(InfoLevel, &buf)}

	ctx := base.WithContext(context.Background())
	got := FromContext(ctx)
	if got != base {
		t.Error("Expected the logger stored in the context")
	}

	// Missing logger falls back to a stderr default rather than nil.
	if FromContext(context.Background()) == nil {
		t.Error("Expected fallback logger for empty context")
	}
}
