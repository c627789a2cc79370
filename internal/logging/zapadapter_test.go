package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestZapLogger(level LogLevel) (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewZapLogger(New(level, &buf)), &buf
}

func TestZapAdapterForwardsFields(t *testing.T) {
	logger, buf := newTestZapLogger(InfoLevel)

	logger.Info("run complete",
		zap.String("objective", "ackley"),
		zap.Int("generations", 100),
		zap.Float64("best_score", 0.03125),
		zap.Bool("converged", true),
		zap.Duration("elapsed", 1500*time.Millisecond),
	)

	entry := decodeLine(t, buf.Bytes())
	if entry["message"] != "run complete" {
		t.Errorf("Unexpected message: %v", entry["message"])
	}
	if entry["objective"] != "ackley" {
		t.Errorf("Expected objective field, got %v", entry["objective"])
	}
	if entry["generations"] != float64(100) {
		t.Errorf("Expected generations 100, got %v", entry["generations"])
	}
	// Floats travel as IEEE bits in Field.Integer; the adapter must decode
	// them back.
	if entry["best_score"] != 0.03125 {
		t.Errorf("Expected best_score 0.03125, got %v", entry["best_score"])
	}
	if entry["converged"] != true {
		t.Errorf("Expected converged true, got %v", entry["converged"])
	}
	if entry["elapsed"] != "1.5s" {
		t.Errorf("Expected elapsed 1.5s, got %v", entry["elapsed"])
	}
}

func TestZapAdapterErrorField(t *testing.T) {
	logger, buf := newTestZapLogger(InfoLevel)

	logger.Error("evaluation failed", zap.Error(errors.New("objective exploded")))

	entry := decodeLine(t, buf.Bytes())
	if entry["level"] != "ERROR" {
		t.Errorf("Expected ERROR level, got %v", entry["level"])
	}
	if entry["error"] != "objective exploded" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
}

func TestZapAdapterNamedLogger(t *testing.T) {
	logger, buf := newTestZapLogger(InfoLevel)

	logger.Named("firefly").Info("starting run")

	entry := decodeLine(t, buf.Bytes())
	if entry["logger"] != "firefly" {
		t.Errorf("Expected logger name field, got %v", entry["logger"])
	}
}

func TestZapAdapterLevelGate(t *testing.T) {
	logger, buf := newTestZapLogger(InfoLevel)

	logger.Debug("generation complete", zap.Int("generation", 1))
	if buf.Len() != 0 {
		t.Fatalf("Expected debug to be gated, got %q", buf.String())
	}

	logger.Info("visible")
	if buf.Len() == 0 {
		t.Fatal("Expected info output")
	}
}

func TestZapAdapterWith(t *testing.T) {
	logger, buf := newTestZapLogger(InfoLevel)

	logger.With(zap.String("job_id", "abc")).Info("job accepted")

	entry := decodeLine(t, buf.Bytes())
	if entry["job_id"] != "abc" {
		t.Errorf("Expected inherited job_id field, got %v", entry["job_id"])
	}
}

func TestZapAdapterMultipleLines(t *testing.T) {
	logger, buf := newTestZapLogger(DebugLevel)

	logger.Debug("first")
	logger.Info("second")

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}

	var first map[string]interface{}
	if err := json.Unmarshal(lines[0], &first); err != nil {
		t.Fatalf("Failed to decode first line: %v", err)
	}
	if first["level"] != "DEBUG" {
		t.Errorf("Expected DEBUG first, got %v", first["level"])
	}
}
