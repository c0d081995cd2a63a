package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_Environments(t *testing.T) {
	for _, env := range []string{"development", "production", "test"} {
		logger := New(env, "")
		if logger == nil {
			t.Fatalf("Expected logger for env %s", env)
		}
		if logger.GetZerolog() == nil {
			t.Errorf("Expected zerolog instance for env %s", env)
		}
	}
}

func TestNew_LevelOverride(t *testing.T) {
	logger := New("production", "WARN")
	if got := logger.GetZerolog().GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("Expected warn level, got %s", got)
	}

	logger = New("development", "")
	if got := logger.GetZerolog().GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("Expected debug level in development, got %s", got)
	}

	logger = New("production", "not-a-level")
	if got := logger.GetZerolog().GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("Expected info level fallback, got %s", got)
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.DebugLevel)

	logger.Debug("debug message", Fields{"row": 3})
	logger.Info("info message", Fields{"page_size": 20})
	logger.Warn("warning message", Fields{"reason": "prompt_pending"})
	logger.Error("error occurred", errors.New("backend unreachable"), Fields{"op": "load"})

	output := buf.String()
	for _, want := range []string{"debug message", "info message", "warning message", "error occurred", "backend unreachable", "prompt_pending", "load"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected log output to contain %q", want)
		}
	}
}

func TestInfoLevelSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.Debug("debug message", nil)
	if strings.Contains(buf.String(), "debug message") {
		t.Error("Debug message should not appear at info level")
	}

	logger.Info("info message", nil)
	if !strings.Contains(buf.String(), "info message") {
		t.Error("Info message should appear at info level")
	}
}

func TestChildLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.WithSession("grid", "sess-1").WithRequestID("req-9").
		With(Fields{"component": "dataset"}).
		Info("records loaded", nil)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON output, got error: %v", err)
	}
	if entry["page"] != "grid" || entry["session_id"] != "sess-1" {
		t.Errorf("Expected session fields, got %v", entry)
	}
	if entry["request_id"] != "req-9" || entry["component"] != "dataset" {
		t.Errorf("Expected request and component fields, got %v", entry)
	}
	if entry["message"] != "records loaded" {
		t.Error("Expected JSON to contain message field")
	}
}

func TestNop(t *testing.T) {
	// Should not panic
	Nop().Error("ignored", errors.New("x"), Fields{"a": 1})
}
