package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		output      string
		shouldError bool
	}{
		{"debug text stderr", "debug", "text", "stderr", false},
		{"info json stdout", "info", "json", "stdout", false},
		{"warn text stderr", "warn", "text", "stderr", false},
		{"error json stderr", "error", "json", "stderr", false},
		{"default level", "", "", "", false},
		{"invalid level", "invalid", "text", "stderr", true},
		{"invalid format", "info", "xml", "stderr", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.format, tt.output)

			if tt.shouldError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if log == nil {
				t.Fatal("Logger is nil")
			}
		})
	}
}

func TestLoggerToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	log, err := New("info", "text", logFile)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	log.Info("test message", zap.String("key", "value"))
	log.Debug("hidden message")
	_ = log.Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "test message") {
		t.Error("Log file doesn't contain expected message")
	}
	if strings.Contains(string(content), "hidden message") {
		t.Error("Log file contains a message below the level")
	}
}

func TestLoggerToBadPath(t *testing.T) {
	if _, err := New("info", "text", filepath.Join(t.TempDir(), "missing", "test.log")); err == nil {
		t.Error("Expected error for an unwritable log path")
	}
}

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter("debug", "json", &buf)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	log.Debug("window evaluated", zap.Int("rows", 3))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "window evaluated" || entry["rows"] != float64(3) {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Errorf("entry has no timestamp: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "warning", "error"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q) error = %v", s, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel() expected error for unknown level")
	}
}
