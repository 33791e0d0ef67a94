package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/swayamsankar/intern-app/internal/config"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "applicant_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["msg"] != "shown" {
		t.Errorf("expected msg 'shown', got %v", entry["msg"])
	}
	if entry["applicant_id"] != float64(7) {
		t.Errorf("expected applicant_id 7, got %v", entry["applicant_id"])
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug", "text").Debug("query", "filter", "all")
	if !strings.Contains(buf.String(), "msg=query") || !strings.Contains(buf.String(), "filter=all") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger, err := Init(config.LogConfig{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	logger.Info("server started", "port", 3001)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "server started") {
		t.Errorf("expected log line in file, got %q", data)
	}
}

func TestWriterSelectsOutput(t *testing.T) {
	tests := []struct {
		output string
		want   *os.File
	}{
		{"stdout", os.Stdout},
		{"", os.Stdout},
		{"stderr", os.Stderr},
	}
	for _, tt := range tests {
		w, err := writer(config.LogConfig{Output: tt.output})
		if err != nil {
			t.Fatalf("%q: %v", tt.output, err)
		}
		if w != tt.want {
			t.Errorf("%q: unexpected writer %v", tt.output, w)
		}
	}
}
