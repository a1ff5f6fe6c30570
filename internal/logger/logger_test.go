package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbsmedya/gocatalog/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := parseLevel(tt.input)
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.LoggingConfig
	}{
		{name: "json format info level", cfg: &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{name: "text format debug level", cfg: &config.LoggingConfig{Level: "debug", Format: "text", Output: "stdout"}},
		{name: "stderr output", cfg: &config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}},
		{name: "file output", cfg: &config.LoggingConfig{Level: "warn", Format: "json", Output: filepath.Join(t.TempDir(), "log.json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger without error")
			}
			_ = logger.Sync()
		})
	}
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("NewDefault() returned nil")
	}
	logger.Info("test message")
	_ = logger.Sync()
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.WithTable("_tables").Errorw("discarded", "k", "v")
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() on nop logger returned %v", err)
	}
}

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	batch := uuid.MustParse("6f1c2d0e-8a4b-4f7e-9c3d-2b1a0e9f8d7c")
	logger.WithSource("shop").WithBatch(batch).WithTable("_columns").
		WithFields(map[string]interface{}{"rows": 3}).Info("reconciled")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	expected := map[string]interface{}{"source": "shop", "batch": batch.String(), "table": "_columns", "rows": int64(3)}
	for k, v := range expected {
		if fields[k] != v {
			t.Errorf("field %s = %v, expected %v", k, fields[k], v)
		}
	}
}

func TestNamedAndCatalogObject(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).Named(ComponentSync).Named(ComponentStore)

	logger.WithCatalogObject("_columns", "shop", "public").Debug("table reconciled")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "sync.store" {
		t.Errorf("LoggerName = %q, expected %q", entries[0].LoggerName, "sync.store")
	}
	fields := entries[0].ContextMap()
	expected := map[string]interface{}{"table": "_columns", "catalog": "shop", "schema": "public"}
	for k, v := range expected {
		if fields[k] != v {
			t.Errorf("field %s = %v, expected %v", k, fields[k], v)
		}
	}
}

func TestWithReturnsNewInstance(t *testing.T) {
	logger := NewNop()
	if logger.WithTable("x") == logger {
		t.Error("WithTable() should return a new logger instance")
	}
}

func TestBuildEncoder(t *testing.T) {
	for _, format := range []string{"json", "text", "unknown"} {
		if buildEncoder(format) == nil {
			t.Errorf("buildEncoder(%q) returned nil", format)
		}
	}
}

func TestBuildWriters(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "", filepath.Join(t.TempDir(), "out.log")} {
		if buildWriters(output) == nil {
			t.Errorf("buildWriters(%q) returned nil", output)
		}
	}
}

func TestLoggingOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logger-test.json")

	logger, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("test info message")
	logger.Debug("hidden debug message")
	logger.WithSource("warehouse").Warn("message with source context")
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "test info message") {
		t.Error("Log file should contain 'test info message'")
	}
	if strings.Contains(contentStr, "hidden debug message") {
		t.Error("Debug message should be filtered at info level")
	}
	if !strings.Contains(contentStr, `"source":"warehouse"`) {
		t.Error("Log file should contain source context")
	}
}
