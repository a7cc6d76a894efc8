package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ganaterm/pkg/config"
)

func TestInitCreatesLogFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logPath := filepath.Join(t.TempDir(), "logs", "ganaterm.log")

	cfg := config.Default()
	cfg.LogFile = logPath
	cfg.LogFormat = "json"
	cfg.LogLevel = "info"

	logger, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	logger.Info("hello", slog.String("component", "test"))
	logger.Debug("hidden_debug_event")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("Expected log to contain message, got: %s", string(data))
	}
	if strings.Contains(string(data), "hidden_debug_event") {
		t.Fatal("Expected debug event to be filtered at info level")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler("text", &buf, nil)).Info("evt", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected text output, got %q", buf.String())
	}

	buf.Reset()
	slog.New(newHandler("json", &buf, nil)).Info("evt", "k", "v")
	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("expected json output, got %q", buf.String())
	}
}

func TestWithTurn(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(newHandler("json", &buf, nil))

	logger, id := WithTurn(base)
	if id == "" {
		t.Fatal("expected a turn id")
	}
	logger.Info("provider_attempt")

	if !strings.Contains(buf.String(), id) {
		t.Errorf("expected turn id %q in %q", id, buf.String())
	}

	_, other := WithTurn(base)
	if other == id {
		t.Error("expected distinct turn ids")
	}
}
