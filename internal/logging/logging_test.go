package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: LevelInfo})
	l := &Logger{Logger: slog.New(handler), config: DefaultConfig()}

	l.Info("hello", "answer", 42)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
}

func TestRedaction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "askd.log")

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("configured provider", "api_key", "sk-very-secret")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "sk-very-secret") {
		t.Error("api key leaked into log output")
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Error("expected redaction marker in log output")
	}
}

func TestRollover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roll.log")
	f, err := openRollover(path, 1) // 1 MB
	if err != nil {
		t.Fatalf("openRollover: %v", err)
	}
	defer f.Close()

	line := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ { // ~1.25 MB total
		if _, err := f.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if _, err := os.Stat(path + ".old"); err != nil {
		t.Errorf("expected rolled file: %v", err)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, nil)
	l := &Logger{Logger: slog.New(handler), config: DefaultConfig()}

	l.WithComponent("tracker").Info("ready")
	if !strings.Contains(buf.String(), "component=tracker") {
		t.Errorf("missing component attr: %s", buf.String())
	}
}
