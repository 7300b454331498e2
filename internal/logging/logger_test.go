package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: WARN, Output: &buf, Component: "test"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("INFO entry should be filtered at WARN level")
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("WARN entry missing, got %q", out)
	}
	if !strings.Contains(out, "[test]") {
		t.Errorf("component tag missing, got %q", out)
	}
}

func TestFieldLoggerSortsFields(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: DEBUG, Output: &buf})

	l.WithFields(Fields{"stage": "parse", "attempt": 2}).Debug("strategy failed")

	if !strings.Contains(buf.String(), "strategy failed attempt=2 stage=parse") {
		t.Errorf("unexpected entry %q", buf.String())
	}
}

func TestFileLoggingWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, err := New(Config{
		Level:      INFO,
		LogDir:     dir,
		EnableFile: true,
		EnableJSON: true,
		Component:  "web",
		Output:     &buf,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	l.Info("hello")
	l.Close()

	data, err := os.ReadFile(filepath.Join(dir, "cloudcost-guard.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"component":"web"`) || !strings.Contains(string(data), `"message":"hello"`) {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"debug": DEBUG, "WARN": WARN, "error": ERROR, "": INFO, "bogus": INFO}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(512); got != "512 B" {
		t.Errorf("FormatSize(512) = %v", got)
	}
	if got := FormatSize(2048); got != "2.0 KB" {
		t.Errorf("FormatSize(2048) = %v", got)
	}
}
