package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", FormatPlain)
	defer Init("info", FormatPlain)

	Info("should not appear %d", 1)
	Warn("careful %s", "now")
	Error("broken")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info message logged at warn level:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] careful now") {
		t.Errorf("missing warn message:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] broken") {
		t.Errorf("missing error message:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormats(t *testing.T) {
	defer Init("info", FormatPlain)

	var plain bytes.Buffer
	InitWriter(&plain, "info", FormatPlain)
	Info("hello")
	if strings.Contains(plain.String(), "logger_test.go") {
		t.Errorf("plain format includes the source location: %s", plain.String())
	}

	var text bytes.Buffer
	InitWriter(&text, "info", FormatText)
	Info("hello")
	if !strings.Contains(text.String(), "logger_test.go:") {
		t.Errorf("text format missing the source location: %s", text.String())
	}
}
