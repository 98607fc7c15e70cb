package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	f.ColorOutput = false
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelInfo,
		Category: "Test",
		Message:  "Hello",
		Fields:   []Field{{Key: "key", Value: "val"}},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	str := string(out)
	if !strings.Contains(str, "INFO") {
		t.Error("Expected level INFO")
	}
	if !strings.Contains(str, "[Test]") {
		t.Error("Expected category [Test]")
	}
	if !strings.Contains(str, "Hello") {
		t.Error("Expected message Hello")
	}
	if !strings.Contains(str, "key=val") {
		t.Error("Expected field key=val")
	}
	if !strings.HasSuffix(str, "\n") {
		t.Error("Expected trailing newline")
	}
}

func TestMinimumLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LogLevelWarn)

	logger.Info("dropped")
	logger.Warn("kept", Field{Key: "module", Value: "a"})

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN [modkit] kept {module=a}") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestWithFieldsDoesNotShareBacking(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, LogLevelInfo).WithFields(Field{Key: "build", Value: "b1"})

	a := base.WithFields(Field{Key: "module", Value: "a"})
	b := base.WithFields(Field{Key: "module", Value: "b"})

	a.Info("first")
	b.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "module=a") || !strings.Contains(lines[1], "module=b") {
		t.Errorf("fields leaked between loggers: %v", lines)
	}
}

func TestWithCategory(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LogLevelInfo).WithCategory("module:a")
	logger.Info("hi")

	if !strings.Contains(buf.String(), "[module:a]") {
		t.Errorf("expected category, got %q", buf.String())
	}
}

func TestJSONProvider(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggingBuilder().SetMinimumLevel(LogLevelDebug).AddJSON(&buf).Build()
	logger := factory.CreateLogger("Test")

	logger.Warn("Hello", Field{Key: "key", Value: "val"}, Field{Key: "error", Value: errors.New("boom")})

	var data map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &data); err != nil {
		t.Fatalf("Unmarshal failed: %v (%q)", err, buf.String())
	}

	if data["level"] != "warn" {
		t.Errorf("Expected level warn, got %v", data["level"])
	}
	if data["category"] != "Test" {
		t.Errorf("Expected category Test, got %v", data["category"])
	}
	if data["message"] != "Hello" {
		t.Errorf("Expected message Hello, got %v", data["message"])
	}
	if data["key"] != "val" {
		t.Errorf("Expected key=val, got %v", data["key"])
	}
	if data["error"] != "boom" {
		t.Errorf("Expected error boom, got %v", data["error"])
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error("nothing happens")
	logger.WithFields(Field{Key: "a", Value: 1}).Warn("still nothing")
}

func BenchmarkTextLogging(b *testing.B) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LogLevelInfo)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("Benchmark", Field{Key: "i", Value: i})
		buf.Reset()
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    LogLevel
		wantErr bool
	}{
		{"trace", LogLevelTrace, false},
		{"DEBUG", LogLevelDebug, false},
		{"", LogLevelInfo, false},
		{" warning ", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"loud", LogLevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBuilderDebugLowersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggingBuilder().
		SetMinimumLevel(LogLevelWarn).
		AddConsole(ConsoleLoggerOptions{Output: &buf}).
		Debug(true).
		Logger()

	logger.Debug("visible")
	logger.Trace("hidden")
	if !strings.Contains(buf.String(), "DEBUG [modkit] visible") {
		t.Errorf("debug line missing, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("trace line should be filtered, got %q", buf.String())
	}

	buf.Reset()
	quiet := NewLoggingBuilder().SetMinimumLevel(LogLevelTrace).AddConsole(ConsoleLoggerOptions{Output: &buf}).Debug(false).Logger()
	quiet.Trace("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("Debug(false) should not raise the level, got %q", buf.String())
	}
}

func TestBuilderAddOutput(t *testing.T) {
	var buf bytes.Buffer
	b := NewLoggingBuilder().SetCategory("build")
	if err := b.AddOutput("json", &buf); err != nil {
		t.Fatalf("AddOutput json: %v", err)
	}
	if err := b.SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	logger := b.Logger()
	logger.Info("dropped")
	logger.Warn("slow")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if line["category"] != "build" || line["message"] != "slow" {
		t.Errorf("unexpected JSON line %v", line)
	}

	if err := NewLoggingBuilder().AddOutput("xml", &buf); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := NewLoggingBuilder().SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
