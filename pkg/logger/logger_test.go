package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInfoWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	log := New().WithOutput(&buf)

	log.Infof("processed slot %d", 200)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not json: %v", err)
	}
	if line["level"] != "info" {
		t.Fatalf("unexpected level: %v", line["level"])
	}
	if line["message"] != "processed slot 200" {
		t.Fatalf("unexpected message: %v", line["message"])
	}
	if _, ok := line["time"]; !ok {
		t.Fatal("expected a timestamp field")
	}
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	log := New().WithOutput(&buf)

	log.Errorf(errTest, "fetch failed for %s", "account")

	out := buf.String()
	if !strings.Contains(out, "connection reset") {
		t.Fatalf("expected error field in output: %s", out)
	}
}

func TestWithLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	log := New().WithOutput(&buf).WithLevel(zerolog.WarnLevel)

	log.Info("suppressed")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line should pass: %s", out)
	}
}

func TestConfigConvertToDomain(t *testing.T) {
	cfg := LoggerConfigJson{LogLevel: int8(zerolog.DebugLevel)}.ConvertToDomain()
	if cfg.LogLevel != zerolog.DebugLevel {
		t.Fatalf("unexpected level: %v", cfg.LogLevel)
	}
}

var errTest = errTestType{}

type errTestType struct{}

func (errTestType) Error() string { return "connection reset" }
