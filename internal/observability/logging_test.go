package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewSlogLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(LogConfig{Level: "info", Format: "json", Output: &buf})
	logger.Info("tool registered", "name", "read_range")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "tool registered" {
		t.Fatalf("expected msg field, got %+v", record)
	}
	if record["name"] != "read_range" {
		t.Fatalf("expected name field, got %+v", record)
	}
}

func TestNewSlogLoggerWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(LogConfig{Level: "debug", Format: "text", Output: &buf})
	logger.Debug("compiling plan")

	if !strings.Contains(buf.String(), "compiling plan") {
		t.Fatalf("expected text output to contain the message, got %q", buf.String())
	}
}

func TestNewSlogLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(LogConfig{Level: "warn", Format: "json", Output: &buf})
	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered below warn level, got %q", buf.String())
	}
	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Fatal("expected warn to be logged")
	}
}

func TestNewSlogLoggerRedactsAPIKeyInMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(LogConfig{Format: "json", Output: &buf})
	logger.Info(`request failed api_key=sk-ant-REDACTED`)

	if strings.Contains(buf.String(), "sk-ant-") {
		t.Fatalf("expected api key to be redacted, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("expected redaction marker, got %q", buf.String())
	}
}

func TestNewSlogLoggerRedactsErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(LogConfig{Format: "json", Output: &buf})
	logger.Error("llm call failed", "error", errors.New("token: abcdefghijklmnopqrstuvwxyz123456"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON output, got %q: %v", buf.String(), err)
	}
	if errAttr, _ := record["error"].(string); strings.Contains(errAttr, "abcdefghijklmnopqrstuvwxyz123456") {
		t.Fatalf("expected error attribute to be redacted, got %q", errAttr)
	}
}

func TestNewSlogLoggerAddsRequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(LogConfig{Format: "json", Output: &buf})
	ctx := AddRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "processing")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON output, got %q: %v", buf.String(), err)
	}
	if record["request_id"] != "req-123" {
		t.Fatalf("expected request_id attribute, got %+v", record)
	}
}

func TestNewDiscardLoggerProducesNoOutput(t *testing.T) {
	logger := NewDiscardLogger()
	logger.Error("this should go nowhere")
}
