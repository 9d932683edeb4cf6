package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWithSession(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	base := slog.New(handler)

	logger := WithSession(base, "test-session-123")
	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "session_id=test-session-123") {
		t.Errorf("Expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected message in output, got: %s", output)
	}
}

func TestWithSession_NilLogger(t *testing.T) {
	logger := WithSession(nil, "test-session")
	if logger != nil {
		t.Error("WithSession(nil, ...) should return nil")
	}
}

func TestWithConnection(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	base := slog.New(handler)

	logger := WithConnection(base, 7, "session-xyz")
	logger.Info("connection test")

	output := buf.String()
	if !strings.Contains(output, "conn_id=7") {
		t.Errorf("Expected conn_id in output, got: %s", output)
	}
	if !strings.Contains(output, "session_id=session-xyz") {
		t.Errorf("Expected session_id in output, got: %s", output)
	}
}

func TestWithConnection_NilLogger(t *testing.T) {
	logger := WithConnection(nil, 1, "session")
	if logger != nil {
		t.Error("WithConnection(nil, ...) should return nil")
	}
}

func TestWithSession_MultipleMessages(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	base := slog.New(handler)

	logger := WithSession(base, "persistent-session")

	// Log multiple messages - all should have session_id
	logger.Info("first message")
	logger.Debug("second message")
	logger.Warn("third message")

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")

	if len(lines) != 3 {
		t.Errorf("Expected 3 log lines, got %d", len(lines))
	}

	for i, line := range lines {
		if !strings.Contains(line, "session_id=persistent-session") {
			t.Errorf("Line %d missing session_id: %s", i+1, line)
		}
	}
}

func TestComponentFiltering(t *testing.T) {
	// Allow only the "api" component
	componentsMu.Lock()
	allowedComponents = map[string]bool{"api": true}
	componentsMu.Unlock()
	defer func() {
		componentsMu.Lock()
		allowedComponents = nil
		componentsMu.Unlock()
	}()

	if !isComponentAllowed("api") {
		t.Error("api component should be allowed")
	}
	if isComponentAllowed("chat") {
		t.Error("chat component should be filtered out")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
