package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup_WritesToConfiguredOutput(t *testing.T) {
	tests := []struct {
		name  string
		level LogLevel
		emit  func(logger zerolog.Logger)
	}{
		{"debug", LevelDebug, func(l zerolog.Logger) { l.Debug().Msg("bucket acquired") }},
		{"info", LevelInfo, func(l zerolog.Logger) { l.Info().Msg("request complete") }},
		{"warn", LevelWarn, func(l zerolog.Logger) { l.Warn().Msg("retrying request") }},
		{"error", LevelError, func(l zerolog.Logger) { l.Error().Msg("retries exhausted") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Output: buf})

			tt.emit(logger)

			if buf.Len() == 0 {
				t.Errorf("Expected output at level %s", tt.level)
			}
			if !strings.Contains(buf.String(), `"level":"`+tt.name+`"`) {
				t.Errorf("Expected %s level field, got %q", tt.name, buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"INFO", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewLogger_CarriesComponentField(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("gtex-client")
	logger.Info().Str("endpoint", "reference/geneSearch").Msg("request complete")

	output := buf.String()
	if !strings.Contains(output, `"component":"gtex-client"`) {
		t.Errorf("Expected component field, got %q", output)
	}
	if !strings.Contains(output, `"endpoint":"reference/geneSearch"`) {
		t.Errorf("Expected endpoint field, got %q", output)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})

	logger := NewLogger("test")
	logger.Debug().Msg("cache hit")
	logger.Info().Msg("request complete")
	logger.Warn().Msg("throttled")
	logger.Error().Msg("upstream failure")

	output := buf.String()
	for _, suppressed := range []string{"cache hit", "request complete"} {
		if strings.Contains(output, suppressed) {
			t.Errorf("Message %q should be filtered at warn level", suppressed)
		}
	}
	for _, kept := range []string{"throttled", "upstream failure"} {
		if !strings.Contains(output, kept) {
			t.Errorf("Message %q should pass at warn level", kept)
		}
	}
}
