package common

import (
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerLevels(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	l := newLogger(obs, "shop")

	l.Debugf("hidden %d", 1)
	l.Infof("visible %d", 2)
	l.Warningf("careful")
	l.Errorf("broken: %v", "disk")

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "visible 2" || entries[0].Level != zapcore.InfoLevel {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %s", entries[1].Level)
	}
	if entries[2].Message != "broken: disk" || entries[2].Level != zapcore.ErrorLevel {
		t.Errorf("unexpected last entry: %+v", entries[2])
	}
	for _, e := range entries {
		if e.LoggerName != "shop" {
			t.Errorf("expected logger name shop, got %q", e.LoggerName)
		}
	}

	l.SetLevel(logger.DEBUG)
	l.Debugf("now visible")
	if logs.FilterMessage("now visible").Len() != 1 {
		t.Errorf("debug message not logged after SetLevel(DEBUG)")
	}

	l.SetLevel(logger.ERROR)
	l.Warningf("dropped")
	if logs.FilterMessage("dropped").Len() != 0 {
		t.Errorf("warning logged at level ERROR")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logger.LogLevel
		wantErr bool
	}{
		{"debug", logger.DEBUG, false},
		{"INFO", logger.INFO, false},
		{"warn", logger.WARNING, false},
		{"warning", logger.WARNING, false},
		{"error", logger.ERROR, false},
		{"verbose", logger.INFO, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
