package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/vjsense/sdk/contracts"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	log.Info("midi device selected",
		log.Field().Int("deviceID", 2),
		log.Field().String("deviceName", "Launchkey"),
		log.Field().Error("error", errors.New("boom")),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["deviceID"] != int64(2) {
		t.Errorf("deviceID = %v, want 2", ctx["deviceID"])
	}
	if ctx["deviceName"] != "Launchkey" {
		t.Errorf("deviceName = %v, want Launchkey", ctx["deviceName"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("error = %v, want boom", ctx["error"])
	}
}

func TestZapLoggerSetLevelFilters(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	log.SetLevel(contracts.WarnLevel)
	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")

	if got := logs.Len(); got != 2 {
		t.Fatalf("expected 2 entries at warn and above, got %d", got)
	}

	log.SetLevel(contracts.DebugLevel)
	log.Debug("now kept")
	if got := logs.FilterMessage("now kept").Len(); got != 1 {
		t.Errorf("debug entry missing after lowering level")
	}
}

func TestZapLoggerIgnoresForeignFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	log.Info("empty field", log.Field())

	if n := len(logs.All()[0].Context); n != 0 {
		t.Errorf("expected no context fields, got %d", n)
	}
}

func TestZapLoggerFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vjsense.log")

	log := NewZapLogger()
	log.SetDestination(contracts.FileLog, path)
	log.Info("config saved", log.Field().String("path", "/tmp/config.json"))
	if s, ok := log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "config saved") {
		t.Errorf("log file does not contain message: %s", data)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want contracts.LogLevel
		err  bool
	}{
		{"debug", contracts.DebugLevel, false},
		{"WARN", contracts.WarnLevel, false},
		{"", contracts.InfoLevel, false},
		{"loud", contracts.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := contracts.ParseLogLevel(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseLogLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
