package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit_CreatesLogFile(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")
	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { Logger = nil })

	Info("scan finished", "suggestions", 3)
	Debug("hidden below info level")

	data, err := os.ReadFile(filepath.Join(configDir, "logs", "dayfill.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "scan finished") {
		t.Errorf("log file = %q", data)
	}
	if strings.Contains(string(data), "hidden below info level") {
		t.Error("debug message written at info level")
	}
}

func TestSetOutput_Level(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.WarnLevel)
	t.Cleanup(func() { Logger = nil })

	Info("reconcile pass")
	Warn("calendar unreadable", "path", "work.ics")
	Error("apply failed")

	out := buf.String()
	if strings.Contains(out, "reconcile pass") {
		t.Errorf("info written at warn level: %q", out)
	}
	if !strings.Contains(out, "calendar unreadable") || !strings.Contains(out, "path=work.ics") || !strings.Contains(out, "apply failed") {
		t.Errorf("output = %q", out)
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil
	Debug("no logger")
	Info("no logger")
	Warn("no logger")
	Error("no logger")
}
