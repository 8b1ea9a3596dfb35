package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.log")

	l, flush, err := Setup(Options{Level: "debug", Filename: path, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if zap.L() != l {
		t.Error("Logger should be installed globally")
	}

	zap.L().Info("Bought coin", zap.String("coin", "bitcoin"))
	flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"Bought coin"`) || !strings.Contains(line, `"coin":"bitcoin"`) {
		t.Errorf("Unexpected log line: %s", line)
	}
}

func TestSetup_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.log")

	_, flush, err := Setup(Options{Level: "warn", Filename: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	zap.L().Info("hidden")
	zap.L().Warn("shown")
	flush()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "shown") {
		t.Errorf("Level filter not applied: %s", data)
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	if _, _, err := Setup(Options{Level: "loud"}); err == nil {
		t.Error("Expected an error for an unknown level")
	}
}
