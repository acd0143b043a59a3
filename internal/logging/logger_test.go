package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"brewtracker/internal/config"
)

func TestNew_JSONInRelease(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.Common{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.0", "brewtracker")

	logger.Debug("hidden")
	logger.Info("hello", "og", 1.048)

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record written at info level: %s", line)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, line)
	}
	for key, want := range map[string]any{"msg": "hello", "app": "brewtracker", "version": "1.2.0", "env": "prod"} {
		if rec[key] != want {
			t.Errorf("%s = %v; want %v", key, rec[key], want)
		}
	}
}

func TestNew_TintInDev(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.Common{AppEnv: "dev", LogLevel: slog.LevelDebug}, "dev", "tiltbridge")

	logger.Debug("scan")

	out := buf.String()
	if !strings.Contains(out, "scan") || !strings.Contains(out, "tiltbridge") {
		t.Errorf("output = %q; want message and app name", out)
	}
	if json.Valid([]byte(strings.TrimSpace(out))) {
		t.Errorf("dev output should be human readable, got JSON: %s", out)
	}
}
