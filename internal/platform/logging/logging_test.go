package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flux/internal/platform/logging"
)

func TestNewWritesToFileAtLevel(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "flux.log")
	logger, err := logging.New(logging.Options{Level: "warn", File: path})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	_ = logger.Sync()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(raw), "hidden") || !strings.Contains(string(raw), "visible") {
		t.Fatalf("unexpected log content: %s", raw)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
	if _, err := logging.New(logging.Options{Level: "loud"}); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}
