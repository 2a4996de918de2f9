package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"youdo/internal/config"
	"youdo/internal/logging"
)

func TestNew_DebugWritesToStderr(t *testing.T) {
	var errOut bytes.Buffer
	logger, closer, err := logging.New(&config.Config{Debug: true}, &errOut)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	logger.Debug("hello", "component", "test")
	if !strings.Contains(errOut.String(), "msg=hello") {
		t.Errorf("expected debug line on stderr, got %q", errOut.String())
	}
}

func TestNew_SilentByDefault(t *testing.T) {
	var errOut bytes.Buffer
	logger, closer, err := logging.New(&config.Config{}, &errOut)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	logger.Error("boom")
	if errOut.Len() != 0 {
		t.Errorf("expected no output, got %q", errOut.String())
	}
}

func TestNew_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "youdo.log")
	var errOut bytes.Buffer
	logger, closer, err := logging.New(&config.Config{LogFile: path}, &errOut)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("saved", "task_id", 7)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"saved"`) || !strings.Contains(string(data), `"task_id":7`) {
		t.Errorf("unexpected log content %q", data)
	}
	if errOut.Len() != 0 {
		t.Errorf("expected nothing on stderr without --debug, got %q", errOut.String())
	}
}
