package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()

	log, closer, err := New(Config{Dir: dir, Level: "debug"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.WithField("job_id", "job-1").Info("submitted")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", log.GetLevel())
	}

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to contain output")
	}
}

func TestNewStdoutOnly(t *testing.T) {
	log, closer, err := New(Config{Level: "warn", JSON: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closer.Close()

	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected JSON formatter, got %T", log.Formatter)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}
