package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSignalManagerStopCycle(t *testing.T) {
	tmpDir := t.TempDir()

	sm, err := NewSignalManager(tmpDir)
	if err != nil {
		t.Fatalf("failed to create signal manager: %v", err)
	}
	defer sm.Close()

	if sm.ShouldStop() {
		t.Error("fresh manager should not report stop")
	}

	if err := sm.SendStop(); err != nil {
		t.Fatalf("failed to send stop: %v", err)
	}
	if !sm.ShouldStop() {
		t.Error("expected stop after SendStop")
	}

	sm.ClearSignals()
	if sm.ShouldStop() {
		t.Error("expected no stop after ClearSignals")
	}
}

func TestSignalManagerDetectsExternalStopFile(t *testing.T) {
	tmpDir := t.TempDir()

	sm, err := NewSignalManager(tmpDir)
	if err != nil {
		t.Fatalf("failed to create signal manager: %v", err)
	}
	defer sm.Close()

	// Another process writes the stop file directly.
	stopPath := filepath.Join(tmpDir, ".nexus", "signals", "stop")
	if err := os.WriteFile(stopPath, []byte("now"), 0644); err != nil {
		t.Fatalf("failed to write stop file: %v", err)
	}

	if !sm.ShouldStop() {
		t.Error("expected stop file to be detected")
	}
}

func TestDebugLoggerNoopOnEmptyPath(t *testing.T) {
	logger, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Log("ignored %d", 1)
	if err := logger.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestDebugLoggerWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	logger, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	logger.Log("run %s routed %s", "abc", "UPSTREAM")
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log content")
	}
	if got := string(data); !strings.Contains(got, "run abc routed UPSTREAM") {
		t.Errorf("unexpected log content: %q", got)
	}
}
