package logging

import (
	"path/filepath"
	"testing"
)

func TestInitWritesToRequestedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capsule.log")
	got, err := Init(Config{Level: LevelDebug, LogFile: path})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got != path {
		t.Fatalf("got %q, want %q", got, path)
	}
}

func TestInitFallsBackToTempFileWhenUnset(t *testing.T) {
	got, err := Init(Config{Level: LevelQuiet})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got == "" {
		t.Fatalf("expected a non-empty temp log path")
	}
}

func TestLevelMapping(t *testing.T) {
	if LevelDebug.slogLevel() >= LevelQuiet.slogLevel() {
		t.Fatalf("expected debug level below quiet level")
	}
	if LevelNone.slogLevel() <= LevelDebug.slogLevel() {
		t.Fatalf("expected none to suppress everything")
	}
}
