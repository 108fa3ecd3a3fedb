package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

// setupTestEngine mirrors the teacher's setupTestStorage helper: a fresh
// temp directory backing a fresh Engine, with a no-op logger so tests
// don't spam output.
func setupTestEngine(t *testing.T) (*Engine, func()) {
	t.Helper()
	dir := t.TempDir()
	log := logrus.New()
	log.SetOutput(discardWriter{})
	e, err := NewEngine(dir, log)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, func() { os.RemoveAll(dir) }
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// writeFileHelper writes raw bytes to path, creating parent directories as
// needed, for tests that need to construct malformed on-disk state.
func writeFileHelper(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("writeFileHelper mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writeFileHelper write: %v", err)
	}
}
