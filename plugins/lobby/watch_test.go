package lobby

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsWatchedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := newWatcher(dir, configFile)
	if err != nil {
		t.Fatalf("newWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatalf("write other file: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, configFile), []byte("geral: {}\n"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}

	select {
	case name := <-w.Events:
		if name != configFile {
			t.Fatalf("event for %q, want %q", name, configFile)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no event for %s", configFile)
	}
	select {
	case name := <-w.Events:
		t.Fatalf("burst produced a second event for %q", name)
	case <-time.After(2 * watchSettle):
	}
}

func TestWatcherCloseEndsEvents(t *testing.T) {
	t.Parallel()

	w, err := newWatcher(t.TempDir(), configFile)
	if err != nil {
		t.Fatalf("newWatcher() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	_ = w.Close()

	select {
	case _, ok := <-w.Events:
		if ok {
			t.Fatalf("Events delivered after Close")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Events not closed after Close")
	}
}
