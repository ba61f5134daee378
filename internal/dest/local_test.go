package dest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetch.tmp")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewLocalWriterRequiresPath(t *testing.T) {
	if _, err := NewLocalWriter("", discardLogger()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLocalWriterNeverSkips(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	// Even with the file present, local mode overwrites.
	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	skip, err := w.ShouldSkip(context.Background(), "a.csv")
	if err != nil {
		t.Fatalf("ShouldSkip failed: %v", err)
	}
	if skip {
		t.Error("local writer must never skip")
	}
}

func TestLocalWriterStore(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	temp := writeTemp(t, "payload")
	if err := w.Store(context.Background(), temp, "batch/a.csv"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "batch", "a.csv"))
	if err != nil {
		t.Fatalf("destination file missing: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("unexpected content %q", got)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("expected temp file to be consumed by the move")
	}
}

func TestLocalWriterCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet", "there")
	w, err := NewLocalWriter(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	temp := writeTemp(t, "x")
	if err := w.Store(context.Background(), temp, "a.csv"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.csv")); err != nil {
		t.Fatalf("destination file missing: %v", err)
	}
}

func TestLocalWriterOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	temp := writeTemp(t, "new")
	if err := w.Store(context.Background(), temp, "a.csv"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(dir, "a.csv"))
	if string(got) != "new" {
		t.Errorf("expected overwrite, got %q", got)
	}
}

func TestLocalWriterRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	temp := writeTemp(t, "x")
	if err := w.Store(context.Background(), temp, "../escape.csv"); err == nil {
		t.Fatal("expected traversal name to fail")
	}
}
