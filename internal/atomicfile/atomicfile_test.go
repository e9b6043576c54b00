package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommitRenamesIntoPlace(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "sub", "blob.bin")

	f, err := New(final)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Discard()

	if _, err := f.Write([]byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	tmpName := f.File.Name()

	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := os.Stat(tmpName); !os.IsNotExist(err) {
		t.Fatalf("temp file %q should be gone after Commit", tmpName)
	}
	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("ReadFile(final): %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("final contents = %q, want %q", got, "payload")
	}
}

func TestDiscardRemovesUncommittedTemp(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "blob.bin")

	f, err := New(final)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tmpName := f.File.Name()
	f.Discard()

	if _, err := os.Stat(tmpName); !os.IsNotExist(err) {
		t.Fatalf("temp file %q should be removed after Discard", tmpName)
	}
	if _, err := os.Stat(final); !os.IsNotExist(err) {
		t.Fatal("final path should never have been created")
	}
}

func TestDiscardAfterCommitIsNoop(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "blob.bin")

	f, err := New(final)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	f.Discard() // must not remove the committed final file

	if _, err := os.Stat(final); err != nil {
		t.Fatalf("final file should survive a post-Commit Discard: %v", err)
	}
}
