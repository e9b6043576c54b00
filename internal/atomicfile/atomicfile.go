// Package atomicfile provides a temp-file-then-rename write so a blob store
// write that's interrupted midway never leaves a partially-written file
// sitting at its final path.
package atomicfile

import (
	"os"
	"path/filepath"
)

// File is a temp file that either becomes finalPath via Commit, or is
// removed via Discard.
type File struct {
	*os.File
	finalPath string
	done      bool
}

// New creates a temp file alongside finalPath, so the later rename stays on
// one filesystem and is atomic.
func New(finalPath string) (*File, error) {
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, ".atomicfile-*")
	if err != nil {
		return nil, err
	}
	return &File{File: f, finalPath: finalPath}, nil
}

// Commit closes the temp file and renames it into place as finalPath.
func (f *File) Commit() error {
	if err := f.File.Close(); err != nil {
		os.Remove(f.File.Name())
		return err
	}
	if err := os.Rename(f.File.Name(), f.finalPath); err != nil {
		os.Remove(f.File.Name())
		return err
	}
	f.done = true
	return nil
}

// Discard removes the temp file if Commit was never called. Callers defer
// this right after New.
func (f *File) Discard() {
	if f.done {
		return
	}
	f.File.Close()
	os.Remove(f.File.Name())
}
