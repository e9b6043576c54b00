// Package blobstore implements the content-addressed on-disk blob layout:
// mapping a URL to a stable filesystem path (the URL Canonicalizer) and
// reading/writing opaque bytes at that path (the Blob Store).
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cmsispack/cpcache/internal/atomicfile"
)

// Canonicalize maps a URL to a stable, store-relative path by stripping
// exactly one leading "<scheme>://" prefix. It is idempotent on inputs that
// are already canonicalized (no "://" present, nothing is stripped) and
// injective across distinct URLs sharing a host and path, since only the
// scheme is discarded.
func Canonicalize(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[i+3:]
	}
	return url
}

// Store is a directory-backed blob store keyed by canonicalized URL.
type Store struct {
	root string
}

// New returns a Store rooted at dir. dir is not required to exist yet;
// parent directories are created lazily on first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the directory the store is rooted at.
func (s *Store) Root() string { return s.root }

// Path returns the on-disk path a blob for url would live at, without
// touching the filesystem.
func (s *Store) Path(url string) string {
	return filepath.Join(s.root, filepath.FromSlash(Canonicalize(url)))
}

// Exists reports whether a blob for url has been written.
func (s *Store) Exists(url string) bool {
	_, err := os.Stat(s.Path(url))
	return err == nil
}

// Write stores b as the blob for url, creating parent directories as
// needed. The write goes through a temp file that's renamed into place on
// success, so a write interrupted partway through never leaves a truncated
// blob at the final path.
func (s *Store) Write(url string, b []byte) error {
	p := s.Path(url)
	af, err := atomicfile.New(p)
	if err != nil {
		return fmt.Errorf("blobstore: create parent dir for %q: %w", url, err)
	}
	defer af.Discard()

	if _, err := af.Write(b); err != nil {
		return fmt.Errorf("blobstore: write blob for %q: %w", url, err)
	}
	if err := af.Commit(); err != nil {
		return fmt.Errorf("blobstore: write blob for %q: %w", url, err)
	}
	return nil
}

// Read returns the full contents of the blob for url.
func (s *Store) Read(url string) ([]byte, error) {
	b, err := os.ReadFile(s.Path(url))
	if err != nil {
		return nil, fmt.Errorf("blobstore: read blob for %q: %w", url, err)
	}
	return b, nil
}

// Open returns a stream over the blob for url. The caller must close it.
func (s *Store) Open(url string) (*os.File, error) {
	f, err := os.Open(s.Path(url))
	if err != nil {
		return nil, fmt.Errorf("blobstore: open blob for %q: %w", url, err)
	}
	return f, nil
}

// Adopt copies the local file at localPath into the blob slot for url,
// creating parent directories as needed, via the same atomic temp-file swap
// as Write.
func (s *Store) Adopt(localPath, url string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("blobstore: open local file %q: %w", localPath, err)
	}
	defer src.Close()

	p := s.Path(url)
	af, err := atomicfile.New(p)
	if err != nil {
		return fmt.Errorf("blobstore: create parent dir for %q: %w", url, err)
	}
	defer af.Discard()

	if _, err := io.Copy(af, src); err != nil {
		return fmt.Errorf("blobstore: adopt %q as %q: %w", localPath, url, err)
	}
	if err := af.Commit(); err != nil {
		return fmt.Errorf("blobstore: adopt %q as %q: %w", localPath, url, err)
	}
	return nil
}
