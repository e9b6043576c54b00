package blobstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tt := []struct {
		url  string
		want string
	}{
		{"http://example.com/a/b.pdsc", "example.com/a/b.pdsc"},
		{"https://example.com/a/b.pdsc", "example.com/a/b.pdsc"},
		{"example.com/a/b.pdsc", "example.com/a/b.pdsc"}, // already canonical: idempotent
	}
	for _, tc := range tt {
		if got := Canonicalize(tc.url); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	url := "http://example.com/vendor/Pack.pdsc"
	once := Canonicalize(url)
	twice := Canonicalize(once)
	if once != twice {
		t.Fatalf("Canonicalize not idempotent: %q != %q", once, twice)
	}
}

func TestWriteReadExists(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	url := "http://example.com/vendor/Pack.pdsc"

	if s.Exists(url) {
		t.Fatal("blob should not exist before Write")
	}
	want := []byte("<package/>")
	if err := s.Write(url, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Exists(url) {
		t.Fatal("blob should exist after Write")
	}
	got, err := s.Read(url)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Read() = %q, want %q", got, want)
	}

	wantPath := filepath.Join(dir, "example.com", "vendor", "Pack.pdsc")
	if s.Path(url) != wantPath {
		t.Fatalf("Path() = %q, want %q", s.Path(url), wantPath)
	}
}

func TestWriteCreatesParentIdempotently(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	url := "http://example.com/a/b/c.pdsc"
	if err := s.Write(url, []byte("1")); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	// Re-running against the same, now-existing, parent directory must not
	// be treated as an error.
	if err := s.Write(url, []byte("2")); err != nil {
		t.Fatalf("second Write: %v", err)
	}
}

func TestAdopt(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	local := filepath.Join(dir, "local.pack")
	if err := os.WriteFile(local, []byte("PK\x03\x04"), 0o644); err != nil {
		t.Fatalf("seed local file: %v", err)
	}

	derivedURL := "http://example.com/Vendor.Pack.1.0.0.pack"
	if err := s.Adopt(local, derivedURL); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if !s.Exists(derivedURL) {
		t.Fatal("expected blob stored under the derived URL, not the local path")
	}
	if s.Exists(local) {
		t.Fatal("local path should not itself become a blob key")
	}
}
