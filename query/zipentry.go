package query

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
)

// openZipEntry opens the archive at packPath and returns a reader over the
// single entry matching name (tried exact, then case-insensitive, then by
// basename, to tolerate the path-separator and casing looseness PDSC
// authors show in practice). The returned ReadCloser owns the archive
// handle and closes it alongside the entry reader.
func openZipEntry(packPath, name string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(packPath)
	if err != nil {
		return nil, fmt.Errorf("open pack %q: %w", packPath, err)
	}

	f := findZipEntry(zr.File, name)
	if f == nil {
		zr.Close()
		return nil, fmt.Errorf("entry %q not found in %q", name, packPath)
	}

	rc, err := f.Open()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("open entry %q in %q: %w", name, packPath, err)
	}
	return &zipEntryReader{ReadCloser: rc, closer: zr}, nil
}

func findZipEntry(files []*zip.File, name string) *zip.File {
	normalized := strings.ReplaceAll(name, `\`, "/")
	base := normalized
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}

	for _, f := range files {
		if f.Name == normalized {
			return f
		}
	}
	for _, f := range files {
		if strings.EqualFold(f.Name, normalized) {
			return f
		}
	}
	for _, f := range files {
		fname := f.Name
		if i := strings.LastIndex(fname, "/"); i >= 0 {
			fname = fname[i+1:]
		}
		if strings.EqualFold(fname, base) {
			return f
		}
	}
	return nil
}

// zipEntryReader ties a single opened archive member's lifetime to the
// archive ReadCloser it came from, so callers only need to Close the
// returned reader to release both.
type zipEntryReader struct {
	io.ReadCloser
	closer *zip.ReadCloser
}

func (z *zipEntryReader) Close() error {
	err1 := z.ReadCloser.Close()
	err2 := z.closer.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
