// Package query is the read side of the catalog: lazily loading the
// persisted index/aliases JSON, fuzzy device lookup, and on-demand
// extraction of flash algorithms and debug descriptors from cached PACK
// archives.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/quay/zlog"

	"github.com/cmsispack/cpcache"
	"github.com/cmsispack/cpcache/internal/blobstore"
)

// Scorer rates how well candidate matches query; higher is a better match.
// The default is DiceCoefficient.
type Scorer func(query, candidate string) float64

// Surface is the read side of the catalog: a device/board lookup backed by
// the JSON index the Index Builder persists, plus the PACK archives the
// blob store has cached.
type Surface struct {
	jsonPath string
	store    *blobstore.Store
	scorer   Scorer

	once    sync.Once
	loadErr error
	index   cpcache.GlobalIndex
	aliases cpcache.GlobalAliases
}

// New returns a Surface reading index.json/aliases.json from jsonPath and
// PACK archives from the blob store rooted at dataPath. A nil scorer uses
// DiceCoefficient.
func New(jsonPath, dataPath string, scorer Scorer) *Surface {
	if scorer == nil {
		scorer = DiceCoefficient
	}
	return &Surface{
		jsonPath: jsonPath,
		store:    blobstore.New(dataPath),
		scorer:   scorer,
	}
}

func (s *Surface) ensureLoaded() error {
	s.once.Do(func() {
		s.loadErr = s.load()
	})
	return s.loadErr
}

func (s *Surface) load() error {
	raw, err := os.ReadFile(filepath.Join(s.jsonPath, "index.json"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// A cache that's never been populated reads as an empty index, not an
		// error.
		s.index = cpcache.GlobalIndex{Version: cpcache.SchemaVersion, Devices: map[string]cpcache.DeviceRecord{}}
		return nil
	case err != nil:
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.load", Inner: err}
	}
	var idx cpcache.GlobalIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.load", Inner: err}
	}
	s.index = idx

	// aliases.json is a secondary artifact; its absence doesn't block device
	// lookups.
	if raw, err := os.ReadFile(filepath.Join(s.jsonPath, "aliases.json")); err == nil {
		var aliases cpcache.GlobalAliases
		if err := json.Unmarshal(raw, &aliases); err == nil {
			s.aliases = aliases
		}
	}
	return nil
}

// Index returns the loaded device index. A cache that has never been
// populated yields an index with no devices.
func (s *Surface) Index(ctx context.Context) (cpcache.GlobalIndex, error) {
	if err := s.ensureLoaded(); err != nil {
		return cpcache.GlobalIndex{}, err
	}
	return s.index, nil
}

// Aliases returns the loaded board-alias map, which may be nil if
// aliases.json was absent.
func (s *Surface) Aliases(ctx context.Context) (cpcache.GlobalAliases, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return s.aliases, nil
}

// FindDevice fuzzy-matches query against every known device name and
// returns every device tied for the top score, ordered by name: all the
// best matches, not just the first one found.
func (s *Surface) FindDevice(ctx context.Context, query string) ([]string, []cpcache.DeviceRecord, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, nil, err
	}
	if len(s.index.Devices) == 0 {
		return nil, nil, notFound("no devices in index")
	}

	best := -1.0
	var names []string
	for name := range s.index.Devices {
		score := s.scorer(query, name)
		switch {
		case score > best:
			best = score
			names = []string{name}
		case score == best:
			names = append(names, name)
		}
	}
	sort.Strings(names)

	recs := make([]cpcache.DeviceRecord, len(names))
	for i, n := range names {
		recs[i] = s.index.Devices[n]
	}
	return names, recs, nil
}

// AlgorithmReader pairs a flash algorithm's PDSC-normalized path with an
// open reader over its bytes inside the cached PACK.
type AlgorithmReader struct {
	Name string
	io.ReadCloser
}

// FlashAlgorithm opens the cached PACK for device and returns a reader over
// its first algorithm file, or every algorithm file if all is true.
// Callers must Close each returned reader.
func (s *Surface) FlashAlgorithm(ctx context.Context, device string, all bool) ([]AlgorithmReader, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	rec, ok := s.index.Devices[device]
	if !ok {
		return nil, notFound("unknown device: " + device)
	}
	if len(rec.Algorithm) == 0 {
		return nil, notFound("device has no flash algorithms: " + device)
	}

	names := make([]string, 0, len(rec.Algorithm))
	for n := range rec.Algorithm {
		names = append(names, n)
	}
	sort.Strings(names)
	if !all {
		names = names[:1]
	}

	packPath := s.store.Path(rec.PackFile)
	out := make([]AlgorithmReader, 0, len(names))
	for _, name := range names {
		rc, err := openZipEntry(packPath, name)
		if err != nil {
			for _, o := range out {
				o.Close()
			}
			return nil, &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.FlashAlgorithm", Inner: err}
		}
		out = append(out, AlgorithmReader{Name: name, ReadCloser: rc})
	}
	return out, nil
}

// SVDFile opens the cached PACK for device and returns a reader over its
// debug descriptor. The caller must Close it.
func (s *Surface) SVDFile(ctx context.Context, device string) (io.ReadCloser, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	rec, ok := s.index.Devices[device]
	if !ok {
		return nil, notFound("unknown device: " + device)
	}
	if rec.Debug == "" {
		return nil, notFound("device has no debug descriptor: " + device)
	}

	rc, err := openZipEntry(s.store.Path(rec.PackFile), rec.Debug)
	if err != nil {
		return nil, &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.SVDFile", Inner: err}
	}
	return rc, nil
}

// DumpIndex writes the full persisted index to path, independent of the
// jsonPath it was loaded from.
func (s *Surface) DumpIndex(ctx context.Context, path string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.DumpIndex", Inner: err}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.DumpIndex", Inner: err}
	}
	return nil
}

// DumpParts fuzzy-matches query, then writes dir/index.json holding just
// the matched device(s) plus, for every algorithm file named in their
// records, the extracted file at dir/<basename>.
func (s *Surface) DumpParts(ctx context.Context, dir, query string) error {
	names, recs, err := s.FindDevice(ctx, query)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.DumpParts", Inner: err}
	}

	subset := cpcache.GlobalIndex{Version: s.index.Version, Devices: make(map[string]cpcache.DeviceRecord, len(names))}
	for i, n := range names {
		subset.Devices[n] = recs[i]
	}
	b, err := json.MarshalIndent(subset, "", "  ")
	if err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.DumpParts", Inner: err}
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), b, 0o644); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.DumpParts", Inner: err}
	}

	for i, name := range names {
		rec := recs[i]
		packPath := s.store.Path(rec.PackFile)
		for algoName := range rec.Algorithm {
			rc, err := openZipEntry(packPath, algoName)
			if err != nil {
				zlog.Error(ctx).Str("device", name).Str("algorithm", algoName).Err(err).Msg("skipping algorithm extraction")
				continue
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				zlog.Error(ctx).Str("device", name).Str("algorithm", algoName).Err(err).Msg("reading algorithm blob failed")
				continue
			}
			dest := filepath.Join(dir, filepath.Base(algoName))
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return &cpcache.Error{Kind: cpcache.ErrIO, Op: "query.Surface.DumpParts", Inner: err}
			}
		}
	}
	return nil
}

func notFound(msg string) error {
	return &cpcache.Error{Kind: cpcache.ErrNotFound, Op: "query.Surface", Message: msg}
}
