// Package catalog implements the Index Builder: the end-to-end
// cache-descriptors/cache-everything/add-local-pack flows that drive the
// download pool, merge per-PDSC extraction results into the two global
// maps, and persist them as JSON.
package catalog

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/quay/zlog"

	"github.com/cmsispack/cpcache"
	"github.com/cmsispack/cpcache/internal/blobstore"
	"github.com/cmsispack/cpcache/internal/dlpool"
	"github.com/cmsispack/cpcache/internal/fetch"
	"github.com/cmsispack/cpcache/pdsc"
	"github.com/cmsispack/cpcache/vidx"
)

// httpFetcher is the subset of *fetch.Fetcher the Engine depends on; tests
// substitute an in-memory stub satisfying it.
type httpFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Engine orchestrates a catalog build: it owns the blob store, the HTTP
// fetcher, the root-index resolver, and the in-memory global index/alias
// maps that accumulate as PDSCs are parsed.
type Engine struct {
	cfg      cpcache.Config
	store    *blobstore.Store
	fetcher  httpFetcher
	root     *vidx.Fetcher
	progress dlpool.ProgressFunc

	mu      sync.Mutex
	index   cpcache.GlobalIndex
	aliases cpcache.GlobalAliases
}

// New constructs an Engine from cfg, resolving unset paths to their
// platform defaults. progress is the user-supplied display hook for the
// download pool; pass nil for silent operation.
func New(cfg cpcache.Config, progress dlpool.ProgressFunc) (*Engine, error) {
	cfg, err := cfg.Resolve()
	if err != nil {
		return nil, &cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.New", Inner: err}
	}
	if cfg.Silent {
		progress = nil
	}

	fetcher := fetch.New(cfg.NoTimeouts)
	root := vidx.New(rootSource(cfg.VidxList), fetcher.Fetch)
	if isLocalPath(cfg.VidxList) {
		root.LocalPath = cfg.VidxList
	}

	return &Engine{
		cfg:      cfg,
		store:    blobstore.New(cfg.DataPath),
		fetcher:  fetcher,
		root:     root,
		progress: progress,
		index:    cpcache.GlobalIndex{Version: cpcache.SchemaVersion, Devices: map[string]cpcache.DeviceRecord{}},
		aliases:  cpcache.GlobalAliases{},
	}, nil
}

func isLocalPath(s string) bool {
	return s != "" && !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://")
}

func rootSource(vidxList string) string {
	if isLocalPath(vidxList) {
		return vidx.DefaultURL
	}
	return vidxList
}

// DataPath returns the resolved blob-store root, for the print-cache-dir CLI
// subcommand.
func (e *Engine) DataPath() string { return e.cfg.DataPath }

// JSONPath returns the resolved index-json root.
func (e *Engine) JSONPath() string { return e.cfg.JSONPath }

// CacheDescriptors fetches the root index, downloads and parses every PDSC
// concurrently, merges the results, and persists index.json/aliases.json.
// PACK archives are not downloaded.
func (e *Engine) CacheDescriptors(ctx context.Context) error {
	ctx = zlog.ContextWithValues(ctx, "component", "catalog/Engine.CacheDescriptors", "run_id", uuid.NewString())

	urls, err := e.root.URLs(ctx)
	if err != nil {
		return err
	}

	pool := dlpool.New(e.progress)
	if err := pool.Dispatch(ctx, e.pdscHandler(nil), dedupe(urls)); err != nil {
		return err
	}

	return e.persist()
}

// CacheEverything performs CacheDescriptors' work, then additionally
// downloads every successfully parsed PDSC's resolved PACK archive.
func (e *Engine) CacheEverything(ctx context.Context) error {
	ctx = zlog.ContextWithValues(ctx, "component", "catalog/Engine.CacheEverything", "run_id", uuid.NewString())

	urls, err := e.root.URLs(ctx)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var packURLs []string
	collect := func(packURL string) {
		mu.Lock()
		defer mu.Unlock()
		packURLs = append(packURLs, packURL)
	}

	pool := dlpool.New(e.progress)
	if err := pool.Dispatch(ctx, e.pdscHandler(collect), dedupe(urls)); err != nil {
		return err
	}

	packPool := dlpool.New(e.progress)
	if err := packPool.Dispatch(ctx, e.packHandler(), dedupe(packURLs)); err != nil {
		return err
	}

	return e.persist()
}

// pdscHandler returns a dlpool.Handler that downloads, parses, and merges a
// single PDSC. If onPackURL is non-nil, it's called with the PDSC's
// resolved PACK URL on success (used by CacheEverything to build the
// second batch).
//
// Network and parse failures degrade this PDSC only; a blob-store failure
// is marked fatal for the whole batch, since it means the cache's on-disk
// state can no longer be trusted.
func (e *Engine) pdscHandler(onPackURL func(string)) dlpool.Handler {
	return func(ctx context.Context, url string) error {
		if !e.store.Exists(url) {
			b, err := e.fetcher.Fetch(ctx, url)
			if err != nil {
				return fmt.Errorf("fetch pdsc: %w", err)
			}
			if err := e.store.Write(url, b); err != nil {
				return dlpool.Fatal(&cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.pdscHandler", Inner: err})
			}
		}

		raw, err := e.store.Read(url)
		if err != nil {
			return dlpool.Fatal(&cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.pdscHandler", Inner: err})
		}
		doc, err := pdsc.Decode(raw)
		if err != nil {
			return fmt.Errorf("decode pdsc %q: %w", url, err)
		}
		packURL, err := pdsc.ResolvePackURL(doc)
		if err != nil {
			zlog.Error(ctx).Str("pdsc", url).Err(err).Msg("skipping pdsc with no conforming pack url")
			return nil
		}

		devices, aliases := pdsc.ExtractDevices(ctx, doc, url, packURL)
		e.merge(devices, aliases)

		if onPackURL != nil {
			onPackURL(packURL)
		}
		return nil
	}
}

// packHandler returns a dlpool.Handler that downloads and stores a single
// PACK archive, skipping it if already cached.
func (e *Engine) packHandler() dlpool.Handler {
	return func(ctx context.Context, url string) error {
		if e.store.Exists(url) {
			return nil
		}
		b, err := e.fetcher.Fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("fetch pack: %w", err)
		}
		if err := e.store.Write(url, b); err != nil {
			return dlpool.Fatal(&cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.packHandler", Inner: err})
		}
		return nil
	}
}

// merge folds one PDSC's extracted devices and aliases into the global
// maps under a single critical section: one lock acquisition per PDSC, not
// per key. When two PDSCs define the same device name, the last merge to
// run wins; merge order between concurrent workers is not defined.
func (e *Engine) merge(devices map[string]cpcache.DeviceRecord, aliases map[string]cpcache.AliasRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for name, rec := range devices {
		e.index.Devices[name] = rec
	}
	for board, alias := range aliases {
		existing, ok := e.aliases[board]
		if !ok {
			e.aliases[board] = alias
			continue
		}
		e.aliases[board] = cpcache.AliasRecord{MountedDevices: unionStrings(existing.MountedDevices, alias.MountedDevices)}
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// AddLocalPack opens a local PACK archive, extracts its embedded PDSC,
// derives its PDSC/PACK URLs, merges its devices/boards into the index, and
// adopts the archive into the blob store at the derived PACK URL.
func (e *Engine) AddLocalPack(ctx context.Context, path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.AddLocalPack", Inner: err}
	}
	defer zr.Close()

	var pdscFile *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToUpper(f.Name), ".PDSC") {
			pdscFile = f
			break
		}
	}
	if pdscFile == nil {
		return &cpcache.Error{Kind: cpcache.ErrMalformedPack, Op: "catalog.AddLocalPack", Message: "no embedded PDSC entry found in " + path}
	}

	rc, err := pdscFile.Open()
	if err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.AddLocalPack", Inner: err}
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.AddLocalPack", Inner: err}
	}

	doc, err := pdsc.Decode(raw)
	if err != nil {
		return &cpcache.Error{Kind: cpcache.ErrMalformedPack, Op: "catalog.AddLocalPack", Inner: err}
	}
	packURL, err := pdsc.ResolvePackURL(doc)
	if err != nil {
		return &cpcache.Error{Kind: cpcache.ErrMalformedPack, Op: "catalog.AddLocalPack", Inner: err}
	}
	pdscURL := strings.TrimSuffix(doc.URL, "/") + "/" + doc.Vendor + "." + doc.Name + ".pdsc"

	devices, aliases := pdsc.ExtractDevices(ctx, doc, pdscURL, packURL)
	e.merge(devices, aliases)

	if err := e.store.Write(pdscURL, raw); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.AddLocalPack", Inner: err}
	}
	if err := e.store.Adopt(path, packURL); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrIO, Op: "catalog.AddLocalPack", Inner: err}
	}

	return e.persist()
}

// persist writes the in-memory index and aliases to JSONPath/index.json and
// JSONPath/aliases.json. Failure here is fatal and propagated; unlike a
// per-URL fetch failure it touches the cache's global state.
func (e *Engine) persist() error {
	e.mu.Lock()
	index := e.index
	aliases := e.aliases
	e.mu.Unlock()

	if err := os.MkdirAll(e.cfg.JSONPath, 0o755); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrPersist, Op: "catalog.persist", Inner: err}
	}
	if err := writeJSON(filepath.Join(e.cfg.JSONPath, "index.json"), index); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrPersist, Op: "catalog.persist", Inner: err}
	}
	if err := writeJSON(filepath.Join(e.cfg.JSONPath, "aliases.json"), aliases); err != nil {
		return &cpcache.Error{Kind: cpcache.ErrPersist, Op: "catalog.persist", Inner: err}
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
