// Package vidx implements the Root Index Fetcher: resolving the global
// vendor index (a flat XML list of PDSC locations) into the set of PDSC URLs
// the download pool should fetch next.
package vidx

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cmsispack/cpcache"
)

// DefaultURL is the default root vendor index.
const DefaultURL = "http://www.keil.com/pack/index.idx"

type document struct {
	XMLName xml.Name `xml:"index"`
	Pindex  struct {
		Pdsc []struct {
			URL     string `xml:"url,attr"`
			Vendor  string `xml:"vendor,attr"`
			Name    string `xml:"name,attr"`
			Version string `xml:"version,attr"`
		} `xml:"pdsc"`
	} `xml:"pindex"`
}

// Fetcher resolves the root vendor index exactly once per engine lifetime
// and caches the result.
type Fetcher struct {
	// Source is the root index's URL, or (if LocalPath is set) ignored.
	Source string
	// LocalPath, when non-empty, is read from disk instead of fetched over
	// HTTP; the engine's vidx-list override.
	LocalPath string

	fetch func(ctx context.Context, url string) ([]byte, error)

	once sync.Once
	urls []string
	err  error
}

// New returns a Fetcher. fetch performs a single HTTP GET (normally
// (*fetch.Fetcher).Fetch); it's injected so LocalPath-backed construction
// doesn't require a network client.
func New(source string, fetch func(ctx context.Context, url string) ([]byte, error)) *Fetcher {
	if source == "" {
		source = DefaultURL
	}
	return &Fetcher{Source: source, fetch: fetch}
}

// URLs returns the full set of PDSC URLs named by the root index, fetching
// and parsing it on first call and caching the result for the Fetcher's
// lifetime. A missing or unparseable root index is fatal and propagated;
// an empty root index is not an error.
func (f *Fetcher) URLs(ctx context.Context) ([]string, error) {
	f.once.Do(func() {
		f.urls, f.err = f.load(ctx)
	})
	return f.urls, f.err
}

func (f *Fetcher) load(ctx context.Context) ([]string, error) {
	var data []byte
	var err error
	if f.LocalPath != "" {
		data, err = os.ReadFile(f.LocalPath)
		if err != nil {
			return nil, &cpcache.Error{Kind: cpcache.ErrRootIndex, Op: "vidx.Fetcher.load", Inner: err}
		}
	} else {
		data, err = f.fetch(ctx, f.Source)
		if err != nil {
			return nil, &cpcache.Error{Kind: cpcache.ErrRootIndex, Op: "vidx.Fetcher.load", Inner: err}
		}
	}

	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &cpcache.Error{Kind: cpcache.ErrRootIndex, Op: "vidx.Fetcher.load", Inner: fmt.Errorf("parse root index: %w", err)}
	}

	urls := make([]string, 0, len(doc.Pindex.Pdsc))
	for _, p := range doc.Pindex.Pdsc {
		if p.URL == "" || p.Name == "" {
			continue
		}
		url := strings.TrimSuffix(p.URL, "/")
		name := strings.Trim(p.Name, "/")
		urls = append(urls, url+"/"+name)
	}
	return urls, nil
}
