// Package fetch implements the HTTP fetcher: a single timeout-policed GET
// per call, with errors classified for the caller rather than thrown away.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cmsispack/cpcache/internal/httputil"
)

// Default timeout values, used unless the engine is constructed in
// "no-timeouts" mode.
const (
	DefaultConnectTimeout  = 15 * time.Second
	DefaultLowSpeedTimeout = 60 * time.Second
)

// Fetcher performs a single GET per call, classifying network errors instead
// of panicking: callers are expected to log a returned error for its URL and
// continue processing other URLs.
type Fetcher struct {
	client *http.Client
	// lowSpeed bounds the total time a single fetch may take beyond the
	// transport-level connect timeout. Zero disables it.
	lowSpeed time.Duration
}

// New returns a Fetcher. When noTimeouts is true, both the connect and
// low-speed timeouts are disabled, matching the engine's "no-timeouts" mode.
func New(noTimeouts bool) *Fetcher {
	if noTimeouts {
		return &Fetcher{client: &http.Client{}}
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: DefaultConnectTimeout,
		}).DialContext,
	}
	return &Fetcher{
		client:   &http.Client{Transport: transport},
		lowSpeed: DefaultLowSpeedTimeout,
	}
}

// Fetch performs a single GET against url. A network error or non-2xx
// response is returned to the caller, not panicked on; the download pool is
// responsible for logging it and moving on to the next URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.lowSpeed > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.lowSpeed)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request for %q: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: GET %q: %w", url, err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body of %q: %w", url, err)
	}
	return b, nil
}
