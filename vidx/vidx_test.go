package vidx

import (
	"context"
	"errors"
	"testing"

	"github.com/cmsispack/cpcache"
)

const fixtureIndex = `<?xml version="1.0"?>
<index>
  <pindex>
    <pdsc url="http://example.com/vendors/acme/" vendor="Acme" name="Widgets.pdsc" version="1.0.0"/>
    <pdsc url="http://example.com/vendors/beta" vendor="Beta" name="/Gadgets.pdsc/" version="2.0.0"/>
  </pindex>
</index>`

func TestURLsNormalizesSlashes(t *testing.T) {
	calls := 0
	f := New("http://example.com/index.idx", func(ctx context.Context, url string) ([]byte, error) {
		calls++
		return []byte(fixtureIndex), nil
	})
	urls, err := f.URLs(context.Background())
	if err != nil {
		t.Fatalf("URLs: %v", err)
	}
	want := []string{
		"http://example.com/vendors/acme/Widgets.pdsc",
		"http://example.com/vendors/beta/Gadgets.pdsc",
	}
	if len(urls) != len(want) {
		t.Fatalf("URLs() = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("URLs()[%d] = %q, want %q", i, urls[i], want[i])
		}
	}

	// Second call must be served from cache, not re-fetched.
	if _, err := f.URLs(context.Background()); err != nil {
		t.Fatalf("second URLs: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1 (result should be cached)", calls)
	}
}

func TestURLsEmptyIndexIsNotAnError(t *testing.T) {
	f := New("http://example.com/index.idx", func(ctx context.Context, url string) ([]byte, error) {
		return []byte(`<index><pindex></pindex></index>`), nil
	})
	urls, err := f.URLs(context.Background())
	if err != nil {
		t.Fatalf("URLs: %v", err)
	}
	if len(urls) != 0 {
		t.Fatalf("URLs() = %v, want empty", urls)
	}
}

func TestURLsPropagatesFetchFailure(t *testing.T) {
	sentinel := errors.New("network down")
	f := New("http://example.com/index.idx", func(ctx context.Context, url string) ([]byte, error) {
		return nil, sentinel
	})
	_, err := f.URLs(context.Background())
	if err == nil {
		t.Fatal("URLs() should propagate a root index fetch failure")
	}
	var cerr *cpcache.Error
	if !errors.As(err, &cerr) || cerr.Kind != cpcache.ErrRootIndex {
		t.Fatalf("err = %v, want *cpcache.Error{Kind: ErrRootIndex}", err)
	}
}
