package dlpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestDispatchProcessesEveryURLExactlyOnce(t *testing.T) {
	urls := make([]string, 250)
	for i := range urls {
		urls[i] = fmt.Sprintf("url-%d", i)
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var maxDone, lastTotal int64

	p := New(func(done, total int64) {
		// Progress calls may arrive out of order; keep the highest done seen.
		mu.Lock()
		defer mu.Unlock()
		if done > maxDone {
			maxDone = done
		}
		lastTotal = total
	})
	p.Dispatch(context.Background(), func(_ context.Context, url string) error {
		mu.Lock()
		defer mu.Unlock()
		seen[url]++
		return nil
	}, urls)

	mu.Lock()
	defer mu.Unlock()
	total := 0
	for _, n := range seen {
		total += n
	}
	if total != len(urls) {
		t.Fatalf("handler ran %d times, want %d", total, len(urls))
	}
	for _, u := range urls {
		if seen[u] != 1 {
			t.Fatalf("handler ran %d times for %q, want exactly once", seen[u], u)
		}
	}
	if maxDone != int64(len(urls)) || lastTotal != int64(len(urls)) {
		t.Fatalf("final progress = (%d,%d), want (%d,%d)", maxDone, lastTotal, len(urls), len(urls))
	}
}

func TestDispatchToleratesHandlerErrors(t *testing.T) {
	urls := []string{"ok-1", "bad-1", "ok-2", "bad-2"}
	var processed atomic.Int64

	p := New(nil)
	err := p.Dispatch(context.Background(), func(_ context.Context, url string) error {
		processed.Add(1)
		if url[:3] == "bad" {
			return errors.New("network failure")
		}
		return nil
	}, urls)

	if err != nil {
		t.Fatalf("Dispatch = %v; an ordinary handler error must be swallowed", err)
	}
	if got := processed.Load(); got != int64(len(urls)) {
		t.Fatalf("processed %d urls, want %d; a handler error must not abort the batch", got, len(urls))
	}
}

func TestDispatchPropagatesFatalErrors(t *testing.T) {
	sentinel := errors.New("disk full")
	var processed atomic.Int64

	p := New(nil)
	err := p.Dispatch(context.Background(), func(_ context.Context, url string) error {
		processed.Add(1)
		if url == "fatal" {
			return Fatal(sentinel)
		}
		return errors.New("network failure")
	}, []string{"ok", "fatal", "also-ok"})

	if !errors.Is(err, sentinel) {
		t.Fatalf("Dispatch = %v, want the Fatal-wrapped %v", err, sentinel)
	}
	if got := processed.Load(); got != 3 {
		t.Fatalf("processed %d urls, want 3; a fatal error must not cancel its peers", got)
	}
}

func TestDispatchEmptyBatch(t *testing.T) {
	p := New(nil)
	p.Dispatch(context.Background(), func(context.Context, string) error {
		t.Fatal("handler should not be called for an empty batch")
		return nil
	}, nil)
}

func TestDispatchRecoversPanickingHandler(t *testing.T) {
	p := New(nil)
	var ran atomic.Int64
	p.Dispatch(context.Background(), func(context.Context, string) error {
		ran.Add(1)
		panic("boom")
	}, []string{"one"})
	if ran.Load() != 1 {
		t.Fatal("handler should have run once despite panicking")
	}
}
