// Package dlpool implements the bounded concurrent download pool: a
// fixed-width worker pool over a URL batch, one handler invocation per
// URL, with lock-free progress counters a caller can render. A failing
// URL degrades only itself; the batch always drains.
package dlpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/quay/zlog"
	"golang.org/x/sync/errgroup"
)

// Width is the fixed worker-pool width: up to 20 parallel workers consuming
// a shared queue.
const Width = 20

// Handler processes a single URL. A returned error is logged and counted as
// completion; unless the handler wrapped it with Fatal, it is never
// propagated out of Dispatch.
type Handler func(ctx context.Context, url string) error

// Fatal marks err as fatal for the whole batch. The URL that returned it
// still counts as complete and its peers keep running, but Dispatch reports
// the first fatal error to its caller instead of swallowing it. Handlers
// use it for failures that poison the cache's shared state (a blob-store
// write error) rather than a single vendor's data.
func Fatal(err error) error {
	return &fatalError{err: err}
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

// ProgressFunc is rendered by the caller after every URL completes. It must
// tolerate out-of-order (done, total) observations.
type ProgressFunc func(done, total int64)

// Pool is a one-shot, fixed-width download pool. A Pool is recreated per
// batch; workers are not reused across batches.
type Pool struct {
	width    int
	progress ProgressFunc

	done  atomic.Int64
	total atomic.Int64

	mu    sync.Mutex
	fatal error

	doneDesc  *prometheus.Desc
	totalDesc *prometheus.Desc
}

var _ prometheus.Collector = (*Pool)(nil)

// New returns a Pool of the fixed Width. A nil progress function is
// replaced with a no-op, matching the "silent" engine configuration.
func New(progress ProgressFunc) *Pool {
	if progress == nil {
		progress = func(int64, int64) {}
	}
	return &Pool{
		width:    Width,
		progress: progress,
		doneDesc: prometheus.NewDesc(
			"cpcache_dlpool_urls_done",
			"Number of URLs the current download pool batch has finished processing.",
			nil, nil),
		totalDesc: prometheus.NewDesc(
			"cpcache_dlpool_urls_total",
			"Total number of URLs enqueued in the current download pool batch.",
			nil, nil),
	}
}

// Dispatch submits every url in urls to handler exactly once, running up to
// Width of them concurrently, and returns only once all of them have been
// processed. Ordinary per-URL handler errors are logged here and Dispatch
// does not fail because of them; the first Fatal-wrapped error a handler
// returns is held until the batch drains and then returned.
//
// The batch dispatcher must not be handed duplicate URLs: concurrent writes
// to the same blob-store key are undefined.
func (p *Pool) Dispatch(ctx context.Context, handler Handler, urls []string) error {
	ctx = zlog.ContextWithValues(ctx, "component", "dlpool/Pool.Dispatch")
	p.total.Store(int64(len(urls)))
	p.done.Store(0)
	p.progress(0, int64(len(urls)))

	if len(urls) == 0 {
		return nil
	}

	// errgroup.SetLimit bounds in-flight goroutines to the pool width; p.run
	// never returns an error so g.Wait() always succeeds, it's used purely
	// for its limiter and goroutine bookkeeping.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.width)
	for _, u := range urls {
		url := u
		g.Go(func() error {
			p.run(gctx, handler, url)
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fatal
}

// run invokes handler for a single URL, recovering from panics the same way
// it handles returned errors: logged, counted as done, never propagated.
func (p *Pool) run(ctx context.Context, handler Handler, url string) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error(ctx).
				Str("url", url).
				Str("panic", fmt.Sprint(r)).
				Msg("handler panicked")
		}
		done := p.done.Add(1)
		p.progress(done, p.total.Load())
	}()

	if err := handler(ctx, url); err != nil {
		var fe *fatalError
		if errors.As(err, &fe) {
			p.mu.Lock()
			if p.fatal == nil {
				p.fatal = fe.err
			}
			p.mu.Unlock()
		}
		zlog.Error(ctx).
			Str("url", url).
			Err(err).
			Msg("handler failed")
	}
}

// Describe implements prometheus.Collector.
func (p *Pool) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.doneDesc
	ch <- p.totalDesc
}

// Collect implements prometheus.Collector.
func (p *Pool) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(p.doneDesc, prometheus.GaugeValue, float64(p.done.Load()))
	ch <- prometheus.MustNewConstMetric(p.totalDesc, prometheus.GaugeValue, float64(p.total.Load()))
}
