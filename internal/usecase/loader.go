package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaennil/guide_helper/backend/render/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/render/internal/tile"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
	"github.com/jaennil/guide_helper/backend/render/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

type LoaderConfig struct {
	URLTemplate   string
	ServerParams  string
	MaxConcurrent int64
}

// TileLoader starts at most one fetch per tile index and publishes the
// outcome through the shared TileCache.
type TileLoader struct {
	cache   *cache.TileCache
	fetcher ImageFetcher
	cfg     LoaderConfig
	sem     *semaphore.Weighted
	onReady atomic.Pointer[func(tile.Index)]
	logger  logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewTileLoader(cfg LoaderConfig, c *cache.TileCache, f ImageFetcher, l logger.Logger) *TileLoader {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TileLoader{
		cache:   c,
		fetcher: f,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		logger:  l,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// OnReady sets the hook called after a tile becomes ready. It runs on the
// fetch goroutine and must not block.
func (ld *TileLoader) OnReady(fn func(tile.Index)) {
	ld.onReady.Store(&fn)
}

// Request starts fetching idx unless the cache already holds an entry for it
// in any state. resolve is called exactly once when a started fetch ends,
// whether it succeeded or failed. It reports whether a fetch was started.
func (ld *TileLoader) Request(idx tile.Index, resolve func(*cache.Entry)) bool {
	ld.mu.RLock()
	defer ld.mu.RUnlock()

	if ld.closed {
		return false
	}

	entry, inserted := ld.cache.GetOrInsert(idx, cache.NewEntry(idx))
	if !inserted {
		return false
	}

	url := idx.URL(ld.cfg.URLTemplate, ld.cfg.ServerParams)
	ld.logger.Debug("tile requested", "tile", idx.String(), "url", url)

	ld.wg.Add(1)
	metrics.TilesInFlight.Inc()
	go ld.load(entry, url, resolve)

	return true
}

func (ld *TileLoader) load(entry *cache.Entry, url string, resolve func(*cache.Entry)) {
	defer ld.wg.Done()
	defer metrics.TilesInFlight.Dec()

	if err := ld.sem.Acquire(ld.ctx, 1); err != nil {
		ld.fail(entry, url, err, resolve)
		return
	}
	img, err := ld.fetcher.Fetch(ld.ctx, url)
	ld.sem.Release(1)

	if err != nil {
		ld.fail(entry, url, err, resolve)
		return
	}

	entry.MarkReady(img, ld.now())

	// the pending entry may have been evicted while the fetch ran
	if actual, inserted := ld.cache.GetOrInsert(entry.Index, entry); !inserted && actual != entry {
		ld.cache.Insert(entry.Index, entry)
	}

	metrics.TileFetches.WithLabelValues("ready").Inc()
	ld.logger.Debug("tile ready", "tile", entry.Index.String())

	if resolve != nil {
		resolve(entry)
	}
	if fn := ld.onReady.Load(); fn != nil {
		(*fn)(entry.Index)
	}
}

func (ld *TileLoader) fail(entry *cache.Entry, url string, err error, resolve func(*cache.Entry)) {
	entry.MarkFailed(err)

	metrics.TileFetches.WithLabelValues("failed").Inc()
	ld.logger.Warn("tile fetch failed", "tile", entry.Index.String(), "url", url, "error", err)

	if resolve != nil {
		resolve(entry)
	}
}

// Wait blocks until every started fetch has finished.
func (ld *TileLoader) Wait() {
	ld.wg.Wait()
}

// Close stops accepting requests, fails fetches still queued on the
// concurrency limit and waits for the rest to finish.
func (ld *TileLoader) Close() {
	ld.mu.Lock()
	if ld.closed {
		ld.mu.Unlock()
		return
	}
	ld.closed = true
	ld.mu.Unlock()

	ld.cancel()
	ld.wg.Wait()
}
