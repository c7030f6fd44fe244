package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jaennil/guide_helper/backend/render/pkg/config"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
	"github.com/jaennil/guide_helper/backend/render/pkg/metrics"
)

const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// BlobStore keeps encoded tile bytes keyed by the tile URL.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// New opens the store selected by cfg.Store.Driver.
func New(cfg *config.Config, l logger.Logger) (BlobStore, error) {
	var (
		s   BlobStore
		err error
	)

	switch cfg.Store.Driver {
	case DriverNone:
		s = NewNoopStore()
	case DriverMemory:
		s, err = NewMemoryStore(cfg.Store.MaxBytes, cfg.Store.TTL, l)
	case DriverRedis:
		s, err = NewRedisStore(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, l)
	case DriverSQLite:
		s, err = NewSQLiteStore(cfg.Store.SQLiteDSN, cfg.Store.TTL, l)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	return Instrument(cfg.Store.Driver, s), nil
}

type instrumented struct {
	driver string
	next   BlobStore
}

// Instrument records hit, miss, error and latency metrics for s under driver.
func Instrument(driver string, s BlobStore) BlobStore {
	return &instrumented{driver: driver, next: s}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	data, ok, err := i.next.Get(ctx, key)
	metrics.StoreOperationDuration.WithLabelValues(i.driver, "get").Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.StoreErrors.WithLabelValues(i.driver, "get").Inc()
	case ok:
		metrics.StoreHits.WithLabelValues(i.driver).Inc()
	default:
		metrics.StoreMisses.WithLabelValues(i.driver).Inc()
	}

	return data, ok, err
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.next.Set(ctx, key, value)
	metrics.StoreOperationDuration.WithLabelValues(i.driver, "set").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrors.WithLabelValues(i.driver, "set").Inc()
	}
	return err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}

type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

var _ BlobStore = (*NoopStore)(nil)

func (NoopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopStore) Set(context.Context, string, []byte) error         { return nil }
func (NoopStore) Close() error                                       { return nil }
