package store

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
)

type MemoryStore struct {
	cache  *ristretto.Cache[string, []byte]
	ttl    time.Duration
	logger logger.Logger
}

func NewMemoryStore(maxBytes int64, ttl time.Duration, l logger.Logger) (*MemoryStore, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		// ten counters per expected item, assuming ~16KiB tiles
		NumCounters: max(maxBytes/16384*10, 1000),
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	l.Info("memory store initialized", "max_bytes", maxBytes, "ttl", ttl)

	return &MemoryStore{
		cache:  c,
		ttl:    ttl,
		logger: l,
	}, nil
}

var _ BlobStore = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := s.cache.Get(key)
	return data, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	if !s.cache.SetWithTTL(key, value, int64(len(value)), s.ttl) {
		s.logger.Debug("memory store dropped blob", "key", key, "bytes", len(value))
	}
	s.cache.Wait()
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Close()
	return nil
}
