package usecase

import (
	"context"
	"image"
	"math"
	"sync"
	"testing"

	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	"github.com/jaennil/guide_helper/backend/render/internal/geo"
	"github.com/jaennil/guide_helper/backend/render/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/render/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
)

const testTemplate = "https://tiles.test/{z}/{x}/{y}.png?{params}"

type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	gate  chan struct{}
	err   error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	f.mu.Lock()
	f.calls[url]++
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, pyramid.DefaultTilePixelSize, pyramid.DefaultTilePixelSize)), nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type blit struct {
	x, y, w, h float64
}

type fakeSurface struct {
	width, height int
	clears        int
	blits         []blit
}

func (s *fakeSurface) Clear(width, height int) {
	s.width, s.height = width, height
	s.clears++
	s.blits = nil
}

func (s *fakeSurface) Blit(_ image.Image, x, y, w, h float64) {
	s.blits = append(s.blits, blit{x, y, w, h})
}

func (s *fakeSurface) Image() image.Image {
	return image.NewRGBA(image.Rect(0, 0, s.width, s.height))
}

func newTestCache(t *testing.T, capacity int) *cache.TileCache {
	t.Helper()
	c, err := cache.NewTileCache(capacity, logger.NewNoOp())
	if err != nil {
		t.Fatalf("NewTileCache failed: %v", err)
	}
	return c
}

func newTestLoader(t *testing.T, c *cache.TileCache, f ImageFetcher) *TileLoader {
	t.Helper()
	ld := NewTileLoader(LoaderConfig{
		URLTemplate:   testTemplate,
		ServerParams:  "hl=en",
		MaxConcurrent: 4,
	}, c, f, logger.NewNoOp())
	t.Cleanup(ld.Close)
	return ld
}

// camera over the world origin at one million metres with a 60 degree fov
func newTestCamera(t *testing.T) *camera.Camera {
	t.Helper()
	cam, err := camera.New(math.Pi/3, 1000, 10000000)
	if err != nil {
		t.Fatalf("camera.New failed: %v", err)
	}
	cam.Position = geo.WorldPosition{Z: 1e6}
	return cam
}

func nopLogger() logger.Logger {
	return logger.NewNoOp()
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
