package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	"github.com/jaennil/guide_helper/backend/render/internal/tile"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
)

// RenderTarget is a Surface whose pixels can be read back.
type RenderTarget interface {
	Surface
	Image() image.Image
}

// MapUseCase owns the camera and the surface and renders on a single
// goroutine. Render requests made while a frame is pending are coalesced.
type MapUseCase struct {
	mu         sync.Mutex
	cam        *camera.Camera
	viewport   Viewport
	target     RenderTarget
	compositor *FrameCompositor
	last       FrameStats
	rendered   bool

	invalidate chan struct{}

	subsMu sync.Mutex
	subs   map[int]chan FrameStats
	nextID int

	logger logger.Logger
}

func NewMapUseCase(cam *camera.Camera, vp Viewport, target RenderTarget, fc *FrameCompositor, ld *TileLoader, l logger.Logger) (*MapUseCase, error) {
	if err := fc.CheckViewport(vp); err != nil {
		return nil, err
	}

	uc := &MapUseCase{
		cam:        cam,
		viewport:   vp,
		target:     target,
		compositor: fc,
		invalidate: make(chan struct{}, 1),
		subs:       make(map[int]chan FrameStats),
		logger:     l,
	}

	if ld != nil {
		ld.OnReady(func(tile.Index) { uc.Invalidate() })
	}

	return uc, nil
}

// Invalidate asks the render loop for a new frame. It never blocks.
func (uc *MapUseCase) Invalidate() {
	select {
	case uc.invalidate <- struct{}{}:
	default:
	}
}

// Run renders once and then on every invalidation until ctx is done.
func (uc *MapUseCase) Run(ctx context.Context) {
	uc.logger.Info("render loop started")
	uc.Invalidate()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("render loop stopped")
			return
		case <-uc.invalidate:
			if _, err := uc.Render(); err != nil {
				uc.logger.Error("failed to render frame", "error", err)
			}
		}
	}
}

// Render composites a frame now and publishes its stats to subscribers.
func (uc *MapUseCase) Render() (FrameStats, error) {
	uc.mu.Lock()
	stats, err := uc.compositor.Render(*uc.cam, uc.viewport, uc.target)
	if err == nil {
		uc.last = stats
		uc.rendered = true
	}
	uc.mu.Unlock()

	if err != nil {
		return FrameStats{}, err
	}

	uc.publish(stats)
	return stats, nil
}

func (uc *MapUseCase) Camera() camera.Camera {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return *uc.cam
}

func (uc *MapUseCase) Viewport() Viewport {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.viewport
}

func (uc *MapUseCase) SetView(lon, lat, height float64) error {
	uc.mu.Lock()
	err := uc.cam.SetView(lon, lat, height)
	uc.mu.Unlock()

	if err != nil {
		return err
	}
	uc.Invalidate()
	return nil
}

func (uc *MapUseCase) Zoom(deltaY float64) {
	uc.mu.Lock()
	uc.cam.Zoom(deltaY)
	uc.mu.Unlock()

	uc.Invalidate()
}

// Pan drags the camera by dx, dy pixels at the current scale.
func (uc *MapUseCase) Pan(dx, dy float64) error {
	uc.mu.Lock()
	err := uc.cam.Pan(dx, dy, PixelRatio(*uc.cam, uc.viewport))
	uc.mu.Unlock()

	if err != nil {
		return err
	}
	uc.Invalidate()
	return nil
}

func (uc *MapUseCase) StopPan() {
	uc.mu.Lock()
	uc.cam.Stop()
	uc.mu.Unlock()
}

func (uc *MapUseCase) Resize(vp Viewport) error {
	if err := uc.compositor.CheckViewport(vp); err != nil {
		return err
	}

	uc.mu.Lock()
	uc.viewport = vp
	uc.mu.Unlock()

	uc.Invalidate()
	return nil
}

// LastFrame returns the stats of the most recent successful render.
func (uc *MapUseCase) LastFrame() (FrameStats, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.last, uc.rendered
}

// Snapshot encodes the current surface as PNG.
func (uc *MapUseCase) Snapshot() ([]byte, error) {
	uc.mu.Lock()
	img := uc.target.Image()
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	uc.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Subscribe delivers the stats of later frames. A slow subscriber only sees
// the newest frame and never stalls the render loop. Call cancel to
// unsubscribe.
func (uc *MapUseCase) Subscribe() (frames <-chan FrameStats, cancel func()) {
	ch := make(chan FrameStats, 1)

	uc.subsMu.Lock()
	id := uc.nextID
	uc.nextID++
	uc.subs[id] = ch
	uc.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			uc.subsMu.Lock()
			delete(uc.subs, id)
			uc.subsMu.Unlock()
			close(ch)
		})
	}
}

func (uc *MapUseCase) publish(stats FrameStats) {
	uc.subsMu.Lock()
	defer uc.subsMu.Unlock()

	for _, ch := range uc.subs {
		select {
		case ch <- stats:
			continue
		default:
		}
		// drop the stale frame
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- stats:
		default:
		}
	}
}
