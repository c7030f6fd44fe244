package usecase

import (
	"fmt"
	"image"
	"time"

	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	"github.com/jaennil/guide_helper/backend/render/internal/geo"
	"github.com/jaennil/guide_helper/backend/render/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/render/internal/tile"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
	"github.com/jaennil/guide_helper/backend/render/pkg/metrics"
)

// Surface is the 2D target a frame is drawn on.
type Surface interface {
	Clear(width, height int)
	Blit(src image.Image, x, y, w, h float64)
}

// TileRequester starts loading a tile that is not cached yet.
type TileRequester interface {
	Request(idx tile.Index, resolve func(*cache.Entry)) bool
}

// FrameStats summarises one composited frame.
type FrameStats struct {
	Frame     Frame
	Drawn     int
	Requested int
	Pending   int
	Failed    int
	Duration  time.Duration
}

type FrameCompositor struct {
	resolver      *ViewportResolver
	cache         *cache.TileCache
	loader        TileRequester
	tilePixelSize float64
	logger        logger.Logger
}

func NewFrameCompositor(r *ViewportResolver, c *cache.TileCache, ld TileRequester, l logger.Logger) *FrameCompositor {
	return &FrameCompositor{
		resolver:      r,
		cache:         c,
		loader:        ld,
		tilePixelSize: float64(r.pyramid.TilePixelSize()),
		logger:        l,
	}
}

// CheckViewport rejects a viewport whose frames can hold more distinct tiles
// than the cache. FIFO eviction would drop tiles before they are drawn and
// every arrival would trigger another full round of fetches.
func (fc *FrameCompositor) CheckViewport(vp Viewport) error {
	if !vp.Valid() {
		return ErrInvalidViewport
	}
	if n := MaxCells(vp, int(fc.tilePixelSize)); n > fc.cache.Capacity() {
		return fmt.Errorf("%w: %dx%d needs up to %d tiles, cache holds %d",
			ErrInvalidViewport, vp.Width, vp.Height, n, fc.cache.Capacity())
	}
	return nil
}

// Render clears s and draws every ready tile of the frame seen by cam.
// Missing tiles are requested and show up in a later frame.
func (fc *FrameCompositor) Render(cam camera.Camera, vp Viewport, s Surface) (FrameStats, error) {
	start := time.Now()

	frame, err := fc.resolver.Resolve(cam, vp)
	if err != nil {
		return FrameStats{}, err
	}

	s.Clear(vp.Width, vp.Height)

	const half = geo.WorldExtent / 2
	level := frame.Level
	tw := level.TileWidth
	pr := frame.PixelRatio
	size := fc.tilePixelSize / (pr / level.ResolutionThreshold)
	halfW := float64(vp.Width) / 2
	halfH := float64(vp.Height) / 2

	stats := FrameStats{Frame: frame}

	for _, cell := range frame.Cells {
		entry, ok := fc.cache.Get(cell.Index)
		if !ok {
			if fc.loader.Request(cell.Index, nil) {
				stats.Requested++
			}
			continue
		}

		switch entry.Status() {
		case cache.StatusReady:
			left := float64(cell.Col)*tw - half
			top := half - float64(cell.Row)*tw
			x := (left-cam.Position.X)/pr + halfW
			y := (cam.Position.Y-top)/pr + halfH
			s.Blit(entry.Content(), x, y, size, size)
			stats.Drawn++
		case cache.StatusPending:
			stats.Pending++
		case cache.StatusFailed:
			stats.Failed++
		}
	}

	stats.Duration = time.Since(start)

	metrics.FramesRendered.Inc()
	metrics.FrameDuration.Observe(stats.Duration.Seconds())
	metrics.TilesDrawn.Add(float64(stats.Drawn))

	fc.logger.Debug("frame rendered",
		"level", level.Level,
		"cells", len(frame.Cells),
		"drawn", stats.Drawn,
		"requested", stats.Requested,
		"pending", stats.Pending,
		"failed", stats.Failed,
	)

	return stats, nil
}
