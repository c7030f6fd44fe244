// Package pyramid holds the fixed table of tile zoom levels.
package pyramid

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/jaennil/guide_helper/backend/render/internal/geo"
)

const (
	// LevelCount is the number of zoom levels in the pyramid.
	LevelCount = 20

	DefaultTilePixelSize = 256
)

var ErrInvalidTileSize = errors.New("tile pixel size must be positive")

// ZoomLevel is one rung of the pyramid. TileWidth is in world units,
// ResolutionThreshold in world units per pixel.
type ZoomLevel struct {
	Level               int
	TileWidth           float64
	ResolutionThreshold float64
}

type Pyramid struct {
	tilePixelSize int
	levels        [LevelCount]ZoomLevel
}

func New(tilePixelSize int) (*Pyramid, error) {
	if tilePixelSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTileSize, tilePixelSize)
	}

	p := &Pyramid{tilePixelSize: tilePixelSize}
	for i := range p.levels {
		width := geo.WorldExtent / math.Exp2(float64(i))
		p.levels[i] = ZoomLevel{
			Level:               i,
			TileWidth:           width,
			ResolutionThreshold: width / float64(tilePixelSize),
		}
	}

	return p, nil
}

var defaultPyramid = sync.OnceValue(func() *Pyramid {
	p, _ := New(DefaultTilePixelSize)
	return p
})

// Default returns the process-wide pyramid for DefaultTilePixelSize.
func Default() *Pyramid {
	return defaultPyramid()
}

func (p *Pyramid) TilePixelSize() int {
	return p.tilePixelSize
}

// Levels returns the levels ordered coarsest first.
func (p *Pyramid) Levels() []ZoomLevel {
	out := make([]ZoomLevel, LevelCount)
	copy(out, p.levels[:])
	return out
}

func (p *Pyramid) Level(n int) (ZoomLevel, bool) {
	if n < 0 || n >= LevelCount {
		return ZoomLevel{}, false
	}
	return p.levels[n], true
}

// SelectLevel walks from the coarsest level and stops at the first one whose
// threshold is below pixelRatio. When none is, the finest level is returned.
func (p *Pyramid) SelectLevel(pixelRatio float64) ZoomLevel {
	level := p.levels[0]
	for _, l := range p.levels {
		level = l
		if pixelRatio > l.ResolutionThreshold {
			break
		}
	}
	return level
}
