package usecase

import (
	"errors"
	"math"

	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	"github.com/jaennil/guide_helper/backend/render/internal/geo"
	"github.com/jaennil/guide_helper/backend/render/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/render/internal/tile"
)

var ErrInvalidViewport = errors.New("viewport width and height must be positive")

// Viewport is the output size in pixels.
type Viewport struct {
	Width  int
	Height int
}

func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Cell is one grid position of a frame. Col and Row are unwrapped and place
// the tile on screen; Index is the wrapped tile drawn there.
type Cell struct {
	Col   int
	Row   int
	Index tile.Index
}

// Frame is the set of tiles covering a viewport for one camera state.
// West, East, North and South are in metres measured from the top-left
// corner of the world.
type Frame struct {
	Camera      geo.WorldPosition
	Viewport    Viewport
	MetreWidth  float64
	MetreHeight float64
	PixelRatio  float64
	Level       pyramid.ZoomLevel
	West        float64
	East        float64
	North       float64
	South       float64
	Cells       []Cell
}

// Tiles returns the distinct wrapped indices of the frame in cell order.
func (f Frame) Tiles() []tile.Index {
	seen := make(map[tile.Index]struct{}, len(f.Cells))
	tiles := make([]tile.Index, 0, len(f.Cells))
	for _, c := range f.Cells {
		if _, ok := seen[c.Index]; ok {
			continue
		}
		seen[c.Index] = struct{}{}
		tiles = append(tiles, c.Index)
	}
	return tiles
}

// Contains reports whether idx is drawn somewhere in the frame.
func (f Frame) Contains(idx tile.Index) bool {
	for _, c := range f.Cells {
		if c.Index == idx {
			return true
		}
	}
	return false
}

type ViewportResolver struct {
	pyramid *pyramid.Pyramid
}

func NewViewportResolver(p *pyramid.Pyramid) *ViewportResolver {
	return &ViewportResolver{pyramid: p}
}

// MaxCells bounds the number of cells in any frame of vp above level 0.
// The chosen level's tile spans at least half a tile's pixel size on screen,
// so a frame is at most ceil(2W/size)+3 columns by ceil(2H/size)+3 rows.
// Level 0 holds a single distinct tile however many cells repeat it.
func MaxCells(vp Viewport, tilePixelSize int) int {
	cols := (2*vp.Width+tilePixelSize-1)/tilePixelSize + 3
	rows := (2*vp.Height+tilePixelSize-1)/tilePixelSize + 3
	return cols * rows
}

// PixelRatio returns the metres covered by one screen pixel.
func PixelRatio(cam camera.Camera, vp Viewport) float64 {
	return metreWidth(cam) / float64(vp.Width)
}

func metreWidth(cam camera.Camera) float64 {
	return 2 * math.Tan(cam.FOV/2) * cam.Position.Z
}

// Resolve computes the zoom level and tile cells visible from cam, padded
// by one tile on each side.
func (r *ViewportResolver) Resolve(cam camera.Camera, vp Viewport) (Frame, error) {
	if !vp.Valid() {
		return Frame{}, ErrInvalidViewport
	}

	const half = geo.WorldExtent / 2

	mw := metreWidth(cam)
	mh := mw * float64(vp.Height) / float64(vp.Width)
	pr := mw / float64(vp.Width)
	level := r.pyramid.SelectLevel(pr)

	f := Frame{
		Camera:      cam.Position,
		Viewport:    vp,
		MetreWidth:  mw,
		MetreHeight: mh,
		PixelRatio:  pr,
		Level:       level,
		West:        cam.Position.X - mw/2 + half,
		East:        cam.Position.X + mw/2 + half,
		North:       half - (cam.Position.Y + mh/2),
		South:       half - (cam.Position.Y - mh/2),
	}

	tw := level.TileWidth
	westX := int(math.Ceil(f.West/tw)) - 1
	eastX := int(math.Ceil(f.East/tw)) + 1
	northY := int(math.Ceil(f.North/tw)) - 1
	southY := int(math.Ceil(f.South/tw)) + 1

	f.Cells = make([]Cell, 0, (eastX-westX+1)*(southY-northY+1))
	for y := northY; y <= southY; y++ {
		for x := westX; x <= eastX; x++ {
			f.Cells = append(f.Cells, Cell{
				Col:   x,
				Row:   y,
				Index: tile.Wrap(level, x, y),
			})
		}
	}

	return f, nil
}
