// Package tile defines tile indices and the wraparound rule for the pyramid.
package tile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jaennil/guide_helper/backend/render/internal/pyramid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Index addresses one tile: column X, row Y at zoom Z.
type Index struct {
	X int
	Y int
	Z int
}

func (i Index) String() string {
	return fmt.Sprintf("%d/%d/%d", i.Z, i.X, i.Y)
}

// Valid reports whether X and Y lie inside the grid of zoom Z.
func (i Index) Valid() bool {
	if i.Z < 0 || i.Z >= 31 {
		return false
	}
	n := 1 << i.Z
	return i.X >= 0 && i.X < n && i.Y >= 0 && i.Y < n
}

// Bound returns the lon/lat bound covered by a valid index.
func (i Index) Bound() orb.Bound {
	return maptile.New(uint32(i.X), uint32(i.Y), maptile.Zoom(i.Z)).Bound()
}

// URL fills the {x}, {y}, {z} and {params} placeholders of template.
func (i Index) URL(template, params string) string {
	r := strings.NewReplacer(
		"{x}", strconv.Itoa(i.X),
		"{y}", strconv.Itoa(i.Y),
		"{z}", strconv.Itoa(i.Z),
		"{params}", params,
	)
	return r.Replace(template)
}

// Wrap maps a raw column/row at level into the level's grid. Each axis wraps
// against its own coordinate. Rows wrap too, which keeps indices valid near
// the poles even though it is not geographically meaningful.
func Wrap(level pyramid.ZoomLevel, x, y int) Index {
	n := 1 << level.Level
	return Index{
		X: wrapAxis(x, n),
		Y: wrapAxis(y, n),
		Z: level.Level,
	}
}

func wrapAxis(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
