// Package geo converts geographic coordinates to the planar world used by
// the renderer (EPSG:3857, metres) and back.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// SemiMajorAxis is the WGS84 equatorial radius used by Web Mercator.
const SemiMajorAxis = 6378137.0

// OriginShift is half the width of the projected world.
const OriginShift = math.Pi * SemiMajorAxis // 20037508.342789244

// WorldExtent is the full width (and height) of the projected world in metres.
const WorldExtent = 2 * OriginShift

var ErrProjectionDomain = errors.New("coordinate outside projection domain")

// WorldPosition is a point in projected world units. Z is the camera height
// and has no meaning for points that are not camera positions.
type WorldPosition struct {
	X float64
	Y float64
	Z float64
}

// ToWorld projects lon/lat degrees onto the world plane. Latitudes at the
// poles have no finite projection.
func ToWorld(lon, lat float64) (WorldPosition, error) {
	if !finite(lon) || !finite(lat) || lat <= -90 || lat >= 90 || lon < -180 || lon > 180 {
		return WorldPosition{}, fmt.Errorf("%w: lon=%v lat=%v", ErrProjectionDomain, lon, lat)
	}

	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return WorldPosition{X: p.X(), Y: p.Y()}, nil
}

// ToGeo is the inverse of ToWorld; Z is ignored.
func ToGeo(pos WorldPosition) (lon, lat float64) {
	p := project.Mercator.ToWGS84(orb.Point{pos.X, pos.Y})
	return p.Lon(), p.Lat()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
