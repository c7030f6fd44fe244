package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/jaennil/guide_helper/backend/render/internal/geo"
)

type State int

const (
	StateStatic State = iota
	StateMoving
)

func (s State) String() string {
	switch s {
	case StateStatic:
		return "static"
	case StateMoving:
		return "moving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// zoomStep is the fraction of the current height one wheel step moves by.
const zoomStep = 0.01

var (
	ErrInvalidBounds = errors.New("camera height bounds must satisfy 0 < min < max")
	ErrInvalidMove   = errors.New("camera move must be finite")
)

// Camera is a point above the Mercator plane looking straight down.
// Position.Z is the height and always stays within [MinHeight, MaxHeight].
type Camera struct {
	Position  geo.WorldPosition
	FOV       float64
	State     State
	MinHeight float64
	MaxHeight float64
}

func New(fov, minHeight, maxHeight float64) (*Camera, error) {
	if !(minHeight > 0 && minHeight < maxHeight) || math.IsInf(maxHeight, 0) {
		return nil, ErrInvalidBounds
	}
	if !(fov > 0 && fov < math.Pi) {
		return nil, fmt.Errorf("camera fov %v outside (0, pi)", fov)
	}

	return &Camera{
		Position:  geo.WorldPosition{Z: maxHeight},
		FOV:       fov,
		MinHeight: minHeight,
		MaxHeight: maxHeight,
	}, nil
}

// SetView centres the camera over lon/lat at the given height.
func (c *Camera) SetView(lon, lat, height float64) error {
	pos, err := geo.ToWorld(lon, lat)
	if err != nil {
		return err
	}
	if math.IsNaN(height) {
		return fmt.Errorf("camera height: %w", geo.ErrProjectionDomain)
	}

	pos.Z = c.clamp(height)
	c.Position = pos
	c.State = StateStatic
	return nil
}

// Zoom applies wheel steps: positive deltaY moves away from the ground.
func (c *Camera) Zoom(deltaY float64) {
	if deltaY == 0 || math.IsNaN(deltaY) {
		return
	}
	step := c.Position.Z * zoomStep
	if deltaY > 0 {
		c.Position.Z = c.clamp(c.Position.Z + step)
	} else {
		c.Position.Z = c.clamp(c.Position.Z - step)
	}
}

// Pan drags the view by dx, dy screen pixels at the given metres-per-pixel.
// X wraps around the antimeridian and Y stops at the world edge. A move
// that is not finite leaves the camera untouched.
func (c *Camera) Pan(dx, dy, pixelRatio float64) error {
	x := c.Position.X - dx*pixelRatio
	y := c.Position.Y + dy*pixelRatio
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return ErrInvalidMove
	}

	c.Position.X = wrapX(x)
	c.Position.Y = math.Min(math.Max(y, -geo.OriginShift), geo.OriginShift)
	c.State = StateMoving
	return nil
}

// wrapX maps x into [-OriginShift, OriginShift).
func wrapX(x float64) float64 {
	x = math.Mod(x+geo.OriginShift, geo.WorldExtent)
	if x < 0 {
		x += geo.WorldExtent
	}
	return x - geo.OriginShift
}

// Stop marks the end of a drag.
func (c *Camera) Stop() {
	c.State = StateStatic
}

func (c *Camera) clamp(h float64) float64 {
	return math.Min(math.Max(h, c.MinHeight), c.MaxHeight)
}
