package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/jaennil/guide_helper/backend/render/internal/geo"
)

func newCamera(t *testing.T) *Camera {
	t.Helper()
	c, err := New(math.Pi/3, 1000, 10000000)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewRejectsBounds(t *testing.T) {
	tests := []struct {
		name          string
		fov, min, max float64
	}{
		{"min above max", math.Pi / 3, 10, 5},
		{"zero min", math.Pi / 3, 0, 5},
		{"zero fov", 0, 1, 5},
		{"fov pi", math.Pi, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.fov, tt.min, tt.max); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSetView(t *testing.T) {
	c := newCamera(t)
	c.State = StateMoving

	if err := c.SetView(0, 0, 1e6); err != nil {
		t.Fatalf("SetView failed: %v", err)
	}
	if c.Position.X != 0 || math.Abs(c.Position.Y) > 1e-6 || c.Position.Z != 1e6 {
		t.Errorf("position = %+v", c.Position)
	}
	if c.State != StateStatic {
		t.Errorf("state = %v, want static", c.State)
	}

	if err := c.SetView(0, 0, 1); err != nil {
		t.Fatalf("SetView failed: %v", err)
	}
	if c.Position.Z != c.MinHeight {
		t.Errorf("height %v should clamp to %v", c.Position.Z, c.MinHeight)
	}

	before := c.Position
	if err := c.SetView(0, 95, 1e6); !errors.Is(err, geo.ErrProjectionDomain) {
		t.Errorf("SetView(lat 95) error = %v", err)
	}
	if c.Position != before {
		t.Error("failed SetView must not move the camera")
	}
}

func TestZoom(t *testing.T) {
	c := newCamera(t)
	c.Position.Z = 1e6

	c.Zoom(120)
	if math.Abs(c.Position.Z-1.01e6) > 1e-6 {
		t.Errorf("zoom out height = %v, want 1010000", c.Position.Z)
	}

	c.Position.Z = 1e6
	c.Zoom(-1)
	if math.Abs(c.Position.Z-0.99e6) > 1e-6 {
		t.Errorf("zoom in height = %v, want 990000", c.Position.Z)
	}

	c.Position.Z = c.MaxHeight
	c.Zoom(1)
	if c.Position.Z != c.MaxHeight {
		t.Errorf("height %v exceeded max", c.Position.Z)
	}

	c.Position.Z = c.MinHeight
	c.Zoom(-1)
	if c.Position.Z != c.MinHeight {
		t.Errorf("height %v below min", c.Position.Z)
	}
}

func TestPan(t *testing.T) {
	c := newCamera(t)

	if err := c.Pan(10, -4, 100); err != nil {
		t.Fatalf("Pan failed: %v", err)
	}
	if c.Position.X != -1000 || c.Position.Y != -400 {
		t.Errorf("position after pan = %+v", c.Position)
	}
	if c.State != StateMoving {
		t.Errorf("state = %v, want moving", c.State)
	}

	c.Stop()
	if c.State != StateStatic {
		t.Errorf("state = %v, want static", c.State)
	}
}

func TestPanRejectsNonFiniteMove(t *testing.T) {
	c := newCamera(t)
	c.Position = geo.WorldPosition{X: 1000, Y: -2000, Z: 1e6}
	before := c.Position

	pr := 2 * math.Tan(c.FOV/2) * c.Position.Z / 800
	tests := []struct {
		name       string
		dx, dy, pr float64
	}{
		{"overflow x", 1e308, 0, pr},
		{"overflow y", 0, -1e308, pr},
		{"nan delta", math.NaN(), 0, pr},
		{"infinite ratio", 1, 1, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Pan(tt.dx, tt.dy, tt.pr); !errors.Is(err, ErrInvalidMove) {
				t.Fatalf("Pan error = %v, want ErrInvalidMove", err)
			}
			if c.Position != before {
				t.Errorf("position changed to %+v", c.Position)
			}
		})
	}
}

func TestPanWrapsAndClamps(t *testing.T) {
	c := newCamera(t)
	c.Position = geo.WorldPosition{X: geo.OriginShift - 100, Z: 1e6}

	// drag left moves the camera east across the antimeridian
	if err := c.Pan(-3, 0, 100); err != nil {
		t.Fatalf("Pan failed: %v", err)
	}
	if !approx(c.Position.X, -geo.OriginShift+200) {
		t.Errorf("x after crossing = %v, want %v", c.Position.X, -geo.OriginShift+200)
	}

	// many world widths in one drag still land inside the world
	if err := c.Pan(-1e6, 0, geo.WorldExtent/3); err != nil {
		t.Fatalf("Pan failed: %v", err)
	}
	if c.Position.X < -geo.OriginShift || c.Position.X >= geo.OriginShift {
		t.Errorf("x = %v outside the world", c.Position.X)
	}

	if err := c.Pan(0, 1e12, 100); err != nil {
		t.Fatalf("Pan failed: %v", err)
	}
	if c.Position.Y != geo.OriginShift {
		t.Errorf("y = %v, want clamped to %v", c.Position.Y, geo.OriginShift)
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}
