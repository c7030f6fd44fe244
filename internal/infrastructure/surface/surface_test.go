package surface

import (
	"image"
	"image/color"
	"testing"

	"github.com/jaennil/guide_helper/backend/render/internal/usecase"
)

var (
	_ usecase.RenderTarget = (*Raster)(nil)
	_ usecase.RenderTarget = (*GG)(nil)
)

func solidTile(c color.Color, size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func isRed(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return r > 0xe000 && g < 0x2000 && b < 0x2000 && a > 0xe000
}

func isEmpty(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a == 0
}

func TestSurfaces(t *testing.T) {
	red := solidTile(color.RGBA{R: 255, A: 255}, 16)

	tests := []struct {
		name    string
		surface usecase.RenderTarget
	}{
		{"raster", NewRaster()},
		{"gg", NewGG()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.surface
			s.Clear(100, 80)

			if b := s.Image().Bounds(); b.Dx() != 100 || b.Dy() != 80 {
				t.Fatalf("bounds after Clear = %v", b)
			}

			// scaled up from 16 to 40 pixels
			s.Blit(red, 10, 10, 40, 40)
			img := s.Image()

			if !isRed(img.At(30, 30)) {
				t.Errorf("pixel inside blit = %v, want red", img.At(30, 30))
			}
			if !isEmpty(img.At(70, 70)) {
				t.Errorf("pixel outside blit = %v, want empty", img.At(70, 70))
			}

			// partially off surface
			s.Blit(red, 90, -20, 40, 40)
			if !isRed(s.Image().At(95, 5)) {
				t.Error("clipped blit should still cover the visible part")
			}

			s.Clear(100, 80)
			if !isEmpty(s.Image().At(30, 30)) {
				t.Error("Clear should erase previous frame")
			}

			s.Clear(20, 10)
			if b := s.Image().Bounds(); b.Dx() != 20 || b.Dy() != 10 {
				t.Errorf("bounds after resize = %v", b)
			}
		})
	}
}
