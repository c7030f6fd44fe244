// Package surface provides render targets for composited frames.
package surface

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Raster draws onto an in-memory RGBA image.
type Raster struct {
	img    *image.RGBA
	scaler draw.Scaler
}

func NewRaster() *Raster {
	return &Raster{
		img:    image.NewRGBA(image.Rectangle{}),
		scaler: draw.ApproxBiLinear,
	}
}

func (r *Raster) Clear(width, height int) {
	if r.img.Rect.Dx() != width || r.img.Rect.Dy() != height {
		r.img = image.NewRGBA(image.Rect(0, 0, width, height))
		return
	}
	clear(r.img.Pix)
}

// Blit scales src into the w×h box whose top-left corner is x, y. Parts of
// the box outside the surface are clipped.
func (r *Raster) Blit(src image.Image, x, y, w, h float64) {
	if src == nil || w <= 0 || h <= 0 {
		return
	}

	dst := image.Rect(
		int(math.Round(x)),
		int(math.Round(y)),
		int(math.Round(x+w)),
		int(math.Round(y+h)),
	)
	if dst.Empty() || !dst.Overlaps(r.img.Rect) {
		return
	}

	r.scaler.Scale(r.img, dst, src, src.Bounds(), draw.Over, nil)
}

func (r *Raster) Image() image.Image {
	return r.img
}
