package surface

import (
	"image"

	"github.com/gogpu/gg"
)

// GG draws through a gogpu/gg software context.
type GG struct {
	dc *gg.Context
}

func NewGG() *GG {
	return &GG{dc: gg.NewContext(1, 1)}
}

func (s *GG) Clear(width, height int) {
	if s.dc.Width() != width || s.dc.Height() != height {
		_ = s.dc.Close()
		s.dc = gg.NewContext(width, height)
		return
	}
	s.dc.Clear()
}

func (s *GG) Blit(src image.Image, x, y, w, h float64) {
	if src == nil || w <= 0 || h <= 0 {
		return
	}

	s.dc.DrawImageEx(gg.ImageBufFromImage(src), gg.DrawImageOptions{
		X:             x,
		Y:             y,
		DstWidth:      w,
		DstHeight:     h,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
}

func (s *GG) Image() image.Image {
	_ = s.dc.FlushGPU()
	return s.dc.Image()
}

func (s *GG) Close() error {
	return s.dc.Close()
}
