package dto

import (
	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	"github.com/jaennil/guide_helper/backend/render/internal/geo"
	"github.com/jaennil/guide_helper/backend/render/internal/usecase"
)

type SetViewRequest struct {
	Lon    *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Lat    *float64 `json:"lat" validate:"required,gt=-90,lt=90"`
	Height float64  `json:"height" validate:"required,gt=0"`
}

type ZoomRequest struct {
	Delta float64 `json:"delta" validate:"required"`
}

type PanRequest struct {
	DX  float64 `json:"dx" validate:"gte=-16384,lte=16384"`
	DY  float64 `json:"dy" validate:"gte=-16384,lte=16384"`
	End bool    `json:"end"`
}

type ViewportRequest struct {
	Width  int `json:"width" validate:"required,gt=0,lte=8192"`
	Height int `json:"height" validate:"required,gt=0,lte=8192"`
}

type CameraResponse struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	FOV    float64 `json:"fov"`
	State  string  `json:"state"`
}

func NewCameraResponse(cam camera.Camera) CameraResponse {
	lon, lat := geo.ToGeo(cam.Position)
	return CameraResponse{
		X:      cam.Position.X,
		Y:      cam.Position.Y,
		Height: cam.Position.Z,
		Lon:    lon,
		Lat:    lat,
		FOV:    cam.FOV,
		State:  cam.State.String(),
	}
}

type ViewportResponse struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type TileResponse struct {
	Z     int     `json:"z"`
	X     int     `json:"x"`
	Y     int     `json:"y"`
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

type FrameResponse struct {
	Level       int              `json:"level"`
	PixelRatio  float64          `json:"pixel_ratio"`
	MetreWidth  float64          `json:"metre_width"`
	MetreHeight float64          `json:"metre_height"`
	Viewport    ViewportResponse `json:"viewport"`
	Cells       int              `json:"cells"`
	Drawn       int              `json:"drawn"`
	Requested   int              `json:"requested"`
	Pending     int              `json:"pending"`
	Failed      int              `json:"failed"`
	DurationMS  float64          `json:"duration_ms"`
	Tiles       []TileResponse   `json:"tiles,omitempty"`
}

// NewFrameResponse converts frame stats. Tiles are listed with their
// lon/lat bounds only when withTiles is set.
func NewFrameResponse(stats usecase.FrameStats, withTiles bool) FrameResponse {
	f := stats.Frame
	resp := FrameResponse{
		Level:       f.Level.Level,
		PixelRatio:  f.PixelRatio,
		MetreWidth:  f.MetreWidth,
		MetreHeight: f.MetreHeight,
		Viewport:    ViewportResponse{Width: f.Viewport.Width, Height: f.Viewport.Height},
		Cells:       len(f.Cells),
		Drawn:       stats.Drawn,
		Requested:   stats.Requested,
		Pending:     stats.Pending,
		Failed:      stats.Failed,
		DurationMS:  float64(stats.Duration.Microseconds()) / 1000,
	}

	if !withTiles {
		return resp
	}

	tiles := f.Tiles()
	resp.Tiles = make([]TileResponse, 0, len(tiles))
	for _, t := range tiles {
		b := t.Bound()
		resp.Tiles = append(resp.Tiles, TileResponse{
			Z:     t.Z,
			X:     t.X,
			Y:     t.Y,
			West:  b.Min.Lon(),
			South: b.Min.Lat(),
			East:  b.Max.Lon(),
			North: b.Max.Lat(),
		})
	}
	return resp
}
