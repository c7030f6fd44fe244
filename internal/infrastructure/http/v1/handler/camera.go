package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	"github.com/jaennil/guide_helper/backend/render/internal/geo"
	"github.com/jaennil/guide_helper/backend/render/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/render/internal/usecase"
)

func (h *Handler) Camera(c *gin.Context) {
	h.respondWithJSON(c, http.StatusOK, "", dto.NewCameraResponse(h.mapService.Camera()))
}

func (h *Handler) SetView(c *gin.Context) {
	var req dto.SetViewRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.mapService.SetView(*req.Lon, *req.Lat, req.Height)
	if err != nil {
		if errors.Is(err, geo.ErrProjectionDomain) {
			h.respondWithError(c, http.StatusUnprocessableEntity, err)
			return
		}
		h.respondWithError(c, http.StatusInternalServerError, err)
		return
	}

	requestLogger(c).Info("camera view set", "lon", *req.Lon, "lat", *req.Lat, "height", req.Height)
	h.respondWithJSON(c, http.StatusOK, "view set", dto.NewCameraResponse(h.mapService.Camera()))
}

func (h *Handler) Zoom(c *gin.Context) {
	var req dto.ZoomRequest
	if !h.bind(c, &req) {
		return
	}

	h.mapService.Zoom(req.Delta)
	h.respondWithJSON(c, http.StatusOK, "zoomed", dto.NewCameraResponse(h.mapService.Camera()))
}

func (h *Handler) Pan(c *gin.Context) {
	var req dto.PanRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.mapService.Pan(req.DX, req.DY); err != nil {
		if errors.Is(err, camera.ErrInvalidMove) {
			h.respondWithError(c, http.StatusUnprocessableEntity, err)
			return
		}
		h.respondWithError(c, http.StatusInternalServerError, err)
		return
	}
	if req.End {
		h.mapService.StopPan()
	}
	h.respondWithJSON(c, http.StatusOK, "panned", dto.NewCameraResponse(h.mapService.Camera()))
}

func (h *Handler) Resize(c *gin.Context) {
	var req dto.ViewportRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.mapService.Resize(usecase.Viewport{Width: req.Width, Height: req.Height})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidViewport) {
			h.respondWithError(c, http.StatusUnprocessableEntity, err)
			return
		}
		h.respondWithError(c, http.StatusInternalServerError, err)
		return
	}

	vp := h.mapService.Viewport()
	h.respondWithJSON(c, http.StatusOK, "viewport resized", dto.ViewportResponse{Width: vp.Width, Height: vp.Height})
}
