package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/render/internal/infrastructure/http/v1/dto"
)

func (h *Handler) Frame(c *gin.Context) {
	stats, ok := h.mapService.LastFrame()
	if !ok {
		h.respondWithError(c, http.StatusNotFound, ErrNoFrame)
		return
	}

	h.respondWithJSON(c, http.StatusOK, "", dto.NewFrameResponse(stats, true))
}

func (h *Handler) FramePNG(c *gin.Context) {
	data, err := h.mapService.Snapshot()
	if err != nil {
		h.respondWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, "image/png", data)
}
