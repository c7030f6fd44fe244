package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	"github.com/jaennil/guide_helper/backend/render/internal/usecase"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
)

// MapService is the part of the map use case the HTTP API drives.
type MapService interface {
	Camera() camera.Camera
	Viewport() usecase.Viewport
	SetView(lon, lat, height float64) error
	Zoom(deltaY float64)
	Pan(dx, dy float64) error
	StopPan()
	Resize(vp usecase.Viewport) error
	LastFrame() (usecase.FrameStats, bool)
	Snapshot() ([]byte, error)
	Subscribe() (<-chan usecase.FrameStats, func())
}

type Handler struct {
	mapService MapService
	validate   *validator.Validate
}

func NewHandler(ms MapService, validate *validator.Validate) *Handler {
	return &Handler{
		mapService: ms,
		validate:   validate,
	}
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func requestLogger(c *gin.Context) logger.Logger {
	if l, ok := c.Get("logger"); ok {
		if l, ok := l.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}

func (h *Handler) respondWithJSON(c *gin.Context, code int, message string, data any) {
	c.JSON(code, response{
		Success: code < 400,
		Message: message,
		Data:    data,
	})
}

func (h *Handler) respondWithError(c *gin.Context, code int, err error) {
	if code >= 500 {
		requestLogger(c).Error("http_server error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", code,
			"error", err,
		)
		err = InternalServerError
	}
	h.respondWithJSON(c, code, err.Error(), nil)
}

// bind decodes the JSON body into req and validates it.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		requestLogger(c).Warn("invalid request body", "path", c.Request.URL.Path, "error", err)
		h.respondWithError(c, http.StatusBadRequest, ErrFailedToDecodeRequestBody)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		requestLogger(c).Warn("request validation failed", "path", c.Request.URL.Path, "error", err)
		h.respondWithError(c, http.StatusUnprocessableEntity, err)
		return false
	}
	return true
}
