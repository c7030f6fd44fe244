package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/render/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
	"github.com/jaennil/guide_helper/backend/render/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(handler *handler.Handler, l logger.Logger, telemetryEnabled bool) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware())
	}

	r.Use(ginZapLogger(l))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)

	v1.GET("/camera", handler.Camera)
	v1.POST("/camera/view", handler.SetView)
	v1.POST("/camera/zoom", handler.Zoom)
	v1.POST("/camera/pan", handler.Pan)
	v1.POST("/viewport", handler.Resize)

	v1.GET("/frame", handler.Frame)
	v1.GET("/frame.png", handler.FramePNG)
	v1.GET("/ws", handler.Frames)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		start := time.Now()

		c.Next()

		latency := time.Since(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
