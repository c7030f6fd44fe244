package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jaennil/guide_helper/backend/render/internal/infrastructure/http/v1/dto"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Frames streams the stats of every rendered frame over a websocket.
func (h *Handler) Frames(c *gin.Context) {
	l := requestLogger(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	frames, cancel := h.mapService.Subscribe()
	defer cancel()

	// the client only sends close frames; reading detects them
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if stats, ok := h.mapService.LastFrame(); ok {
		if err := h.writeFrame(conn, dto.NewFrameResponse(stats, false)); err != nil {
			l.Debug("websocket write failed", "error", err)
			return
		}
	}

	l.Info("frame subscriber connected", "ip", c.ClientIP())

	for {
		select {
		case <-closed:
			l.Info("frame subscriber disconnected", "ip", c.ClientIP())
			return
		case <-c.Request.Context().Done():
			return
		case stats, ok := <-frames:
			if !ok {
				return
			}
			if err := h.writeFrame(conn, dto.NewFrameResponse(stats, false)); err != nil {
				l.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, frame dto.FrameResponse) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
