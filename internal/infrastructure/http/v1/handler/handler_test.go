package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	"github.com/jaennil/guide_helper/backend/render/internal/geo"
	"github.com/jaennil/guide_helper/backend/render/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/render/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/render/internal/tile"
	"github.com/jaennil/guide_helper/backend/render/internal/usecase"
)

type fakeMap struct {
	mu       sync.Mutex
	cam      camera.Camera
	vp       usecase.Viewport
	last     usecase.FrameStats
	rendered bool
	zooms    []float64
	pans     [][2]float64
	stopped  bool
	frames   chan usecase.FrameStats
}

func newFakeMap() *fakeMap {
	return &fakeMap{
		cam:    camera.Camera{Position: geo.WorldPosition{Z: 1e6}, FOV: 1},
		vp:     usecase.Viewport{Width: 800, Height: 600},
		frames: make(chan usecase.FrameStats, 4),
	}
}

func (m *fakeMap) Camera() camera.Camera {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cam
}

func (m *fakeMap) Viewport() usecase.Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vp
}

func (m *fakeMap) SetView(lon, lat, height float64) error {
	pos, err := geo.ToWorld(lon, lat)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pos.Z = height
	m.cam.Position = pos
	return nil
}

func (m *fakeMap) Zoom(deltaY float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zooms = append(m.zooms, deltaY)
}

func (m *fakeMap) Pan(dx, dy float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pans = append(m.pans, [2]float64{dx, dy})
	return nil
}

func (m *fakeMap) StopPan() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *fakeMap) Resize(vp usecase.Viewport) error {
	if !vp.Valid() {
		return usecase.ErrInvalidViewport
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vp = vp
	return nil
}

func (m *fakeMap) LastFrame() (usecase.FrameStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.rendered
}

func (m *fakeMap) Snapshot() ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (m *fakeMap) Subscribe() (<-chan usecase.FrameStats, func()) {
	return m.frames, func() {}
}

func setupRouter(m *fakeMap) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(m, validator.New())

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/healthz", h.Healthz)
	v1.GET("/camera", h.Camera)
	v1.POST("/camera/view", h.SetView)
	v1.POST("/camera/zoom", h.Zoom)
	v1.POST("/camera/pan", h.Pan)
	v1.POST("/viewport", h.Resize)
	v1.GET("/frame", h.Frame)
	v1.GET("/frame.png", h.FramePNG)
	v1.GET("/ws", h.Frames)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) (T, string) {
	t.Helper()
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    T      `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
	return resp.Data, resp.Message
}

func testFrame() usecase.FrameStats {
	level, _ := pyramid.Default().Level(1)
	return usecase.FrameStats{
		Frame: usecase.Frame{
			Viewport:   usecase.Viewport{Width: 800, Height: 600},
			PixelRatio: 1443.4,
			Level:      level,
			Cells: []usecase.Cell{
				{Col: 0, Row: 0, Index: tile.Index{X: 0, Y: 0, Z: 1}},
				{Col: 2, Row: 0, Index: tile.Index{X: 0, Y: 0, Z: 1}},
				{Col: 1, Row: 1, Index: tile.Index{X: 1, Y: 1, Z: 1}},
			},
		},
		Drawn:    2,
		Pending:  1,
		Duration: 1500 * time.Microsecond,
	}
}

func TestHealthz(t *testing.T) {
	w := do(setupRouter(newFakeMap()), http.MethodGet, "/api/v1/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("healthz = %d %q", w.Code, w.Body.String())
	}
}

func TestSetView(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"lon": 108, "lat": 30, "height": 500000}`, http.StatusOK},
		{"zero lon is valid", `{"lon": 0, "lat": 0, "height": 1000}`, http.StatusOK},
		{"missing lon", `{"lat": 30, "height": 500000}`, http.StatusUnprocessableEntity},
		{"lat out of range", `{"lon": 0, "lat": 90, "height": 500000}`, http.StatusUnprocessableEntity},
		{"negative height", `{"lon": 0, "lat": 0, "height": -1}`, http.StatusUnprocessableEntity},
		{"malformed", `{"lon": `, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(setupRouter(newFakeMap()), http.MethodPost, "/api/v1/camera/view", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestSetViewResponse(t *testing.T) {
	w := do(setupRouter(newFakeMap()), http.MethodPost, "/api/v1/camera/view", `{"lon": 108, "lat": 30, "height": 500000}`)
	cam, _ := decode[dto.CameraResponse](t, w)

	if cam.Height != 500000 || cam.Lon < 107.999 || cam.Lon > 108.001 || cam.Lat < 29.999 || cam.Lat > 30.001 {
		t.Errorf("camera = %+v", cam)
	}
}

func TestZoomAndPan(t *testing.T) {
	m := newFakeMap()
	r := setupRouter(m)

	if w := do(r, http.MethodPost, "/api/v1/camera/zoom", `{"delta": -120}`); w.Code != http.StatusOK {
		t.Fatalf("zoom status = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/camera/zoom", `{"delta": 0}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero zoom status = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/camera/pan", `{"dx": 5, "dy": -3, "end": true}`); w.Code != http.StatusOK {
		t.Fatalf("pan status = %d", w.Code)
	}

	if len(m.zooms) != 1 || m.zooms[0] != -120 {
		t.Errorf("zooms = %v", m.zooms)
	}
	if len(m.pans) != 1 || m.pans[0] != [2]float64{5, -3} || !m.stopped {
		t.Errorf("pans = %v stopped = %v", m.pans, m.stopped)
	}
}

func TestPanRejectsHugeDrag(t *testing.T) {
	m := newFakeMap()
	r := setupRouter(m)

	for _, body := range []string{`{"dx": 1e308, "dy": 0}`, `{"dx": 0, "dy": -20000}`} {
		if w := do(r, http.MethodPost, "/api/v1/camera/pan", body); w.Code != http.StatusUnprocessableEntity {
			t.Errorf("pan %s status = %d, want 422", body, w.Code)
		}
	}
	if len(m.pans) != 0 {
		t.Errorf("rejected drags reached the map: %v", m.pans)
	}
}

func TestResize(t *testing.T) {
	m := newFakeMap()
	r := setupRouter(m)

	w := do(r, http.MethodPost, "/api/v1/viewport", `{"width": 1024, "height": 768}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	vp, _ := decode[dto.ViewportResponse](t, w)
	if vp.Width != 1024 || vp.Height != 768 {
		t.Errorf("viewport = %+v", vp)
	}

	if w := do(r, http.MethodPost, "/api/v1/viewport", `{"width": 0, "height": 768}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero width status = %d", w.Code)
	}
}

func TestFrame(t *testing.T) {
	m := newFakeMap()
	r := setupRouter(m)

	w := do(r, http.MethodGet, "/api/v1/frame", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status before first frame = %d", w.Code)
	}
	if _, msg := decode[any](t, w); msg != ErrNoFrame.Error() {
		t.Errorf("message = %q", msg)
	}

	m.last, m.rendered = testFrame(), true

	w = do(r, http.MethodGet, "/api/v1/frame", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	frame, _ := decode[dto.FrameResponse](t, w)

	if frame.Level != 1 || frame.Cells != 3 || frame.Drawn != 2 || frame.Pending != 1 || frame.DurationMS != 1.5 {
		t.Errorf("frame = %+v", frame)
	}
	if len(frame.Tiles) != 2 {
		t.Fatalf("tiles = %d, want 2 distinct", len(frame.Tiles))
	}
	nw := frame.Tiles[0]
	if nw.West != -180 || nw.East != 0 || nw.South != 0 || nw.North < 85 {
		t.Errorf("bounds of 1/0/0 = %+v", nw)
	}
}

func TestFramePNG(t *testing.T) {
	w := do(setupRouter(newFakeMap()), http.MethodGet, "/api/v1/frame.png", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("frame.png = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not the snapshot")
	}
}

func TestFramesWebsocket(t *testing.T) {
	m := newFakeMap()
	srv := httptest.NewServer(setupRouter(m))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	m.frames <- testFrame()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame dto.FrameResponse
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if frame.Drawn != 2 || frame.Level != 1 || len(frame.Tiles) != 0 {
		t.Errorf("pushed frame = %+v", frame)
	}
}

func TestInternalErrorsAreMasked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newFakeMap(), validator.New())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.respondWithError(c, http.StatusInternalServerError, errors.New("disk on fire"))

	if _, msg := decode[any](t, w); msg != InternalServerError.Error() {
		t.Errorf("message = %q", msg)
	}
}
