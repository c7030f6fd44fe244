package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/jaennil/guide_helper/backend/render/internal/repository/store"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
	"github.com/jaennil/guide_helper/backend/render/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/render/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageFetcher turns a tile URL into decoded pixels.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// FetchError describes a tile that could not be obtained. Status is the
// upstream HTTP status, or zero when no response arrived.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: upstream returned status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// maxTileBytes caps one upstream response. Real raster tiles stay far below it.
const maxTileBytes = 4 << 20

type HTTPFetcherConfig struct {
	UserAgent     string
	Timeout       time.Duration
	TilePixelSize int
}

// HTTPFetcher downloads tiles, reading through a blob store of encoded bytes.
type HTTPFetcher struct {
	httpClient    *http.Client
	store         store.BlobStore
	userAgent     string
	tilePixelSize int
	maxBytes      int64
	logger        logger.Logger
}

func NewHTTPFetcher(cfg HTTPFetcherConfig, s store.BlobStore, l logger.Logger) *HTTPFetcher {
	if s == nil {
		s = store.NewNoopStore()
	}
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		store:         s,
		userAgent:     cfg.UserAgent,
		tilePixelSize: cfg.TilePixelSize,
		maxBytes:      maxTileBytes,
		logger:        l,
	}
}

var _ ImageFetcher = (*HTTPFetcher)(nil)

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	data, ok, err := f.store.Get(ctx, url)
	if err != nil {
		f.logger.Warn("failed to check blob store, will fetch from upstream", "url", url, "error", err)
	} else if ok {
		img, err := f.decode(data)
		if err == nil {
			f.logger.Debug("blob store hit", "url", url, "size", len(data))
			return img, nil
		}
		f.logger.Warn("stored blob is not a valid image, refetching", "url", url, "error", err)
	}

	data, err = f.download(ctx, url)
	if err != nil {
		return nil, err
	}

	img, err := f.decode(data)
	if err != nil {
		f.logger.Error("failed to decode tile", "url", url, "error", err)
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to decode tile: %w", err)}
	}

	if err := f.store.Set(ctx, url, data); err != nil {
		f.logger.Warn("failed to store tile blob", "url", url, "error", err)
	}

	return img, nil
}

func (f *HTTPFetcher) download(ctx context.Context, url string) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "upstream.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tile.url", url)),
	)
	defer span.End()

	fail := func(err *FetchError) ([]byte, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Error("failed to create request", "url", url, "error", err)
		return fail(&FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)})
	}
	req.Header.Set("User-Agent", f.userAgent)

	metrics.UpstreamRequests.Inc()
	start := time.Now()
	resp, err := f.httpClient.Do(req)
	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		f.logger.Error("failed to fetch from upstream", "url", url, "error", err)
		return fail(&FetchError{URL: url, Err: err})
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("upstream returned non-200", "url", url, "status", resp.StatusCode)
		return fail(&FetchError{URL: url, Status: resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		f.logger.Error("failed to read tile data", "url", url, "error", err)
		return fail(&FetchError{URL: url, Err: fmt.Errorf("failed to read tile data: %w", err)})
	}
	if int64(len(data)) > f.maxBytes {
		f.logger.Error("tile exceeds size limit", "url", url, "limit", f.maxBytes)
		return fail(&FetchError{URL: url, Err: fmt.Errorf("tile exceeds %d bytes", f.maxBytes)})
	}

	f.logger.Debug("fetched tile from upstream", "url", url, "size", len(data))
	return data, nil
}

// decode parses png, jpeg or webp and scales the result to a square tile.
func (f *HTTPFetcher) decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	size := f.tilePixelSize
	b := img.Bounds()
	if size <= 0 || (b.Min == image.Point{} && b.Dx() == size && b.Dy() == size) {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}
