package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_tile_cache_hits_total",
		Help: "Total number of tile cache lookups that found an entry",
	})

	TileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_tile_cache_misses_total",
		Help: "Total number of tile cache lookups that found nothing",
	})

	TileCacheInserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_tile_cache_inserts_total",
		Help: "Total number of tile cache insert operations",
	})

	TileCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_tile_cache_evictions_total",
		Help: "Total number of tiles evicted by capacity enforcement",
	})

	TileCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "render_tile_cache_size",
		Help: "Current number of entries in the tile cache",
	})

	TileFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "render_tile_fetches_total",
		Help: "Total number of tile fetches by result",
	}, []string{"result"})

	TilesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "render_tiles_in_flight",
		Help: "Number of tile fetches currently running",
	})

	UpstreamRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_upstream_requests_total",
		Help: "Total number of upstream tile server requests",
	})

	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "render_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	StoreHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "render_store_hits_total",
		Help: "Total number of blob store hits",
	}, []string{"driver"})

	StoreMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "render_store_misses_total",
		Help: "Total number of blob store misses",
	}, []string{"driver"})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "render_store_errors_total",
		Help: "Total number of blob store errors",
	}, []string{"driver", "operation"})

	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "render_store_operation_duration_seconds",
		Help:    "Duration of blob store operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"driver", "operation"})

	FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_frames_total",
		Help: "Total number of composited frames",
	})

	FrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "render_frame_duration_seconds",
		Help:    "Time spent resolving and compositing a frame",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})

	TilesDrawn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_tiles_drawn_total",
		Help: "Total number of tile blits issued to the surface",
	})
)
