package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/render/internal/camera"
	v1 "github.com/jaennil/guide_helper/backend/render/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/render/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/render/internal/infrastructure/surface"
	"github.com/jaennil/guide_helper/backend/render/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/render/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/render/internal/repository/store"
	"github.com/jaennil/guide_helper/backend/render/internal/usecase"
	"github.com/jaennil/guide_helper/backend/render/pkg/config"
	"github.com/jaennil/guide_helper/backend/render/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
	"github.com/jaennil/guide_helper/backend/render/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("app config", "cfg", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	blobStore, err := store.New(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize blob store", "driver", cfg.Store.Driver, "error", err)
	}
	defer blobStore.Close()

	tilePyramid, err := pyramid.New(cfg.Render.TilePixelSize)
	if err != nil {
		l.Fatal("failed to build tile pyramid", "error", err)
	}

	tileCache, err := cache.NewTileCache(cfg.Render.CacheCapacity, l)
	if err != nil {
		l.Fatal("failed to initialize tile cache", "error", err)
	}

	fetcher := usecase.NewHTTPFetcher(usecase.HTTPFetcherConfig{
		UserAgent:     cfg.Upstream.UserAgent,
		Timeout:       cfg.Upstream.Timeout,
		TilePixelSize: cfg.Render.TilePixelSize,
	}, blobStore, l)

	loader := usecase.NewTileLoader(usecase.LoaderConfig{
		URLTemplate:   cfg.Upstream.URLTemplate,
		ServerParams:  cfg.Upstream.ServerParams,
		MaxConcurrent: cfg.Render.MaxConcurrentFetches,
	}, tileCache, fetcher, l)
	defer loader.Close()

	compositor := usecase.NewFrameCompositor(usecase.NewViewportResolver(tilePyramid), tileCache, loader, l)

	cam, err := camera.New(cfg.Camera.FOV, cfg.Camera.MinHeight, cfg.Camera.MaxHeight)
	if err != nil {
		l.Fatal("failed to initialize camera", "error", err)
	}
	if err := cam.SetView(cfg.Camera.InitialLon, cfg.Camera.InitialLat, cfg.Camera.InitialHeight); err != nil {
		l.Fatal("failed to set initial view", "error", err)
	}

	mapUseCase, err := usecase.NewMapUseCase(
		cam,
		usecase.Viewport{Width: cfg.Render.ViewportWidth, Height: cfg.Render.ViewportHeight},
		newSurface(cfg.Render.Surface),
		compositor,
		loader,
		l,
	)
	if err != nil {
		l.Fatal("failed to initialize map", "error", err)
	}

	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		mapUseCase.Run(ctx)
	}()

	h := handler.NewHandler(mapUseCase, validator.New())
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	httpServer := http_server.NewServer(cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	l.Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	l.Info("shutting down http server...", "address", httpServer.Addr)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	} else {
		l.Info("http server shutdown completed")
	}

	<-renderDone

	l.Info("application shutdown completed")
}

func newSurface(kind string) usecase.RenderTarget {
	if kind == "gg" {
		return surface.NewGG()
	}
	return surface.NewRaster()
}
