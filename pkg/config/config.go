package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Store     Store     `envPrefix:"STORE_"`
		Redis     Redis     `envPrefix:"REDIS_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		Render    Render    `envPrefix:"RENDER_"`
		Camera    Camera    `envPrefix:"CAMERA_"`
	}

	HTTP struct {
		Server  Server        `envPrefix:"SERVER_"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"8080" validate:"required,numeric"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-render"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Store struct {
		Driver    string        `env:"DRIVER" envDefault:"memory" validate:"oneof=none memory redis sqlite"`
		SQLiteDSN string        `env:"SQLITE_DSN" envDefault:"file:tiles.db?cache=shared&mode=memory"`
		MaxBytes  int64         `env:"MAX_BYTES" envDefault:"67108864" validate:"gt=0"`
		TTL       time.Duration `env:"TTL" envDefault:"24h"`
	}

	Redis struct {
		Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
		Password string        `env:"PASSWORD" envDefault:""`
		DB       int           `env:"DB" envDefault:"0" validate:"gte=0"`
		TTL      time.Duration `env:"TTL" envDefault:"24h"`
	}

	Upstream struct {
		URLTemplate  string        `env:"URL_TEMPLATE" envDefault:"https://mt1.google.com/vt/?lyrs=s&x={x}&y={y}&z={z}&{params}" validate:"required,contains={x},contains={y},contains={z}"`
		ServerParams string        `env:"SERVER_PARAMS" envDefault:"hl=en"`
		UserAgent    string        `env:"USER_AGENT" envDefault:"GuideHelperRender/1.0 (https://github.com/jaennil/guide_helper)"`
		Timeout      time.Duration `env:"TIMEOUT" envDefault:"30s" validate:"gt=0"`
	}

	Render struct {
		CacheCapacity        int    `env:"CACHE_CAPACITY" envDefault:"100" validate:"gt=0"`
		TilePixelSize        int    `env:"TILE_PIXEL_SIZE" envDefault:"256" validate:"gt=0"`
		MaxConcurrentFetches int64  `env:"MAX_CONCURRENT_FETCHES" envDefault:"8" validate:"gt=0"`
		ViewportWidth        int    `env:"VIEWPORT_WIDTH" envDefault:"800" validate:"gt=0"`
		ViewportHeight       int    `env:"VIEWPORT_HEIGHT" envDefault:"600" validate:"gt=0"`
		Surface              string `env:"SURFACE" envDefault:"raster" validate:"oneof=raster gg"`
	}

	Camera struct {
		FOV           float64 `env:"FOV" envDefault:"1.0471975511965976" validate:"gt=0,lt=3.141592653589793"`
		MinHeight     float64 `env:"MIN_HEIGHT" envDefault:"1000" validate:"gt=0"`
		MaxHeight     float64 `env:"MAX_HEIGHT" envDefault:"10000000" validate:"gtfield=MinHeight"`
		InitialLon    float64 `env:"INITIAL_LON" envDefault:"108" validate:"gte=-180,lte=180"`
		InitialLat    float64 `env:"INITIAL_LAT" envDefault:"30" validate:"gt=-90,lt=90"`
		InitialHeight float64 `env:"INITIAL_HEIGHT" envDefault:"1000000" validate:"gt=0"`
	}
)

// ConfigurationError reports a configuration that cannot start the service.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return &ConfigurationError{Err: err}
	}

	if math.IsNaN(c.Camera.FOV) || math.IsInf(c.Camera.FOV, 0) {
		return &ConfigurationError{Err: errors.New("camera fov must be finite")}
	}

	if c.Camera.InitialHeight < c.Camera.MinHeight || c.Camera.InitialHeight > c.Camera.MaxHeight {
		return &ConfigurationError{Err: fmt.Errorf("camera initial height %v outside [%v, %v]",
			c.Camera.InitialHeight, c.Camera.MinHeight, c.Camera.MaxHeight)}
	}

	if n := c.Render.maxFrameTiles(); n > c.Render.CacheCapacity {
		return &ConfigurationError{Err: fmt.Errorf("viewport %dx%d needs up to %d cached tiles, cache capacity is %d",
			c.Render.ViewportWidth, c.Render.ViewportHeight, n, c.Render.CacheCapacity)}
	}

	return nil
}

// maxFrameTiles is the most tiles one frame of the configured viewport can
// show. It mirrors usecase.MaxCells, which cannot be imported from here.
func (r Render) maxFrameTiles() int {
	size := r.TilePixelSize
	cols := (2*r.ViewportWidth+size-1)/size + 3
	rows := (2*r.ViewportHeight+size-1)/size + 3
	return cols * rows
}
