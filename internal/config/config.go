package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/env-monitor/internal/weather"
)

// Store backends.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var validate = validator.New()

type AppConfig struct {
	GoogleWeatherAPIKey string  `validate:"required"`
	WeatherBaseURL      string  `validate:"required,url"`
	Latitude            float64 `validate:"gte=-90,lte=90"`
	Longitude           float64 `validate:"gte=-180,lte=180"`

	// PollInterval controls how often the upstream API is polled.
	PollInterval time.Duration `validate:"gte=1s"`
	CycleTimeout time.Duration `validate:"gte=0s"`
	SkipOverlap  bool

	// Upstream client behaviour. A zero timeout keeps the transport default.
	UpstreamTimeout       time.Duration `validate:"gte=0s"`
	UpstreamMaxRetries    int           `validate:"gte=0,lte=5"`
	UpstreamRatePerMinute float64       `validate:"gte=0"`
	UpstreamBurst         int           `validate:"gte=1"`

	StoreBackend    string `validate:"oneof=mongo postgres memory"`
	MongoURI        string `validate:"required_if=StoreBackend mongo"`
	MongoDatabase   string `validate:"required_if=StoreBackend mongo"`
	MongoCollection string `validate:"required_if=StoreBackend mongo"`
	DatabaseURL     string `validate:"required_if=StoreBackend postgres"`
	StoreMaxHistory int    `validate:"gte=0"` // memory backend only (0 = unlimited)
	// StoreFailFast exits at startup when the store cannot be reached.
	StoreFailFast bool
	HistoryLimit    int    `validate:"gte=1,lte=50"`

	KafkaBrokers []string
	KafkaTopic   string   `validate:"required_with=KafkaBrokers"`

	GeocoderAPIKey string

	Alerts weather.Thresholds

	CORSAllowOrigins string
	Port             string        `validate:"required,numeric"`
	ShutdownTimeout  time.Duration `validate:"gt=0"`
	LogLevel         string        `validate:"oneof=debug info warn error"`
	LogFormat        string        `validate:"oneof=json text"`
}

// Location returns the polled coordinate.
func (c *AppConfig) Location() weather.Location {
	return weather.Location{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Load reads configuration from a .env file (if present) and the
// environment, applying defaults, then validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		GoogleWeatherAPIKey: os.Getenv("GOOGLE_WEATHER_API_KEY"),
		WeatherBaseURL:      getenvDefault("WEATHER_BASE_URL", "https://weather.googleapis.com/v1/currentConditions:lookup"),
		StoreBackend:        strings.ToLower(getenvDefault("STORE_BACKEND", BackendMongo)),
		MongoURI:            getenvDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getenvDefault("MONGO_DATABASE", "envmonitor"),
		MongoCollection:     getenvDefault("MONGO_COLLECTION", "sensors"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getenvDefault("KAFKA_TOPIC", "env-readings"),
		GeocoderAPIKey:      os.Getenv("GEOCODER_API_KEY"),
		CORSAllowOrigins:    getenvDefault("CORS_ALLOW_ORIGINS", "*"),
		Port:                getenvDefault("PORT", "5000"),
		LogLevel:            strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(getenvDefault("LOG_FORMAT", "json")),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	cfg.Latitude, err = getenvFloat("WEATHER_LATITUDE", 30.33)
	collect(err)
	cfg.Longitude, err = getenvFloat("WEATHER_LONGITUDE", 78.0)
	collect(err)

	cfg.PollInterval, err = getenvDuration("POLL_INTERVAL", "5m")
	collect(err)
	cfg.CycleTimeout, err = getenvDuration("CYCLE_TIMEOUT", "0s")
	collect(err)
	cfg.SkipOverlap, err = getenvBool("SCHEDULER_SKIP_OVERLAP", true)
	collect(err)

	cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", "0s")
	collect(err)
	cfg.UpstreamMaxRetries, err = getenvInt("UPSTREAM_MAX_RETRIES", 0)
	collect(err)
	cfg.UpstreamRatePerMinute, err = getenvFloat("UPSTREAM_RATE_PER_MINUTE", 6)
	collect(err)
	cfg.UpstreamBurst, err = getenvInt("UPSTREAM_BURST", 1)
	collect(err)

	cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 0)
	collect(err)
	cfg.StoreFailFast, err = getenvBool("STORE_FAIL_FAST", false)
	collect(err)
	cfg.HistoryLimit, err = getenvInt("HISTORY_LIMIT", weather.DefaultHistoryLimit)
	collect(err)

	th := weather.DefaultThresholds()
	th.MaxTemperature, err = getenvFloat("ALERT_MAX_TEMPERATURE", th.MaxTemperature)
	collect(err)
	th.MinHumidity, err = getenvFloat("ALERT_MIN_HUMIDITY", th.MinHumidity)
	collect(err)
	th.MaxAirQuality, err = getenvFloat("ALERT_MAX_AIR_QUALITY", th.MaxAirQuality)
	collect(err)
	cfg.Alerts = th

	cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s")
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
