package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime configuration, read from the environment.
type AppConfig struct {
	// Geocoding provider: "nominatim" (default, keyless) or "google".
	GeocoderProvider   string
	GoogleAPIKey       string
	NominatimUserAgent string

	// Pacing and timeouts for the geocoding batch.
	GeocodeMinDelay time.Duration
	GeocodeTimeout  time.Duration

	// Shared outbound HTTP client timeout.
	HTTPTimeout time.Duration

	// Parameter catalog discovery.
	CatalogURL             string
	CatalogElementID       string
	CatalogTimeout         time.Duration
	CatalogRefreshInterval time.Duration

	LogLevel  string
	LogFormat string // json, text

	Port string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.GeocoderProvider = strings.ToLower(getenvDefault("GEOCODER_PROVIDER", "nominatim"))
	switch cfg.GeocoderProvider {
	case "nominatim", "google":
	default:
		return nil, fmt.Errorf("invalid GEOCODER_PROVIDER %q: must be nominatim or google", cfg.GeocoderProvider)
	}

	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	if cfg.GeocoderProvider == "google" && cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required when GEOCODER_PROVIDER=google")
	}

	cfg.NominatimUserAgent = getenvDefault("NOMINATIM_USER_AGENT", "nasapower/1.0")

	var err error
	if cfg.GeocodeMinDelay, err = getenvDuration("GEOCODE_MIN_DELAY", "3s"); err != nil {
		return nil, err
	}
	if cfg.GeocodeTimeout, err = getenvDuration("GEOCODE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	cfg.CatalogURL = getenvDefault("CATALOG_URL", "https://power.larc.nasa.gov/data-access-viewer/")
	cfg.CatalogElementID = getenvDefault("CATALOG_ELEMENT_ID", "parameters")
	if cfg.CatalogTimeout, err = getenvDuration("CATALOG_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.CatalogRefreshInterval, err = getenvDuration("CATALOG_REFRESH_INTERVAL", "12h"); err != nil {
		return nil, err
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "text")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// NewLogger creates a slog.Logger from the configured level and format.
func (c *AppConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(c.LogFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
