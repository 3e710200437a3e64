package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "nasapower/internal/api/http"
	"nasapower/internal/catalog"
	"nasapower/internal/config"
	"nasapower/internal/geocode"
	"nasapower/internal/power"
	"nasapower/internal/scheduler"
	"nasapower/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := cfg.NewLogger()

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var geocoder geocode.Geocoder
	switch cfg.GeocoderProvider {
	case "google":
		geocoder = geocode.NewGoogleClient(cfg.GoogleAPIKey, slogger)
	default:
		geocoder = geocode.NewNominatimClient(httpClient, cfg.NominatimUserAgent, slogger)
	}

	resolver := geocode.NewResolver(geocoder, slogger)
	fetcher := power.NewFetcher(power.NewClient(httpClient, slogger), slogger)
	registry := store.NewRegistry()

	// Periodic catalog discovery feeding the /parameters endpoint.
	discoverer := catalog.NewDiscoverer(slogger)
	refresher := scheduler.New(
		discoverer,
		cfg.CatalogURL,
		cfg.CatalogElementID,
		cfg.CatalogTimeout,
		cfg.CatalogRefreshInterval,
		slogger,
	)
	if err := refresher.Start(); err != nil {
		log.Fatalf("failed to start catalog refresher: %v", err)
	}
	defer refresher.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "nasapower",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "nasapower",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Services{
		Registry: registry,
		Resolver: resolver,
		Fetcher:  fetcher,
		Catalog:  refresher,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
