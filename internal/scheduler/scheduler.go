// Package scheduler keeps the server's parameter catalog snapshot fresh.
// Discovery drives a full headless browser, far too slow to run per request,
// so a periodic job re-discovers the catalog and swaps the serving copy.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// CatalogSource discovers the parameter catalog. Satisfied by
// catalog.Discoverer.
type CatalogSource interface {
	Discover(ctx context.Context, pageURL string, timeout time.Duration, elementID string) (map[string]string, error)
}

// CatalogRefresher periodically re-runs catalog discovery and holds the most
// recent successful snapshot for the HTTP surface.
type CatalogRefresher struct {
	scheduler *gocron.Scheduler
	source    CatalogSource
	logger    *slog.Logger

	pageURL   string
	elementID string
	timeout   time.Duration
	interval  time.Duration

	mu     sync.RWMutex
	params map[string]string
}

func New(source CatalogSource, pageURL, elementID string, timeout, interval time.Duration, logger *slog.Logger) *CatalogRefresher {
	return &CatalogRefresher{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		logger:    logger.With("component", "catalog-refresher"),
		pageURL:   pageURL,
		elementID: elementID,
		timeout:   timeout,
		interval:  interval,
	}
}

// Start schedules the periodic refresh and kicks off an initial one in the
// background so the server does not block on the browser at boot.
func (c *CatalogRefresher) Start() error {
	if c.interval <= 0 {
		c.logger.Info("catalog refresh disabled; no interval configured")
		return nil
	}

	_, err := c.scheduler.Every(c.interval).Do(func() {
		if err := c.Refresh(context.Background()); err != nil {
			c.logger.Warn("scheduled catalog refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	c.scheduler.StartAsync()

	go func() {
		if err := c.Refresh(context.Background()); err != nil {
			c.logger.Warn("initial catalog refresh failed", "error", err)
		}
	}()
	return nil
}

// Refresh runs one discovery and, on success, replaces the snapshot.
// A failed discovery keeps the previous snapshot in place.
func (c *CatalogRefresher) Refresh(ctx context.Context) error {
	params, err := c.source.Discover(ctx, c.pageURL, c.timeout, c.elementID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.params = params
	c.mu.Unlock()

	c.logger.Info("catalog snapshot refreshed", "parameters", len(params))
	return nil
}

// Parameters returns a copy of the current snapshot. ok is false until the
// first discovery has succeeded.
func (c *CatalogRefresher) Parameters() (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.params == nil {
		return nil, false
	}
	out := make(map[string]string, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out, true
}

// Stop stops the scheduler and cancels any future refreshes.
func (c *CatalogRefresher) Stop() {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
}
