package geocode

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"nasapower/internal/places"
	"nasapower/internal/ratelimit"
)

const (
	// DefaultMinDelay spaces consecutive provider calls; public Nominatim
	// tolerates at most one request per second, we default well above that.
	DefaultMinDelay = 3 * time.Second

	// DefaultTimeout bounds a single geocoding lookup.
	DefaultTimeout = 10 * time.Second
)

// ResolveOptions tune a single resolution run. Zero values fall back to the
// package defaults.
type ResolveOptions struct {
	MinDelay time.Duration
	Timeout  time.Duration
}

// Resolver geocodes every name of a collection sequentially, pacing calls
// with a minimum inter-call interval. A name that fails to resolve is
// skipped; the batch never aborts because one place has no match.
type Resolver struct {
	geocoder Geocoder
	logger   *slog.Logger
}

func NewResolver(geocoder Geocoder, logger *slog.Logger) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		logger:   logger.With("component", "geocode-resolver"),
	}
}

// Resolve looks up each name of the collection in order and replaces the
// collection's addresses, coordinates and geodetails wholesale. Only context
// cancellation stops the run early; per-name failures are logged and the
// name left unresolved.
func (r *Resolver) Resolve(ctx context.Context, collection *places.Collection, opts ResolveOptions) error {
	if opts.MinDelay <= 0 {
		opts.MinDelay = DefaultMinDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	limiter := ratelimit.NewInterval(opts.MinDelay)

	addresses := make(map[string]string)
	coordinates := make(map[string]places.Coordinates)
	geodetails := make(map[string]json.RawMessage)

	for _, name := range collection.Names() {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		r.logger.Info("fetching geocoding information", "place", name, "provider", r.geocoder.Name())

		lookupCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		place, err := r.geocoder.Geocode(lookupCtx, name)
		cancel()
		if err != nil {
			r.logger.Warn("geocoding failed, skipping place", "place", name, "error", err)
			continue
		}

		addresses[name] = place.Address
		coordinates[name] = places.Coordinates{
			Latitude:  place.Latitude,
			Longitude: place.Longitude,
		}
		geodetails[name] = place.Raw
	}

	collection.SetGeocoding(addresses, coordinates, geodetails)
	return nil
}
