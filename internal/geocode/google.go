package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kelvins/geocoder"
)

// GoogleClient resolves place names through the Google Geocoding API. The
// underlying library keeps its API key in package state, so the key is
// installed once at construction and the client treated as process-wide.
type GoogleClient struct {
	logger *slog.Logger
}

func NewGoogleClient(apiKey string, logger *slog.Logger) *GoogleClient {
	geocoder.ApiKey = apiKey
	return &GoogleClient{
		logger: logger.With("component", "google-geocoder"),
	}
}

func (c *GoogleClient) Name() string {
	return "google"
}

// Geocode resolves a place name via forward geocoding, then reverse-geocodes
// the coordinates to recover a formatted address and the provider's detail
// record. The geocoder library does not accept a context; cancellation only
// takes effect between the two calls.
func (c *GoogleClient) Geocode(ctx context.Context, place string) (*Place, error) {
	location, err := geocoder.Geocoding(geocoder.Address{City: place})
	if err != nil {
		return nil, fmt.Errorf("google geocoding failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Place{
		Address:   place,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
	}

	addresses, err := geocoder.GeocodingReverse(location)
	if err != nil || len(addresses) == 0 {
		// The forward result is still usable without the detail record.
		c.logger.Debug("reverse lookup unavailable", "place", place, "error", err)
		return result, nil
	}

	result.Address = addresses[0].FormatAddress()
	if raw, err := json.Marshal(addresses[0]); err == nil {
		result.Raw = raw
	}
	return result, nil
}
