// Package geocode resolves free-text place names to coordinates through an
// external geocoding provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNoResult is returned by a Geocoder when the provider had no match for
// the queried place name.
var ErrNoResult = errors.New("no geocoding result")

// Place is a successfully resolved place.
type Place struct {
	Address   string
	Latitude  float64
	Longitude float64

	// Raw is the provider's detail record for the match, kept opaque.
	Raw json.RawMessage
}

// Geocoder abstracts a geocoding provider (Nominatim, Google).
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, place string) (*Place, error)
}
