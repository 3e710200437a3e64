package places

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when a collection is constructed or renamed
// with an unusable set of place names.
var ErrInvalidInput = errors.New("invalid place names")

// Coordinates is a resolved latitude/longitude pair for a place.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Climatology holds one place's response from the climatology endpoint.
// Data is populated when the response was requested and parsed as JSON;
// for any other format the body is kept untouched in Raw.
type Climatology struct {
	Format string         `json:"format"`
	Data   map[string]any `json:"data,omitempty"`
	Raw    []byte         `json:"raw,omitempty"`
}

// Collection holds an ordered batch of place names together with the
// derived state produced by geocoding resolution and climatology fetching.
// Derived state is keyed by place name and only ever replaced wholesale,
// never merged. A Collection is owned by a single logical workflow and is
// not safe for concurrent mutation.
type Collection struct {
	names         []string
	addresses     map[string]string
	coordinates   map[string]Coordinates
	geodetails    map[string]json.RawMessage
	climatologies map[string]Climatology
}

// New creates a Collection from one or more place names. Insertion order is
// preserved and drives output ordering; duplicates are allowed. A blank name
// or an empty set fails with ErrInvalidInput.
func New(names ...string) (*Collection, error) {
	normalized, err := validateNames(names)
	if err != nil {
		return nil, err
	}
	return &Collection{names: normalized}, nil
}

// SetNames replaces the name list, re-running the same validation as New.
// Previously computed derived state is intentionally left in place; callers
// that change the names are expected to re-run resolution themselves.
func (c *Collection) SetNames(names []string) error {
	normalized, err := validateNames(names)
	if err != nil {
		return err
	}
	c.names = normalized
	return nil
}

func validateNames(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one name is required", ErrInvalidInput)
	}
	out := make([]string, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: name at index %d is blank", ErrInvalidInput, i)
		}
		out[i] = name
	}
	return out, nil
}

// Names returns the place names in insertion order.
func (c *Collection) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Addresses returns the resolved address per successfully geocoded name.
func (c *Collection) Addresses() map[string]string {
	out := make(map[string]string, len(c.addresses))
	for k, v := range c.addresses {
		out[k] = v
	}
	return out
}

// Coordinates returns the resolved coordinates per successfully geocoded name.
func (c *Collection) Coordinates() map[string]Coordinates {
	out := make(map[string]Coordinates, len(c.coordinates))
	for k, v := range c.coordinates {
		out[k] = v
	}
	return out
}

// Geodetails returns the raw geocoding provider record per resolved name.
func (c *Collection) Geodetails() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(c.geodetails))
	for k, v := range c.geodetails {
		out[k] = v
	}
	return out
}

// Climatologies returns the climatology response per fetched name.
func (c *Collection) Climatologies() map[string]Climatology {
	out := make(map[string]Climatology, len(c.climatologies))
	for k, v := range c.climatologies {
		out[k] = v
	}
	return out
}

// HasCoordinates reports whether geocoding resolution has produced at least
// one coordinate pair. Climatology fetching requires this.
func (c *Collection) HasCoordinates() bool {
	return len(c.coordinates) > 0
}

// SetGeocoding replaces all geocoding-derived state at once. Names missing
// from the maps simply remain unresolved.
func (c *Collection) SetGeocoding(addresses map[string]string, coordinates map[string]Coordinates, geodetails map[string]json.RawMessage) {
	c.addresses = addresses
	c.coordinates = coordinates
	c.geodetails = geodetails
}

// SetClimatologies replaces the climatology results wholesale.
func (c *Collection) SetClimatologies(climatologies map[string]Climatology) {
	c.climatologies = climatologies
}

// String renders one line per name with its coordinates when resolved.
func (c *Collection) String() string {
	var b strings.Builder
	for i, name := range c.names {
		if i > 0 {
			b.WriteByte('\n')
		}
		if coords, ok := c.coordinates[name]; ok {
			fmt.Fprintf(&b, "%s: %f, %f", name, coords.Latitude, coords.Longitude)
		} else {
			fmt.Fprintf(&b, "%s: unknown", name)
		}
	}
	return b.String()
}
