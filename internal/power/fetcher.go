package power

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"nasapower/internal/places"
	"nasapower/internal/ratelimit"
)

const (
	// DefaultCommunity is the POWER user community the API expects
	// ("SB" = sustainable buildings).
	DefaultCommunity = "SB"

	// FormatJSON requests a JSON response body, which is parsed before it
	// is stored on the collection. Any other format is stored raw.
	FormatJSON = "JSON"

	// MaxParameters is the upstream limit on parameter codes per query.
	MaxParameters = 20

	// requestPause is the fixed spacing between consecutive climatology
	// requests, honouring the upstream rate limit.
	requestPause = 1 * time.Second
)

var (
	// ErrInvalidRequest flags a request that fails validation before any
	// network call is attempted.
	ErrInvalidRequest = errors.New("invalid climatology request")

	// ErrNoCoordinates is returned when a fetch is attempted before
	// geocoding resolution has produced any coordinates.
	ErrNoCoordinates = errors.New("collection has no coordinates; run geocoding resolution first")
)

var validate = validator.New()

// Request describes one climatology fetch across a collection.
type Request struct {
	// Parameters are POWER parameter codes, at most MaxParameters.
	Parameters []string `validate:"required,min=1,max=20,dive,required"`

	// Community and Format default to DefaultCommunity and FormatJSON.
	Community string `validate:"required"`
	Format    string `validate:"required"`

	// Start and End bound the climatology year range. Both must be given
	// or both omitted, and Start must not exceed End.
	Start *int
	End   *int
}

func (r *Request) applyDefaults() {
	if r.Community == "" {
		r.Community = DefaultCommunity
	}
	if r.Format == "" {
		r.Format = FormatJSON
	}
}

func (r *Request) validateRange() error {
	if (r.Start == nil) != (r.End == nil) {
		return fmt.Errorf("%w: start and end must both be provided or both omitted", ErrInvalidRequest)
	}
	if r.Start != nil && *r.Start > *r.End {
		return fmt.Errorf("%w: start %d is after end %d", ErrInvalidRequest, *r.Start, *r.End)
	}
	return nil
}

// Fetcher runs one climatology request per resolved place of a collection,
// strictly sequentially, with a fixed pause between requests.
type Fetcher struct {
	client *Client
	pause  time.Duration
	logger *slog.Logger
}

func NewFetcher(client *Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		pause:  requestPause,
		logger: logger.With("component", "climatology-fetcher"),
	}
}

// Fetch validates the request, then issues one GET per name the collection
// has coordinates for and replaces the collection's climatologies wholesale.
// Names without coordinates are skipped with a notice; a failed request or
// an unparseable JSON body leaves no entry for that name. Validation and
// precondition violations fail before any network traffic.
func (f *Fetcher) Fetch(ctx context.Context, collection *places.Collection, req Request) error {
	req.applyDefaults()

	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := req.validateRange(); err != nil {
		return err
	}
	if !collection.HasCoordinates() {
		return ErrNoCoordinates
	}

	limiter := ratelimit.NewInterval(f.pause)
	coordinates := collection.Coordinates()
	results := make(map[string]places.Climatology)

	for _, name := range collection.Names() {
		coords, ok := coordinates[name]
		if !ok {
			f.logger.Info("skipping place without coordinates", "place", name)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		f.logger.Info("fetching climatology", "place", name, "parameters", len(req.Parameters))

		body, err := f.client.Get(ctx, buildQuery(req, coords))
		if err != nil {
			f.logger.Warn("climatology request failed, skipping place", "place", name, "error", err)
			continue
		}

		if strings.EqualFold(req.Format, FormatJSON) {
			var data map[string]any
			if err := json.Unmarshal(body, &data); err != nil {
				f.logger.Warn("climatology response is not valid JSON, skipping place", "place", name, "error", err)
				continue
			}
			results[name] = places.Climatology{Format: req.Format, Data: data}
		} else {
			results[name] = places.Climatology{Format: req.Format, Raw: body}
		}
	}

	collection.SetClimatologies(results)
	return nil
}

func buildQuery(req Request, coords places.Coordinates) url.Values {
	values := url.Values{}
	values.Set("parameters", strings.Join(req.Parameters, ","))
	values.Set("community", req.Community)
	values.Set("format", req.Format)
	values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
	if req.Start != nil && req.End != nil {
		values.Set("start", strconv.Itoa(*req.Start))
		values.Set("end", strconv.Itoa(*req.End))
	}
	return values
}
