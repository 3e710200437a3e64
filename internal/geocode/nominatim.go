package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// API docs: https://nominatim.org/release-docs/develop/api/Search/
// Sample request: https://nominatim.openstreetmap.org/search?q=Montreal&format=json
const nominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// NominatimClient looks up place names against the public OpenStreetMap
// Nominatim instance. Nominatim's usage policy requires an identifying
// User-Agent and at most one request per second per client.
type NominatimClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

func NewNominatimClient(client *http.Client, userAgent string, logger *slog.Logger) *NominatimClient {
	return &NominatimClient{
		httpClient: client,
		baseURL:    nominatimBaseURL,
		userAgent:  userAgent,
		logger:     logger.With("component", "nominatim-client"),
	}
}

func (c *NominatimClient) Name() string {
	return "nominatim"
}

// Geocode resolves a free-text place name to its best Nominatim match.
func (c *NominatimClient) Geocode(ctx context.Context, place string) (*Place, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("q", place)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	c.logger.Debug("fetching Nominatim search result", "place", place, "url", u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}

	// Nominatim serves lat/lon as strings.
	var hit struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if err := json.Unmarshal(results[0], &hit); err != nil {
		return nil, fmt.Errorf("failed to decode result record: %w", err)
	}

	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", hit.Lat, err)
	}
	lon, err := strconv.ParseFloat(hit.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", hit.Lon, err)
	}

	return &Place{
		Address:   hit.DisplayName,
		Latitude:  lat,
		Longitude: lon,
		Raw:       results[0],
	}, nil
}
