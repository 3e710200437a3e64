// Package power queries the NASA POWER temporal climatology API.
package power

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// API docs: https://power.larc.nasa.gov/docs/services/api/temporal/climatology/
const climatologyBaseURL = "https://power.larc.nasa.gov/api/temporal/climatology/point"

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// Client issues single GET requests against the climatology endpoint. A
// circuit breaker shields the upstream when it starts failing; requests are
// never retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func NewClient(client *http.Client, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nasa-power",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		httpClient: client,
		baseURL:    climatologyBaseURL,
		circuit:    cb,
		logger:     logger.With("component", "power-client"),
	}
}

// Get performs one climatology request and returns the raw response body.
func (c *Client) Get(ctx context.Context, query url.Values) ([]byte, error) {
	if c.httpClient == nil {
		return nil, errNoHTTPClient
	}

	u := fmt.Sprintf("%s?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetching climatology data", "url", u)

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}
