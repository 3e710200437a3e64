package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"nasapower/internal/geocode"
	"nasapower/internal/power"
	"nasapower/internal/scheduler"
	"nasapower/internal/store"
)

type stubGeocoder struct {
	results map[string]*geocode.Place
}

func (s *stubGeocoder) Name() string { return "stub" }

func (s *stubGeocoder) Geocode(_ context.Context, place string) (*geocode.Place, error) {
	p, ok := s.results[place]
	if !ok {
		return nil, geocode.ErrNoResult
	}
	return p, nil
}

type stubCatalogSource struct {
	params map[string]string
}

func (s *stubCatalogSource) Discover(context.Context, string, time.Duration, string) (map[string]string, error) {
	return s.params, nil
}

func newTestApp(t *testing.T) (*fiber.App, *scheduler.CatalogRefresher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	geocoder := &stubGeocoder{results: map[string]*geocode.Place{
		"Paris": {Address: "Paris, France", Latitude: 48.8566, Longitude: 2.3522},
		"Tokyo": {Address: "Tokyo, Japan", Latitude: 35.6762, Longitude: 139.6503},
	}}

	source := &stubCatalogSource{params: map[string]string{"T2M": "Temperature at 2 Meters"}}
	refresher := scheduler.New(source, "https://example.test", "parameters", time.Second, 0, logger)

	app := fiber.New()
	RegisterRoutes(app, Services{
		Registry: store.NewRegistry(),
		Resolver: geocode.NewResolver(geocoder, logger),
		Fetcher:  power.NewFetcher(power.NewClient(&http.Client{}, logger), logger),
		Catalog:  refresher,
	})
	return app, refresher
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestCreateCollectionNormalisesSingleName(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/collections", `{"names":"Paris"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var body struct {
		ID    string   `json:"id"`
		Names []string `json:"names"`
	}
	decodeBody(t, resp, &body)

	if body.ID == "" {
		t.Error("expected a generated id")
	}
	if len(body.Names) != 1 || body.Names[0] != "Paris" {
		t.Errorf("names = %v, want [Paris]", body.Names)
	}
}

func TestCreateCollectionKeepsListOrder(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/collections", `{"names":["Montreal","Paris","Tokyo"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var body struct {
		Names []string `json:"names"`
	}
	decodeBody(t, resp, &body)

	want := []string{"Montreal", "Paris", "Tokyo"}
	for i := range want {
		if body.Names[i] != want[i] {
			t.Fatalf("names = %v, want %v", body.Names, want)
		}
	}
}

func TestCreateCollectionRejectsBadShapes(t *testing.T) {
	app, _ := newTestApp(t)

	for _, body := range []string{
		`{"names":42}`,
		`{"names":{"city":"Paris"}}`,
		`{"names":["Paris",7]}`,
		`{"names":[]}`,
		`{}`,
	} {
		resp := postJSON(t, app, "/api/v1/collections", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want %d", body, resp.StatusCode, http.StatusBadRequest)
		}
	}
}

func TestGetUnknownCollection(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/does-not-exist", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestClimatologyRequiresGeocoding(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/collections", `{"names":"Paris"}`)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)

	resp = postJSON(t, app, "/api/v1/collections/"+created.ID+"/climatology", `{"parameters":["T2M"]}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestClimatologyValidationErrors(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/collections", `{"names":"Paris"}`)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)

	resp = postJSON(t, app, "/api/v1/collections/"+created.ID+"/geocode", `{"min_delay_seconds":0.001}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("geocode status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// start without end fails validation before any upstream call.
	resp = postJSON(t, app, "/api/v1/collections/"+created.ID+"/climatology", `{"parameters":["T2M"],"start":2015}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestGeocodeResolvesCollection(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/collections", `{"names":["Paris","Atlantis"]}`)
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)

	resp = postJSON(t, app, "/api/v1/collections/"+created.ID+"/geocode", `{"min_delay_seconds":0.001}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var view struct {
		Coordinates map[string]struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
		Text string `json:"text"`
	}
	decodeBody(t, resp, &view)

	if _, ok := view.Coordinates["Paris"]; !ok {
		t.Error("expected coordinates for Paris")
	}
	if _, ok := view.Coordinates["Atlantis"]; ok {
		t.Error("Atlantis should not have resolved")
	}
	if !strings.Contains(view.Text, "Atlantis: unknown") {
		t.Errorf("text rendering missing placeholder: %q", view.Text)
	}
}

func TestParametersUnavailableBeforeFirstDiscovery(t *testing.T) {
	app, refresher := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parameters", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}

	// After one successful discovery the endpoint serves the snapshot.
	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/parameters", nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
