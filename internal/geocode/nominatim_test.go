package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "nasapower-test" {
			t.Errorf("User-Agent = %q, want %q", got, "nasapower-test")
		}
		if got := r.URL.Query().Get("q"); got != "Montreal" {
			t.Errorf("q = %q, want %q", got, "Montreal")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"display_name":"Montréal, Québec, Canada","lat":"45.5031824","lon":"-73.5698065","place_id":12345}]`))
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.Client(), "nasapower-test", discardLogger())
	client.baseURL = srv.URL

	place, err := client.Geocode(context.Background(), "Montreal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Address != "Montréal, Québec, Canada" {
		t.Errorf("Address = %q", place.Address)
	}
	if place.Latitude != 45.5031824 || place.Longitude != -73.5698065 {
		t.Errorf("coordinates = %f, %f", place.Latitude, place.Longitude)
	}
	if len(place.Raw) == 0 {
		t.Error("expected raw detail record to be kept")
	}
}

func TestNominatimGeocodeNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.Client(), "nasapower-test", discardLogger())
	client.baseURL = srv.URL

	_, err := client.Geocode(context.Background(), "Atlantis")
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("error = %v, want ErrNoResult", err)
	}
}

func TestNominatimGeocodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.Client(), "nasapower-test", discardLogger())
	client.baseURL = srv.URL

	if _, err := client.Geocode(context.Background(), "Paris"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
