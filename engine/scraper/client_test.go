package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

func TestListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page = %s", r.URL.Query().Get("page"))
		}
		json.NewEncoder(w).Encode(listingsResponse{Listings: []Listing{
			{Name: "Seat Ibiza", URL: "https://example.com/v/ibiza"},
		}})
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Listings(context.Background(), 2)
	if err != nil {
		t.Fatalf("listings failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Seat Ibiza" {
		t.Errorf("listings = %+v", got)
	}
}

func TestListings_EmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(listingsResponse{})
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Listings(context.Background(), 99)
	if err != nil {
		t.Fatalf("listings failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty page, got %+v", got)
	}
}

func TestVehicle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != "https://example.com/v/ibiza" {
			t.Errorf("url param = %q", got)
		}
		json.NewEncoder(w).Encode(RawVehicle{
			Name:   "Seat Ibiza",
			URL:    "https://example.com/v/ibiza",
			Fields: map[string]string{"seats": "5 plazas"},
		})
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Vehicle(context.Background(), "https://example.com/v/ibiza")
	if err != nil {
		t.Fatalf("vehicle failed: %v", err)
	}
	if got.Fields["seats"] != "5 plazas" {
		t.Errorf("vehicle = %+v", got)
	}
}

func TestClient_NonOKStatusIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Listings(context.Background(), 1)
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("error = %v, want ErrFetchFailed", err)
	}
}

func TestClient_MalformedBodyIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Vehicle(context.Background(), "https://example.com/v/x")
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("error = %v, want ErrFetchFailed", err)
	}
}
