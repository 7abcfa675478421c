package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

// DefaultTimeout bounds every fetcher call. A timeout is treated as a fetch
// failure, never retried automatically.
const DefaultTimeout = 30 * time.Second

// Client talks to the headless-fetcher sidecar over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a fetcher client for the given sidecar base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type listingsResponse struct {
	Listings []Listing `json:"listings"`
}

// Listings returns the listing refs found on the given catalog page.
// An empty slice means the page carried no listings.
func (c *Client) Listings(ctx context.Context, page int) ([]Listing, error) {
	var out listingsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/listings?page=%d", c.baseURL, page), &out); err != nil {
		return nil, fmt.Errorf("scraper: listings page %d: %w", page, err)
	}
	return out.Listings, nil
}

// Vehicle fetches the raw detail-page field map for one listing URL.
func (c *Client) Vehicle(ctx context.Context, listingURL string) (RawVehicle, error) {
	var out RawVehicle
	u := fmt.Sprintf("%s/vehicle?url=%s", c.baseURL, url.QueryEscape(listingURL))
	if err := c.getJSON(ctx, u, &out); err != nil {
		return RawVehicle{}, fmt.Errorf("scraper: vehicle %s: %w", listingURL, err)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode: %v", domain.ErrFetchFailed, err)
	}
	return nil
}
