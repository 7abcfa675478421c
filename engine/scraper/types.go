// Package scraper defines the raw scraped shapes produced by the headless
// page fetcher and the HTTP client that talks to it. The fetcher itself
// (DOM walking, browser driving) is an external collaborator; this package
// only speaks JSON to it.
package scraper

// Listing is one catalog-page entry: the listing title and its detail URL.
type Listing struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RawPriceRow is one scraped price point before normalization. Fields are
// pointers because the fetcher reports null for values it could not read.
type RawPriceRow struct {
	Duration       *int     `json:"duration"`
	Mileage        *int     `json:"mileage"`
	Amount         *float64 `json:"amount"`
	PreviousAmount *float64 `json:"previous_amount,omitempty"`
}

// RawVehicle is the unnormalized detail-page field map. Technical attribute
// keys are discovered at scrape time and arrive as raw strings, units and
// all.
type RawVehicle struct {
	Name               string            `json:"name"`
	URL                string            `json:"url"`
	Fields             map[string]string `json:"fields,omitempty"`
	Info               []string          `json:"info,omitempty"`
	Description        string            `json:"description,omitempty"`
	EnvironmentalLabel string            `json:"environmental_label,omitempty"`
	PriceRows          []RawPriceRow     `json:"price_rows,omitempty"`
}
