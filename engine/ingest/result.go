package ingest

import "time"

// Status classifies the outcome of one processed listing.
type Status string

const (
	// StatusIngested means the listing was fetched, normalized, and stored.
	StatusIngested Status = "ingested"
	// StatusSkipped means the URL was already known and left untouched.
	StatusSkipped Status = "skipped"
	// StatusReembedded means a known document regained a missing embedding.
	StatusReembedded Status = "reembedded"
	// StatusFailed means fetch, embedding, or storage failed for this
	// listing. The run continues.
	StatusFailed Status = "failed"
)

// ListingResult is the explicit per-listing outcome collected by the
// coordinator instead of swallowed exceptions.
type ListingResult struct {
	URL       string `json:"url"`
	Name      string `json:"name,omitempty"`
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Embedding string `json:"embedding,omitempty"` // embedded | reused | failed
}

// RunSummary aggregates a full ingestion run.
type RunSummary struct {
	Pages      int       `json:"pages"`
	Listings   int       `json:"listings"`
	Ingested   int       `json:"ingested"`
	Skipped    int       `json:"skipped"`
	Reembedded int       `json:"reembedded"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (s *RunSummary) record(r ListingResult) {
	s.Listings++
	switch r.Status {
	case StatusIngested:
		s.Ingested++
	case StatusSkipped:
		s.Skipped++
	case StatusReembedded:
		s.Reembedded++
	case StatusFailed:
		s.Failed++
	}
}
