package ingest

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/rentascout/rentascout-mvp/pkg/natsutil"
)

const (
	// ResultSubject carries one message per processed listing.
	ResultSubject = "catalog.ingest.result"
	// SummarySubject carries the run summary once per run.
	SummarySubject = "catalog.ingest.summary"
)

// NATSEvents publishes run events to NATS. Publish failures are logged and
// dropped; eventing never interferes with ingestion.
type NATSEvents struct {
	nc  *nats.Conn
	log *slog.Logger
}

// NewNATSEvents creates an event sink on an existing NATS connection.
func NewNATSEvents(nc *nats.Conn, logger *slog.Logger) *NATSEvents {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSEvents{nc: nc, log: logger}
}

// ListingProcessed implements Events.
func (e *NATSEvents) ListingProcessed(ctx context.Context, r ListingResult) {
	if err := natsutil.Publish(ctx, e.nc, ResultSubject, r); err != nil {
		e.log.Warn("ingest: event publish failed", "subject", ResultSubject, "error", err)
	}
}

// RunFinished implements Events.
func (e *NATSEvents) RunFinished(ctx context.Context, s RunSummary) {
	if err := natsutil.Publish(ctx, e.nc, SummarySubject, s); err != nil {
		e.log.Warn("ingest: event publish failed", "subject", SummarySubject, "error", err)
	}
}
