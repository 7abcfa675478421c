package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rentascout/rentascout-mvp/engine/ingest"
	"github.com/rentascout/rentascout-mvp/pkg/natsutil"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Tail ingestion events from the broker",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if cfg.NATS.URL == "" {
				return fmt.Errorf("events: nats.url is not configured")
			}
			return runEvents(cfg, slog.Default())
		},
	}
}

func runEvents(cfg Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := connectNATS(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer nc.Drain()

	resSub, err := natsutil.Subscribe(nc, ingest.ResultSubject, func(_ context.Context, r ingest.ListingResult) {
		log.Info("listing", "url", r.URL, "status", r.Status, "embedding", r.Embedding, "reason", r.Reason)
	})
	if err != nil {
		return fmt.Errorf("events: subscribe results: %w", err)
	}
	defer resSub.Unsubscribe()

	sumSub, err := natsutil.Subscribe(nc, ingest.SummarySubject, func(_ context.Context, s ingest.RunSummary) {
		log.Info("run finished",
			"pages", s.Pages,
			"listings", s.Listings,
			"ingested", s.Ingested,
			"skipped", s.Skipped,
			"reembedded", s.Reembedded,
			"failed", s.Failed,
		)
	})
	if err != nil {
		return fmt.Errorf("events: subscribe summary: %w", err)
	}
	defer sumSub.Unsubscribe()

	log.Info("tailing ingest events", "subjects", []string{ingest.ResultSubject, ingest.SummarySubject})
	<-ctx.Done()
	return nil
}
