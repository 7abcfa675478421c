package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/rentascout/rentascout-mvp/engine/catalog"
	"github.com/rentascout/rentascout-mvp/engine/embedcache"
	"github.com/rentascout/rentascout-mvp/engine/ingest"
	"github.com/rentascout/rentascout-mvp/engine/scraper"
	"github.com/rentascout/rentascout-mvp/engine/semantic"
	"github.com/rentascout/rentascout-mvp/pkg/metrics"
)

// Scrape metrics
var (
	mListingsTotal = func(status string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("rentascout_scrape_listings_total", "status", status), "Listings processed per status")
	}
	mRunDur   = met.Histogram("rentascout_scrape_run_duration_seconds", "Full scrape run time", nil)
	mRunPages = met.Gauge("rentascout_scrape_run_pages", "Pages walked in the last run")
)

func newScrapeCmd() *cobra.Command {
	var refetchKnown bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one ingestion round from the fetcher sidecar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("refetch-known") {
				cfg.Ingest.RefetchKnown = refetchKnown
			}
			return runScrape(cfg, slog.Default())
		},
	}

	cmd.Flags().BoolVar(&refetchKnown, "refetch-known", false, "re-fetch detail pages for URLs already in the catalog")
	return cmd
}

func runScrape(cfg Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met.CollectRuntime("rentascout_scrape", metrics.DefaultRuntimeInterval)
	met.ServeAsync(cfg.Server.MetricsPort)

	driver, err := connectNeo4j(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	vs, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		return err
	}
	defer vs.Close()
	if err := vs.EnsureCollection(ctx, cfg.Qdrant.Dims); err != nil {
		return err
	}
	log.Info("connected to Qdrant", "collection", cfg.Qdrant.Collection, "dims", cfg.Qdrant.Dims)

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	var events ingest.Events
	nc, err := connectNATS(ctx, cfg, log)
	if err != nil {
		return err
	}
	if nc != nil {
		defer nc.Drain()
		events = ingest.NewNATSEvents(nc, log)
	}

	coord := ingest.New(ingest.Deps{
		Source:   scraper.NewClient(cfg.Fetcher.URL),
		Catalog:  catalog.New(driver),
		Vectors:  vs,
		Detector: embedcache.New(embedder, log),
		Limiter:  rate.NewLimiter(rate.Every(cfg.Ingest.Delay), 1),
		Events:   &meteredEvents{next: events},
		Logger:   log,
	}, ingest.Options{RefetchKnown: cfg.Ingest.RefetchKnown})

	summary, err := coord.Run(ctx)
	if err != nil {
		return err
	}

	mRunDur.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	mRunPages.Set(int64(summary.Pages))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// meteredEvents counts listing outcomes before forwarding to the broker
// sink, which may be nil.
type meteredEvents struct {
	next ingest.Events
}

func (m *meteredEvents) ListingProcessed(ctx context.Context, r ingest.ListingResult) {
	mListingsTotal(string(r.Status)).Inc()
	if m.next != nil {
		m.next.ListingProcessed(ctx, r)
	}
}

func (m *meteredEvents) RunFinished(ctx context.Context, s ingest.RunSummary) {
	if m.next != nil {
		m.next.RunFinished(ctx, s)
	}
}
