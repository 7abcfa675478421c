// Package ingest drives a scraping run: paginate the catalog, fetch and
// normalize new listings, resolve embeddings through the change detector,
// and commit documents to the catalog and vector stores. One page at a
// time, one listing at a time; per-listing failures never abort the run.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/rentascout/rentascout-mvp/engine/domain"
	"github.com/rentascout/rentascout-mvp/engine/embedcache"
	"github.com/rentascout/rentascout-mvp/engine/normalize"
	"github.com/rentascout/rentascout-mvp/engine/scraper"
	"github.com/rentascout/rentascout-mvp/pkg/fn"
)

// Source produces listing pages and raw detail-page field maps. The real
// implementation is the headless-fetcher HTTP client.
type Source interface {
	Listings(ctx context.Context, page int) ([]scraper.Listing, error)
	Vehicle(ctx context.Context, url string) (scraper.RawVehicle, error)
}

// Catalog is the document store keyed uniquely by listing URL. Known is
// the cheap existence probe; FindByURL returns (nil, nil) for an unknown
// URL; Upsert is atomic per URL.
type Catalog interface {
	Known(ctx context.Context, url string) (bool, error)
	FindByURL(ctx context.Context, url string) (*domain.VehicleDocument, error)
	Upsert(ctx context.Context, doc domain.VehicleDocument) (inserted bool, err error)
}

// VectorWriter persists a document's embedding point for similarity
// search. Only called for documents that carry an embedding.
type VectorWriter interface {
	UpsertVehicle(ctx context.Context, doc domain.VehicleDocument) error
}

// Events receives per-listing results and the final run summary. A nil
// sink disables publishing.
type Events interface {
	ListingProcessed(ctx context.Context, r ListingResult)
	RunFinished(ctx context.Context, s RunSummary)
}

// Deps holds the coordinator's injected collaborators.
type Deps struct {
	Source   Source
	Catalog  Catalog
	Vectors  VectorWriter
	Detector *embedcache.Detector
	// Limiter paces per-listing operations. Politeness, not correctness.
	Limiter *rate.Limiter
	Events  Events
	Logger  *slog.Logger
}

// Options tunes a run.
type Options struct {
	// RefetchKnown re-fetches detail pages for URLs already in the
	// catalog, running them through change detection instead of skipping.
	RefetchKnown bool
}

// Coordinator runs scraping rounds against the catalog.
type Coordinator struct {
	deps Deps
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// New creates a Coordinator.
func New(deps Deps, opts Options) *Coordinator {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{deps: deps, opts: opts, log: log, now: time.Now}
}

// Run executes one full ingestion run and returns its summary. The run
// terminates when a page yields no listings or when a later page's URL set
// is a subset of page 1's (pagination wraparound).
func (c *Coordinator) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{StartedAt: c.now()}
	firstPage := make(map[string]struct{})

	for page := 1; ; page++ {
		listings, err := c.deps.Source.Listings(ctx, page)
		if err != nil {
			// The site answers later pages with an error once the catalog
			// ends; treat it as end-of-catalog like the empty page case.
			c.log.Warn("ingest: listing page fetch failed, stopping", "page", page, "error", err)
			break
		}
		if len(listings) == 0 {
			c.log.Info("ingest: no listings, end of catalog", "page", page)
			break
		}

		urls := make(map[string]struct{}, len(listings))
		for _, l := range listings {
			if l.URL != "" {
				urls[l.URL] = struct{}{}
			}
		}
		if page == 1 {
			firstPage = urls
		} else if isSubset(urls, firstPage) {
			c.log.Info("ingest: pagination wraparound, stopping", "page", page)
			summary.Pages++
			break
		}

		for _, listing := range listings {
			if c.deps.Limiter != nil {
				if err := c.deps.Limiter.Wait(ctx); err != nil {
					summary.FinishedAt = c.now()
					return summary, fmt.Errorf("ingest: run cancelled: %w", err)
				}
			}
			res := c.processListing(ctx, listing)
			summary.record(res)
			if c.deps.Events != nil {
				c.deps.Events.ListingProcessed(ctx, res)
			}
		}
		summary.Pages++
	}

	summary.FinishedAt = c.now()
	c.log.Info("ingest: run finished",
		"pages", summary.Pages,
		"ingested", summary.Ingested,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	if c.deps.Events != nil {
		c.deps.Events.RunFinished(ctx, summary)
	}
	return summary, nil
}

// processListing handles one listing. Every failure is captured in the
// returned result; nothing escapes to abort the run.
func (c *Coordinator) processListing(ctx context.Context, listing scraper.Listing) ListingResult {
	res := ListingResult{URL: listing.URL, Name: listing.Name}
	if listing.URL == "" {
		res.Status = StatusFailed
		res.Reason = "listing without url"
		return res
	}

	known, err := c.deps.Catalog.Known(ctx, listing.URL)
	if err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("lookup: %v", err)
		c.log.Warn("ingest: catalog lookup failed", "url", listing.URL, "error", err)
		return res
	}
	if !known {
		return c.ingestListing(ctx, listing, nil)
	}

	stored, err := c.deps.Catalog.FindByURL(ctx, listing.URL)
	if err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("lookup: %v", err)
		c.log.Warn("ingest: catalog lookup failed", "url", listing.URL, "error", err)
		return res
	}
	if stored == nil {
		// Probe and read disagree; treat the listing as new.
		return c.ingestListing(ctx, listing, nil)
	}

	if !c.opts.RefetchKnown {
		if stored.HasEmbedding() {
			res.Status = StatusSkipped
			res.Reason = "already known"
			return res
		}
		// Known document with no embedding: a previous embed call failed.
		// Heal it from the stored content without re-fetching the page.
		return c.reembed(ctx, *stored)
	}

	return c.ingestListing(ctx, listing, stored)
}

// ingestListing is the fetch → normalize → detect → store pipeline for one
// listing, composed from traced stages.
func (c *Coordinator) ingestListing(ctx context.Context, listing scraper.Listing, stored *domain.VehicleDocument) ListingResult {
	res := ListingResult{URL: listing.URL, Name: listing.Name}

	fetch := fn.TracedStage("ingest.fetch", func(ctx context.Context, url string) fn.Result[scraper.RawVehicle] {
		return fn.FromPair(c.deps.Source.Vehicle(ctx, url))
	})
	norm := fn.TracedStage("ingest.normalize", fn.MapStage(func(raw scraper.RawVehicle) domain.VehicleDocument {
		return normalize.Vehicle(raw, c.now())
	}))
	detect := fn.TracedStage("ingest.detect", func(ctx context.Context, doc domain.VehicleDocument) fn.Result[domain.VehicleDocument] {
		out, outcome, err := c.deps.Detector.Apply(ctx, doc, stored)
		res.Embedding = outcome.String()
		if err != nil {
			// Store the document anyway; the no-embedding branch retries
			// on a future run.
			c.log.Warn("ingest: embedding failed", "url", doc.URL, "error", err)
		}
		return fn.Ok(out)
	})
	store := fn.TracedStage("ingest.store", func(ctx context.Context, doc domain.VehicleDocument) fn.Result[domain.VehicleDocument] {
		if doc.URL == "" {
			return fn.Errf[domain.VehicleDocument]("document without url")
		}
		if _, err := c.deps.Catalog.Upsert(ctx, doc); err != nil {
			return fn.Err[domain.VehicleDocument](fmt.Errorf("%w: upsert: %v", domain.ErrStorageFailed, err))
		}
		if doc.HasEmbedding() {
			if err := c.deps.Vectors.UpsertVehicle(ctx, doc); err != nil {
				return fn.Err[domain.VehicleDocument](fmt.Errorf("%w: vector upsert: %v", domain.ErrStorageFailed, err))
			}
		}
		return fn.Ok(doc)
	})

	pipeline := fn.Then(fetch, fn.Then(norm, fn.Then(detect, store)))

	if result := pipeline(ctx, listing.URL); result.IsErr() {
		_, err := result.Unwrap()
		res.Status = StatusFailed
		res.Reason = err.Error()
		c.log.Warn("ingest: listing failed", "url", listing.URL, "error", err)
		return res
	}
	res.Status = StatusIngested
	return res
}

// reembed self-heals a stored document that lost its embedding.
func (c *Coordinator) reembed(ctx context.Context, stored domain.VehicleDocument) ListingResult {
	res := ListingResult{URL: stored.URL, Name: stored.Name}

	doc, outcome, err := c.deps.Detector.Apply(ctx, stored, &stored)
	res.Embedding = outcome.String()
	if err != nil {
		res.Status = StatusFailed
		res.Reason = err.Error()
		c.log.Warn("ingest: re-embed failed", "url", stored.URL, "error", err)
		return res
	}
	if _, err := c.deps.Catalog.Upsert(ctx, doc); err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("upsert: %v", err)
		return res
	}
	if err := c.deps.Vectors.UpsertVehicle(ctx, doc); err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("vector upsert: %v", err)
		return res
	}
	res.Status = StatusReembedded
	return res
}

// isSubset reports whether every element of a is in b. Both non-empty by
// the caller's checks.
func isSubset(a, b map[string]struct{}) bool {
	if len(a) == 0 {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
