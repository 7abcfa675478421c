package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rentascout/rentascout-mvp/engine/domain"
	"github.com/rentascout/rentascout-mvp/engine/embedcache"
	"github.com/rentascout/rentascout-mvp/engine/scraper"
)

// fakeSource serves fixed listing pages and detail maps.
type fakeSource struct {
	pages      [][]scraper.Listing
	pageErr    map[int]error
	vehicles   map[string]scraper.RawVehicle
	vehicleErr map[string]error
	fetches    []string
}

func (s *fakeSource) Listings(_ context.Context, page int) ([]scraper.Listing, error) {
	if err := s.pageErr[page]; err != nil {
		return nil, err
	}
	if page > len(s.pages) {
		return nil, nil
	}
	return s.pages[page-1], nil
}

func (s *fakeSource) Vehicle(_ context.Context, url string) (scraper.RawVehicle, error) {
	s.fetches = append(s.fetches, url)
	if err := s.vehicleErr[url]; err != nil {
		return scraper.RawVehicle{}, err
	}
	return s.vehicles[url], nil
}

// fakeCatalog is an in-memory document store.
type fakeCatalog struct {
	docs      map[string]domain.VehicleDocument
	findErr   error
	upsertErr error
	upserts   int
	finds     int
}

func (c *fakeCatalog) Known(_ context.Context, url string) (bool, error) {
	if c.findErr != nil {
		return false, c.findErr
	}
	_, ok := c.docs[url]
	return ok, nil
}

func (c *fakeCatalog) FindByURL(_ context.Context, url string) (*domain.VehicleDocument, error) {
	c.finds++
	if c.findErr != nil {
		return nil, c.findErr
	}
	doc, ok := c.docs[url]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (c *fakeCatalog) Upsert(_ context.Context, doc domain.VehicleDocument) (bool, error) {
	if c.upsertErr != nil {
		return false, c.upsertErr
	}
	if c.docs == nil {
		c.docs = make(map[string]domain.VehicleDocument)
	}
	_, existed := c.docs[doc.URL]
	c.docs[doc.URL] = doc
	c.upserts++
	return !existed, nil
}

type fakeVectors struct {
	upserts []string
	err     error
}

func (v *fakeVectors) UpsertVehicle(_ context.Context, doc domain.VehicleDocument) error {
	if v.err != nil {
		return v.err
	}
	v.upserts = append(v.upserts, doc.URL)
	return nil
}

type fakeEvents struct {
	results   []ListingResult
	summaries []RunSummary
}

func (e *fakeEvents) ListingProcessed(_ context.Context, r ListingResult) {
	e.results = append(e.results, r)
}

func (e *fakeEvents) RunFinished(_ context.Context, s RunSummary) {
	e.summaries = append(e.summaries, s)
}

type fixedEmbedder struct {
	calls int
	err   error
}

func (e *fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func intp(n int) *int       { return &n }
func fp(f float64) *float64 { return &f }

func listing(n string) scraper.Listing {
	return scraper.Listing{Name: n, URL: "https://example.com/vehicles/" + n}
}

func rawFor(n string) scraper.RawVehicle {
	return scraper.RawVehicle{
		Name:   n,
		URL:    "https://example.com/vehicles/" + n,
		Fields: map[string]string{"seats": "5", "type": "suv"},
		PriceRows: []scraper.RawPriceRow{
			{Duration: intp(36), Mileage: intp(10000), Amount: fp(300)},
		},
	}
}

func newTestCoordinator(src *fakeSource, cat *fakeCatalog, vec *fakeVectors, emb embedcache.Embedder, ev Events, opts Options) *Coordinator {
	c := New(Deps{
		Source:   src,
		Catalog:  cat,
		Vectors:  vec,
		Detector: embedcache.New(emb, nil),
		Events:   ev,
	}, opts)
	c.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestRun_IngestsUntilEmptyPage(t *testing.T) {
	src := &fakeSource{
		pages: [][]scraper.Listing{
			{listing("a"), listing("b")},
			{listing("c")},
		},
		vehicles: map[string]scraper.RawVehicle{
			listing("a").URL: rawFor("a"),
			listing("b").URL: rawFor("b"),
			listing("c").URL: rawFor("c"),
		},
	}
	cat := &fakeCatalog{}
	vec := &fakeVectors{}
	ev := &fakeEvents{}

	summary, err := newTestCoordinator(src, cat, vec, &fixedEmbedder{}, ev, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Pages != 2 || summary.Listings != 3 || summary.Ingested != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if len(cat.docs) != 3 || len(vec.upserts) != 3 {
		t.Errorf("stored %d docs, %d vectors", len(cat.docs), len(vec.upserts))
	}
	if len(ev.results) != 3 || len(ev.summaries) != 1 {
		t.Errorf("events: %d results, %d summaries", len(ev.results), len(ev.summaries))
	}
}

func TestRun_StopsOnPaginationWraparound(t *testing.T) {
	// Page 3 repeats a subset of page 1: the site wrapped around.
	src := &fakeSource{
		pages: [][]scraper.Listing{
			{listing("a"), listing("b")},
			{listing("c")},
			{listing("a")},
			{listing("d")}, // must never be reached
		},
		vehicles: map[string]scraper.RawVehicle{
			listing("a").URL: rawFor("a"),
			listing("b").URL: rawFor("b"),
			listing("c").URL: rawFor("c"),
		},
	}
	cat := &fakeCatalog{}

	summary, err := newTestCoordinator(src, cat, &fakeVectors{}, &fixedEmbedder{}, nil, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Listings != 3 {
		t.Errorf("listings = %d, want 3 (wraparound page not processed)", summary.Listings)
	}
	if _, ok := cat.docs[listing("d").URL]; ok {
		t.Error("page after wraparound was processed")
	}
	// Each page-1 listing fetched exactly once.
	count := 0
	for _, u := range src.fetches {
		if u == listing("a").URL {
			count++
		}
	}
	if count != 1 {
		t.Errorf("listing a fetched %d times, want 1", count)
	}
}

func TestRun_PartialOverlapIsNotWraparound(t *testing.T) {
	src := &fakeSource{
		pages: [][]scraper.Listing{
			{listing("a"), listing("b")},
			{listing("a"), listing("c")}, // overlaps but carries a new URL
		},
		vehicles: map[string]scraper.RawVehicle{
			listing("a").URL: rawFor("a"),
			listing("b").URL: rawFor("b"),
			listing("c").URL: rawFor("c"),
		},
	}
	cat := &fakeCatalog{}

	summary, err := newTestCoordinator(src, cat, &fakeVectors{}, &fixedEmbedder{}, nil, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, ok := cat.docs[listing("c").URL]; !ok {
		t.Error("partially overlapping page was skipped")
	}
	if summary.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (re-listed a)", summary.Skipped)
	}
}

func TestRun_PageFetchErrorEndsRunCleanly(t *testing.T) {
	src := &fakeSource{
		pages:   [][]scraper.Listing{{listing("a")}},
		pageErr: map[int]error{2: errors.New("HTTP 500")},
		vehicles: map[string]scraper.RawVehicle{
			listing("a").URL: rawFor("a"),
		},
	}

	summary, err := newTestCoordinator(src, &fakeCatalog{}, &fakeVectors{}, &fixedEmbedder{}, nil, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("page error must end the run, not fail it: %v", err)
	}
	if summary.Ingested != 1 {
		t.Errorf("ingested = %d, want 1", summary.Ingested)
	}
}

func TestRun_KnownListingSkippedWithoutFetch(t *testing.T) {
	known := rawFor("a")
	stored := domain.VehicleDocument{
		URL:       known.URL,
		Name:      "a",
		Embedding: []float32{1, 2},
	}
	src := &fakeSource{
		pages:    [][]scraper.Listing{{listing("a")}},
		vehicles: map[string]scraper.RawVehicle{known.URL: known},
	}
	cat := &fakeCatalog{docs: map[string]domain.VehicleDocument{stored.URL: stored}}
	emb := &fixedEmbedder{}

	summary, err := newTestCoordinator(src, cat, &fakeVectors{}, emb, nil, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Skipped != 1 || summary.Ingested != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(src.fetches) != 0 {
		t.Error("known listing detail page was fetched")
	}
	if emb.calls != 0 {
		t.Error("known listing was re-embedded")
	}
}

func TestRun_UnknownListingNeedsNoDocumentRead(t *testing.T) {
	src := &fakeSource{
		pages:    [][]scraper.Listing{{listing("a")}},
		vehicles: map[string]scraper.RawVehicle{listing("a").URL: rawFor("a")},
	}
	cat := &fakeCatalog{}

	summary, err := newTestCoordinator(src, cat, &fakeVectors{}, &fixedEmbedder{}, nil, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Ingested != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if cat.finds != 0 {
		t.Errorf("document reads = %d, want 0; the existence probe decides new listings", cat.finds)
	}
}

func TestRun_KnownWithoutEmbeddingIsHealed(t *testing.T) {
	stored := domain.VehicleDocument{
		URL:  listing("a").URL,
		Name: "a",
		PriceRows: []domain.PriceRow{
			{Duration: 36, Mileage: 10000, Amount: 300},
		},
	}
	src := &fakeSource{pages: [][]scraper.Listing{{listing("a")}}}
	cat := &fakeCatalog{docs: map[string]domain.VehicleDocument{stored.URL: stored}}
	vec := &fakeVectors{}
	emb := &fixedEmbedder{}

	summary, err := newTestCoordinator(src, cat, vec, emb, nil, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Reembedded != 1 {
		t.Errorf("summary = %+v, want one reembedded", summary)
	}
	if len(src.fetches) != 0 {
		t.Error("healing must reuse stored content, not refetch")
	}
	if emb.calls != 1 {
		t.Errorf("embed calls = %d, want 1", emb.calls)
	}
	if healed := cat.docs[stored.URL]; !healed.HasEmbedding() {
		t.Error("healed document not persisted with embedding")
	}
	if len(vec.upserts) != 1 {
		t.Error("healed embedding not written to the vector store")
	}
}

func TestRun_RefetchKnownRunsDetection(t *testing.T) {
	known := rawFor("a")
	stored := domain.VehicleDocument{URL: known.URL, Name: "a", Embedding: []float32{1}}
	src := &fakeSource{
		pages:    [][]scraper.Listing{{listing("a")}},
		vehicles: map[string]scraper.RawVehicle{known.URL: known},
	}
	cat := &fakeCatalog{docs: map[string]domain.VehicleDocument{stored.URL: stored}}

	summary, err := newTestCoordinator(src, cat, &fakeVectors{}, &fixedEmbedder{}, nil, Options{RefetchKnown: true}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Ingested != 1 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, expected re-ingest", summary)
	}
	if len(src.fetches) != 1 {
		t.Error("refetch-known did not fetch the detail page")
	}
}

func TestRun_ListingFailureDoesNotAbortRun(t *testing.T) {
	src := &fakeSource{
		pages: [][]scraper.Listing{{listing("bad"), listing("good")}},
		vehicles: map[string]scraper.RawVehicle{
			listing("good").URL: rawFor("good"),
		},
		vehicleErr: map[string]error{
			listing("bad").URL: errors.New("fetch timeout"),
		},
	}
	cat := &fakeCatalog{}
	ev := &fakeEvents{}

	summary, err := newTestCoordinator(src, cat, &fakeVectors{}, &fixedEmbedder{}, ev, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Failed != 1 || summary.Ingested != 1 {
		t.Errorf("summary = %+v", summary)
	}
	var failed *ListingResult
	for i := range ev.results {
		if ev.results[i].Status == StatusFailed {
			failed = &ev.results[i]
		}
	}
	if failed == nil {
		t.Fatal("no failed result published")
	}
	if failed.URL != listing("bad").URL || !strings.Contains(failed.Reason, "fetch timeout") {
		t.Errorf("failed result = %+v", failed)
	}
}

func TestRun_EmbedFailureStoresDocumentWithoutVector(t *testing.T) {
	src := &fakeSource{
		pages:    [][]scraper.Listing{{listing("a")}},
		vehicles: map[string]scraper.RawVehicle{listing("a").URL: rawFor("a")},
	}
	cat := &fakeCatalog{}
	vec := &fakeVectors{}

	summary, err := newTestCoordinator(src, cat, vec, &fixedEmbedder{err: errors.New("backend down")}, nil, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Ingested != 1 {
		t.Errorf("summary = %+v, embed failure must not fail the listing", summary)
	}
	doc, ok := cat.docs[listing("a").URL]
	if !ok {
		t.Fatal("document not stored")
	}
	if doc.HasEmbedding() {
		t.Error("document stored with an embedding despite embed failure")
	}
	if len(vec.upserts) != 0 {
		t.Error("vector upsert attempted without an embedding")
	}
}

func TestRun_CatalogLookupFailureMarksListingFailed(t *testing.T) {
	src := &fakeSource{pages: [][]scraper.Listing{{listing("a")}}}
	cat := &fakeCatalog{findErr: errors.New("db down")}

	summary, err := newTestCoordinator(src, cat, &fakeVectors{}, &fixedEmbedder{}, nil, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestIsSubset(t *testing.T) {
	set := func(urls ...string) map[string]struct{} {
		m := make(map[string]struct{}, len(urls))
		for _, u := range urls {
			m[u] = struct{}{}
		}
		return m
	}
	if !isSubset(set("a"), set("a", "b")) {
		t.Error("strict subset not detected")
	}
	if !isSubset(set("a", "b"), set("a", "b")) {
		t.Error("equal sets are a subset")
	}
	if isSubset(set("a", "c"), set("a", "b")) {
		t.Error("partial overlap reported as subset")
	}
	if isSubset(set(), set("a")) {
		t.Error("empty set must not stop the run")
	}
}
