package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rentascout/rentascout-mvp/engine/domain"
	"github.com/rentascout/rentascout-mvp/engine/embedcache"
	"github.com/rentascout/rentascout-mvp/engine/semantic"
)

// VectorSearcher abstracts the external similarity search with pre-filter
// pushdown.
type VectorSearcher interface {
	Search(ctx context.Context, pre semantic.PreFilter, embedding []float32, k int) ([]semantic.Candidate, error)
}

// Options configures the retrieval pipeline.
type Options struct {
	// CandidateBudget is how many similarity candidates to pull before the
	// row-level ranking; kept well above the final limit so price
	// filtering has something to discard.
	CandidateBudget int
	SearchTimeout   time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		CandidateBudget: 100,
		SearchTimeout:   5 * time.Second,
	}
}

// Service is the retrieval orchestration: plan, search, rank.
type Service struct {
	planner *Planner
	search  VectorSearcher
	opts    Options
	logger  *slog.Logger
}

// New creates a search Service.
func New(embedder embedcache.Embedder, searcher VectorSearcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		planner: NewPlanner(embedder),
		search:  searcher,
		opts:    opts,
		logger:  logger,
	}
}

// Search runs one query end to end. An empty result list is a valid
// answer, not an error; planner and search failures abort the query.
func (s *Service) Search(ctx context.Context, f domain.SearchFilter) ([]domain.RankedResult, error) {
	if err := domain.ValidateFilter(f); err != nil {
		return nil, err
	}

	s.logger.Info("search start", "query_len", len(f.Query), "limit", f.EffectiveLimit())

	plan, err := s.planner.Plan(ctx, f)
	if err != nil {
		return nil, err
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	budget := s.opts.CandidateBudget
	if budget < f.EffectiveLimit() {
		budget = f.EffectiveLimit()
	}
	candidates, err := s.search.Search(searchCtx, plan.PreFilter, plan.Vector, budget)
	if err != nil {
		return nil, fmt.Errorf("search: vector search: %w", err)
	}
	s.logger.Info("search candidates", "count", len(candidates))

	return Rank(candidates, f), nil
}

// NoResultsMessage is the explicit "no results" indicator shown to callers.
const NoResultsMessage = "No vehicles matched your search."

// FormatResults renders the ranked list as the human-readable tool output.
func FormatResults(results []domain.RankedResult) string {
	if len(results) == 0 {
		return NoResultsMessage
	}
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("- %s | %s€/month (%d months / %d km/yr) | %s",
			r.Name, strconv.FormatFloat(r.Price, 'f', -1, 64), r.Duration, r.Mileage, r.URL)
	}
	return strings.Join(lines, "\n")
}
