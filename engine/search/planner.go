// Package search turns a free-text query plus structured constraints into
// a ranked, price-qualified result list. It plans a pre-filter + query
// embedding, delegates the similarity search, and post-ranks candidates
// against the row-level price constraints the pre-filter cannot express.
package search

import (
	"context"
	"fmt"

	"github.com/rentascout/rentascout-mvp/engine/domain"
	"github.com/rentascout/rentascout-mvp/engine/embedcache"
	"github.com/rentascout/rentascout-mvp/engine/semantic"
)

// Plan is the planner's output: what to push down and what to search with.
type Plan struct {
	PreFilter semantic.PreFilter
	Vector    []float32
}

// Planner translates a SearchFilter into a search plan.
type Planner struct {
	embedder embedcache.Embedder
}

// NewPlanner creates a Planner backed by the given embedder.
func NewPlanner(embedder embedcache.Embedder) *Planner {
	return &Planner{embedder: embedder}
}

// Plan builds the pre-filter conjunction from the constraints present in
// the filter and embeds the query text. An embed failure is fatal to the
// query: no search without a vector, never a silent empty result.
func (p *Planner) Plan(ctx context.Context, f domain.SearchFilter) (Plan, error) {
	vec, err := p.embedder.Embed(ctx, f.Query)
	if err != nil {
		return Plan{}, fmt.Errorf("search: embed query: %w: %v", domain.ErrEmbedFailed, err)
	}
	return Plan{PreFilter: preFilterOf(f), Vector: vec}, nil
}

// preFilterOf lifts the vehicle-level constraints into the pre-filter.
// Duration, mileage, and price bounds stay out: those are evaluated per
// price row by the ranker.
func preFilterOf(f domain.SearchFilter) semantic.PreFilter {
	return semantic.PreFilter{
		Type:           f.Type,
		Color:          f.Color,
		Drivetrain:     f.Drivetrain,
		Transmission:   f.Transmission,
		Fuel:           f.Fuel,
		Seats:          f.Seats,
		MinYear:        f.MinYear,
		ConsumptionMin: f.ConsumptionMin,
		ConsumptionMax: f.ConsumptionMax,
	}
}
