package search

import (
	"sort"

	"github.com/rentascout/rentascout-mvp/engine/domain"
	"github.com/rentascout/rentascout-mvp/engine/semantic"
	"github.com/rentascout/rentascout-mvp/pkg/fn"
)

// Rank post-processes vector-search candidates: per candidate, narrow the
// price rows to the requested duration/mileage/price bounds, discard
// candidates with no qualifying row, pick the cheapest surviving row, then
// sort everything by price and truncate to the limit. The sort is stable,
// so equal prices keep their similarity order.
func Rank(candidates []semantic.Candidate, f domain.SearchFilter) []domain.RankedResult {
	results := fn.FilterMap(candidates, func(c semantic.Candidate) (domain.RankedResult, bool) {
		return qualify(c, f)
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Price < results[j].Price
	})

	if limit := f.EffectiveLimit(); len(results) > limit {
		results = results[:limit]
	}
	return results
}

// qualify reduces one candidate to its cheapest qualifying price row.
func qualify(c semantic.Candidate, f domain.SearchFilter) (domain.RankedResult, bool) {
	rows := c.PriceRows

	if f.Duration != nil {
		rows = fn.Filter(rows, func(r domain.PriceRow) bool { return r.Duration == *f.Duration })
	}
	if f.Mileage != nil {
		rows = fn.Filter(rows, func(r domain.PriceRow) bool { return r.Mileage == *f.Mileage })
	}
	if len(rows) == 0 {
		return domain.RankedResult{}, false
	}

	if f.PriceMin != nil || f.PriceMax != nil {
		rows = fn.Filter(rows, func(r domain.PriceRow) bool {
			if f.PriceMin != nil && r.Amount < *f.PriceMin {
				return false
			}
			if f.PriceMax != nil && r.Amount > *f.PriceMax {
				return false
			}
			return true
		})
	}
	if len(rows) == 0 {
		return domain.RankedResult{}, false
	}

	best := rows[0]
	for _, r := range rows[1:] {
		if r.Amount < best.Amount {
			best = r
		}
	}

	return domain.RankedResult{
		Name:     c.Name,
		URL:      c.URL,
		Price:    best.Amount,
		Duration: best.Duration,
		Mileage:  best.Mileage,
	}, true
}
