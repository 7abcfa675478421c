package domain

import (
	"fmt"
	"strings"
)

// MaxLimit bounds the requested result count. The ranker truncates to the
// limit anyway; this only guards against pathological requests.
const MaxLimit = 50

// ValidateFilter checks a SearchFilter before any external call is made.
// It never mutates the filter.
func ValidateFilter(f SearchFilter) error {
	if strings.TrimSpace(f.Query) == "" {
		return NewFilterError("query", f.Query, ErrEmptyQuery)
	}
	if f.Limit < 0 || f.Limit > MaxLimit {
		return NewFilterError("limit", fmt.Sprintf("%d", f.Limit), ErrInvalidLimit)
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return NewFilterError("price", fmt.Sprintf("%.2f>%.2f", *f.PriceMin, *f.PriceMax), ErrInvalidRange)
	}
	if f.ConsumptionMin != nil && f.ConsumptionMax != nil && *f.ConsumptionMin > *f.ConsumptionMax {
		return NewFilterError("consumption", fmt.Sprintf("%.2f>%.2f", *f.ConsumptionMin, *f.ConsumptionMax), ErrInvalidRange)
	}
	return nil
}
