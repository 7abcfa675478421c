package semantic

import "github.com/rentascout/rentascout-mvp/engine/domain"

// PreFilter is the structured predicate pushed down alongside the vector
// search. Nil fields contribute no clause. Price, duration, and mileage
// are deliberately absent: those are row-level constraints evaluated by
// the ranker against individual price rows, because one non-qualifying
// row must never exclude a vehicle wholesale.
type PreFilter struct {
	Type           *string
	Color          *string
	Drivetrain     *string
	Transmission   *string
	Fuel           *string
	Seats          *int
	MinYear        *int
	ConsumptionMin *float64
	ConsumptionMax *float64
}

// Empty reports whether the predicate carries no clause at all.
func (p PreFilter) Empty() bool {
	return p.Type == nil && p.Color == nil && p.Drivetrain == nil &&
		p.Transmission == nil && p.Fuel == nil && p.Seats == nil &&
		p.MinYear == nil && p.ConsumptionMin == nil && p.ConsumptionMax == nil
}

// Candidate is one similarity-ranked vehicle returned by the vector
// search, carrying just enough payload for the ranker.
type Candidate struct {
	Name      string
	URL       string
	Score     float32
	PriceRows []domain.PriceRow
}
