// Package domain defines the core catalog types, constants, and validation
// for the Rentascout engine. It acts as the validation gate at pipeline
// entry points and carries no external dependencies.
package domain

import "time"

// Attribute keys produced by the normalizer and understood by the planner.
const (
	AttrConsumption  = "consumption"
	AttrMileage      = "mileage"
	AttrGears        = "gears"
	AttrSeats        = "seats"
	AttrPower        = "power"
	AttrDoors        = "doors"
	AttrYear         = "year"
	AttrType         = "type"
	AttrColor        = "color"
	AttrDrivetrain   = "drivetrain"
	AttrTransmission = "transmission"
	AttrFuel         = "fuel"
)

// DigitBearingAttrs enumerates the attributes whose value must hold a
// parsed integer or be absent entirely. Configured here, not inferred at
// scrape time.
var DigitBearingAttrs = []string{
	AttrConsumption, AttrMileage, AttrGears, AttrSeats, AttrPower, AttrDoors,
}

// ValueKind discriminates the tagged attribute value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
)

// Value is a tagged attribute value: either a string or an integer.
// Technical attributes are open-ended, so the catalog cannot fix a schema
// per key; it fixes the value shapes instead.
type Value struct {
	Kind ValueKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Int  int64     `json:"int,omitempty"`
}

// StringValue creates a string-kind Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue creates an integer-kind Value.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// IsInt reports whether the value holds an integer.
func (v Value) IsInt() bool { return v.Kind == KindInt }

// Attributes is an open mapping from attribute key to tagged value.
// Deterministic orderings are always derived by sorting keys; callers must
// never rely on map iteration order.
type Attributes map[string]Value

// Clone returns a shallow copy of the attribute map.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// PriceRow is one (duration, mileage) price point of a listing. Amount is
// the authoritative monthly price; PreviousAmount is the crossed-out offer
// price when the site shows one.
type PriceRow struct {
	Duration       int      `json:"duration"`
	Mileage        int      `json:"mileage"`
	Amount         float64  `json:"amount"`
	PreviousAmount *float64 `json:"previous_amount,omitempty"`
}

// VehicleDocument is a canonical listing keyed by its detail-page URL.
// Absent fields are zero-valued; the normalizer guarantees that no field
// holds a null, empty string, or empty collection.
type VehicleDocument struct {
	URL                string     `json:"url"`
	Name               string     `json:"name"`
	Attrs              Attributes `json:"attrs,omitempty"`
	Description        string     `json:"description,omitempty"`
	Info               []string   `json:"info,omitempty"`
	EnvironmentalLabel string     `json:"environmental_label,omitempty"`
	PriceRows          []PriceRow `json:"price_rows,omitempty"`
	Embedding          []float32  `json:"embedding,omitempty"`
	ScrapedAt          time.Time  `json:"scraped_at"`
}

// HasEmbedding reports whether the document carries an embedding vector.
func (d *VehicleDocument) HasEmbedding() bool { return len(d.Embedding) > 0 }

// MinPriceRow returns the row with the minimum amount, ties broken by first
// occurrence. ok is false when the document has no price rows.
func (d *VehicleDocument) MinPriceRow() (row PriceRow, ok bool) {
	if len(d.PriceRows) == 0 {
		return PriceRow{}, false
	}
	row = d.PriceRows[0]
	for _, r := range d.PriceRows[1:] {
		if r.Amount < row.Amount {
			row = r
		}
	}
	return row, true
}

// SearchFilter is an immutable search request: free-text query, result
// limit, and any subset of structured constraints. Nil means "constraint
// absent"; no invariant couples the optional fields.
type SearchFilter struct {
	Query          string   `json:"query"`
	Limit          int      `json:"limit,omitempty"`
	Type           *string  `json:"type,omitempty"`
	Color          *string  `json:"color,omitempty"`
	Seats          *int     `json:"seats,omitempty"`
	Drivetrain     *string  `json:"drivetrain,omitempty"`
	Transmission   *string  `json:"transmission,omitempty"`
	Fuel           *string  `json:"fuel,omitempty"`
	PriceMin       *float64 `json:"price_min,omitempty"`
	PriceMax       *float64 `json:"price_max,omitempty"`
	MinYear        *int     `json:"min_year,omitempty"`
	ConsumptionMin *float64 `json:"consumption_min,omitempty"`
	ConsumptionMax *float64 `json:"consumption_max,omitempty"`
	Duration       *int     `json:"duration,omitempty"`
	Mileage        *int     `json:"mileage,omitempty"`
}

// DefaultLimit is applied when a filter carries no limit.
const DefaultLimit = 5

// EffectiveLimit returns the filter limit, defaulted to DefaultLimit.
func (f SearchFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// RankedResult is one row of the ranked search output. Derived per query,
// never stored.
type RankedResult struct {
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
	Mileage  int     `json:"mileage"`
}
