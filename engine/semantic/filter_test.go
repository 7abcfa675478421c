package semantic

import (
	"testing"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }
func fp(f float64) *float64 { return &f }

func TestBuildFilter_NoClausesIsNil(t *testing.T) {
	if f := buildFilter(PreFilter{}); f != nil {
		t.Errorf("expected nil filter, got %+v", f)
	}
}

func TestBuildFilter_KeywordClausesLowercased(t *testing.T) {
	// Keyword match needs no payload index; it works because both the
	// stored payload values and the query values are lowercased.
	f := buildFilter(PreFilter{Type: strp("SUV"), Color: strp("Gris")})
	if f == nil || len(f.Must) != 2 {
		t.Fatalf("filter = %+v", f)
	}

	cond := f.Must[0].GetField()
	if cond.GetKey() != domain.AttrType {
		t.Errorf("key = %q", cond.GetKey())
	}
	if got := cond.GetMatch().GetKeyword(); got != "suv" {
		t.Errorf("match keyword = %q, want lowercased", got)
	}
	if cond.GetMatch().GetText() != "" {
		t.Error("categorical clause must be a keyword match, not full-text")
	}
}

func TestBuildFilter_SeatsIntegerMatch(t *testing.T) {
	f := buildFilter(PreFilter{Seats: intp(7)})
	cond := f.Must[0].GetField()
	if cond.GetKey() != domain.AttrSeats || cond.GetMatch().GetInteger() != 7 {
		t.Errorf("condition = %+v", cond)
	}
}

func TestBuildFilter_MinYearRange(t *testing.T) {
	f := buildFilter(PreFilter{MinYear: intp(2021)})
	cond := f.Must[0].GetField()
	r := cond.GetRange()
	if cond.GetKey() != domain.AttrYear || r == nil || r.Gte == nil || *r.Gte != 2021 {
		t.Errorf("condition = %+v", cond)
	}
	if r.Lte != nil {
		t.Error("min-year must be open above")
	}
}

func TestBuildFilter_ConsumptionBand(t *testing.T) {
	f := buildFilter(PreFilter{ConsumptionMin: fp(4), ConsumptionMax: fp(6.5)})
	r := f.Must[0].GetField().GetRange()
	if r.Gte == nil || *r.Gte != 4 || r.Lte == nil || *r.Lte != 6.5 {
		t.Errorf("range = %+v", r)
	}
}

func TestBuildFilter_AllClausesConjoined(t *testing.T) {
	f := buildFilter(PreFilter{
		Type:           strp("suv"),
		Color:          strp("negro"),
		Drivetrain:     strp("awd"),
		Transmission:   strp("auto"),
		Fuel:           strp("hibrido"),
		Seats:          intp(5),
		MinYear:        intp(2020),
		ConsumptionMax: fp(7),
	})
	if len(f.Must) != 8 {
		t.Errorf("got %d clauses, want 8", len(f.Must))
	}
}

func TestPreFilterEmpty(t *testing.T) {
	if !(PreFilter{}).Empty() {
		t.Error("zero pre-filter not empty")
	}
	if (PreFilter{Fuel: strp("diesel")}).Empty() {
		t.Error("pre-filter with a clause reported empty")
	}
}
