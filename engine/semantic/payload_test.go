package semantic

import (
	"reflect"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

func payloadDoc() domain.VehicleDocument {
	prev := 420.0
	return domain.VehicleDocument{
		URL:  "https://example.com/vehicles/kona",
		Name: "Hyundai Kona",
		Attrs: domain.Attributes{
			"type":        domain.StringValue("SUV"),
			"fuel":        domain.StringValue("Hibrido"),
			"seats":       domain.IntValue(5),
			"year":        domain.IntValue(2024),
			"consumption": domain.IntValue(5),
			"power":       domain.IntValue(140), // not a filter attr, stays out
		},
		PriceRows: []domain.PriceRow{
			{Duration: 36, Mileage: 10000, Amount: 389.5, PreviousAmount: &prev},
			{Duration: 48, Mileage: 15000, Amount: 369},
		},
	}
}

func TestVehiclePayload_FilterAttrsLowercased(t *testing.T) {
	payload := vehiclePayload(payloadDoc())

	if got := payload["type"].GetStringValue(); got != "suv" {
		t.Errorf("type = %q, want lowercased", got)
	}
	if got := payload["fuel"].GetStringValue(); got != "hibrido" {
		t.Errorf("fuel = %q", got)
	}
	if got := payload["seats"].GetIntegerValue(); got != 5 {
		t.Errorf("seats = %d", got)
	}
	if _, ok := payload["power"]; ok {
		t.Error("non-filter attribute copied into payload")
	}
}

func TestVehiclePayload_IdentityAndRows(t *testing.T) {
	payload := vehiclePayload(payloadDoc())

	if payload[payloadName].GetStringValue() != "Hyundai Kona" {
		t.Error("name missing from payload")
	}
	rows := payload[payloadPriceRows].GetListValue().GetValues()
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	first := rows[0].GetStructValue().GetFields()
	if first["amount"].GetDoubleValue() != 389.5 {
		t.Errorf("amount = %v", first["amount"])
	}
	if first["previous_amount"].GetDoubleValue() != 420 {
		t.Errorf("previous_amount = %v", first["previous_amount"])
	}
}

func TestCandidateRoundTrip(t *testing.T) {
	doc := payloadDoc()
	c := candidateFromPayload(0.92, vehiclePayload(doc))

	if c.Name != doc.Name || c.URL != doc.URL {
		t.Errorf("identity mismatch: %+v", c)
	}
	if c.Score != 0.92 {
		t.Errorf("score = %v", c.Score)
	}
	if !reflect.DeepEqual(c.PriceRows, doc.PriceRows) {
		t.Errorf("price rows:\ngot  %+v\nwant %+v", c.PriceRows, doc.PriceRows)
	}
}

func TestCandidateFromPayload_MissingRowsTolerated(t *testing.T) {
	c := candidateFromPayload(0.5, map[string]*pb.Value{
		payloadName: strValue("X"),
		payloadURL:  strValue("u"),
	})
	if c.Name != "X" || len(c.PriceRows) != 0 {
		t.Errorf("candidate = %+v", c)
	}
}
