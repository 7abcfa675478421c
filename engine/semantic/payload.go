package semantic

import (
	"strings"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

// Payload keys. Categorical values are lowercased at write time so the
// full-text match clauses stay case-insensitive.
const (
	payloadName      = "name"
	payloadURL       = "url"
	payloadPriceRows = "price_rows"
)

// lowercased categorical attributes copied into the payload for filtering.
var textFilterAttrs = []string{
	domain.AttrType, domain.AttrColor, domain.AttrDrivetrain,
	domain.AttrTransmission, domain.AttrFuel,
}

// integer attributes copied into the payload for filtering.
var intFilterAttrs = []string{
	domain.AttrSeats, domain.AttrYear, domain.AttrConsumption,
}

// vehiclePayload projects the document into the point payload: identity,
// the price rows the ranker needs, and the filterable attribute subset.
func vehiclePayload(doc domain.VehicleDocument) map[string]*pb.Value {
	payload := map[string]*pb.Value{
		payloadName: strValue(doc.Name),
		payloadURL:  strValue(doc.URL),
	}

	if len(doc.PriceRows) > 0 {
		rows := make([]*pb.Value, len(doc.PriceRows))
		for i, r := range doc.PriceRows {
			fields := map[string]*pb.Value{
				"duration": intValue(int64(r.Duration)),
				"mileage":  intValue(int64(r.Mileage)),
				"amount":   doubleValue(r.Amount),
			}
			if r.PreviousAmount != nil {
				fields["previous_amount"] = doubleValue(*r.PreviousAmount)
			}
			rows[i] = &pb.Value{Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: fields}}}
		}
		payload[payloadPriceRows] = &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: rows}}}
	}

	for _, key := range textFilterAttrs {
		if v, ok := doc.Attrs[key]; ok && !v.IsInt() {
			payload[key] = strValue(strings.ToLower(v.Str))
		}
	}
	for _, key := range intFilterAttrs {
		if v, ok := doc.Attrs[key]; ok && v.IsInt() {
			payload[key] = intValue(v.Int)
		}
	}
	return payload
}

// candidateFromPayload rebuilds a Candidate from a search hit's payload.
// Malformed rows are dropped, mirroring the normalizer's tolerance.
func candidateFromPayload(score float32, payload map[string]*pb.Value) Candidate {
	c := Candidate{
		Name:  payload[payloadName].GetStringValue(),
		URL:   payload[payloadURL].GetStringValue(),
		Score: score,
	}
	for _, rowVal := range payload[payloadPriceRows].GetListValue().GetValues() {
		fields := rowVal.GetStructValue().GetFields()
		if fields == nil {
			continue
		}
		row := domain.PriceRow{
			Duration: int(numeric(fields["duration"])),
			Mileage:  int(numeric(fields["mileage"])),
			Amount:   numeric(fields["amount"]),
		}
		if prev, ok := fields["previous_amount"]; ok {
			p := numeric(prev)
			row.PreviousAmount = &p
		}
		c.PriceRows = append(c.PriceRows, row)
	}
	return c
}

// numeric reads a payload value as float64 whether Qdrant stored it as
// integer or double.
func numeric(v *pb.Value) float64 {
	if v == nil {
		return 0
	}
	if d, ok := v.GetKind().(*pb.Value_DoubleValue); ok {
		return d.DoubleValue
	}
	return float64(v.GetIntegerValue())
}

func strValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func intValue(n int64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: n}}
}

func doubleValue(f float64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: f}}
}
