package catalog

import (
	"sort"
	"time"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

// Node property keys owned by the document itself; every other property on
// a Vehicle node is an open technical attribute.
const (
	propURL         = "url"
	propName        = "name"
	propDescription = "description"
	propEnvLabel    = "environmental_label"
	propInfo        = "info"
	propScrapedAt   = "scraped_at"
	propEmbedding   = "embedding"
)

var reservedProps = map[string]bool{
	propURL: true, propName: true, propDescription: true,
	propEnvLabel: true, propInfo: true, propScrapedAt: true,
	propEmbedding: true,
}

// docToProps flattens a document into Vehicle node properties. Absent
// fields stay absent; the normalizer already guarantees no empty values.
func docToProps(doc domain.VehicleDocument) map[string]any {
	props := map[string]any{
		propURL:       doc.URL,
		propName:      doc.Name,
		propScrapedAt: doc.ScrapedAt,
	}
	if doc.Description != "" {
		props[propDescription] = doc.Description
	}
	if doc.EnvironmentalLabel != "" {
		props[propEnvLabel] = doc.EnvironmentalLabel
	}
	if len(doc.Info) > 0 {
		props[propInfo] = doc.Info
	}
	if doc.HasEmbedding() {
		vec := make([]float64, len(doc.Embedding))
		for i, f := range doc.Embedding {
			vec[i] = float64(f)
		}
		props[propEmbedding] = vec
	}
	for k, v := range doc.Attrs {
		if reservedProps[k] {
			continue
		}
		if v.IsInt() {
			props[k] = v.Int
		} else {
			props[k] = v.Str
		}
	}
	return props
}

// rowsToProps renders price rows as PriceOffer node properties, with an
// idx to preserve scrape order across the round trip.
func rowsToProps(rows []domain.PriceRow) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		props := map[string]any{
			"idx":      int64(i),
			"duration": int64(r.Duration),
			"mileage":  int64(r.Mileage),
			"amount":   r.Amount,
		}
		if r.PreviousAmount != nil {
			props["previous_amount"] = *r.PreviousAmount
		}
		out[i] = props
	}
	return out
}

// docFromProps rebuilds the document from node and offer properties.
func docFromProps(props map[string]any, offers []map[string]any) domain.VehicleDocument {
	doc := domain.VehicleDocument{
		URL:                strProp(props, propURL),
		Name:               strProp(props, propName),
		Description:        strProp(props, propDescription),
		EnvironmentalLabel: strProp(props, propEnvLabel),
	}
	if t, ok := props[propScrapedAt].(time.Time); ok {
		doc.ScrapedAt = t
	}
	if list, ok := props[propInfo].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				doc.Info = append(doc.Info, s)
			}
		}
	}
	if list, ok := props[propEmbedding].([]any); ok {
		vec := make([]float32, 0, len(list))
		for _, item := range list {
			if f, ok := item.(float64); ok {
				vec = append(vec, float32(f))
			}
		}
		if len(vec) > 0 {
			doc.Embedding = vec
		}
	}

	attrs := make(domain.Attributes)
	for k, v := range props {
		if reservedProps[k] {
			continue
		}
		switch tv := v.(type) {
		case int64:
			attrs[k] = domain.IntValue(tv)
		case string:
			attrs[k] = domain.StringValue(tv)
		}
	}
	if len(attrs) > 0 {
		doc.Attrs = attrs
	}

	if len(offers) > 0 {
		sort.Slice(offers, func(i, j int) bool {
			return intProp(offers[i], "idx") < intProp(offers[j], "idx")
		})
		for _, o := range offers {
			row := domain.PriceRow{
				Duration: int(intProp(o, "duration")),
				Mileage:  int(intProp(o, "mileage")),
				Amount:   floatProp(o, "amount"),
			}
			if prev, ok := o["previous_amount"].(float64); ok {
				row.PreviousAmount = &prev
			}
			doc.PriceRows = append(doc.PriceRows, row)
		}
	}
	return doc
}

func strProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func intProp(props map[string]any, key string) int64 {
	n, _ := props[key].(int64)
	return n
}

func floatProp(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}
