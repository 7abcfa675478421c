// Package normalize turns raw scraped field maps into canonical vehicle
// documents. Everything here is pure and deterministic: malformed fields
// are silently dropped, never defaulted, and no error is ever returned.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rentascout/rentascout-mvp/engine/domain"
	"github.com/rentascout/rentascout-mvp/engine/scraper"
)

var digitRun = regexp.MustCompile(`\d+`)

var digitBearing = func() map[string]bool {
	m := make(map[string]bool, len(domain.DigitBearingAttrs))
	for _, k := range domain.DigitBearingAttrs {
		m[k] = true
	}
	return m
}()

// Vehicle produces the canonical document for a raw detail-page scrape.
// Attribute keys are lowercased and trimmed; digit-bearing attributes and
// the model year become integers extracted from the first maximal digit
// run of their raw value, or are dropped when no digit is present. String
// attributes that end up empty are dropped rather than stored empty.
func Vehicle(raw scraper.RawVehicle, scrapedAt time.Time) domain.VehicleDocument {
	doc := domain.VehicleDocument{
		URL:                strings.TrimSpace(raw.URL),
		Name:               strings.TrimSpace(raw.Name),
		Description:        collapseSpace(raw.Description),
		EnvironmentalLabel: strings.TrimSpace(raw.EnvironmentalLabel),
		ScrapedAt:          scrapedAt,
	}

	if attrs := normalizeFields(raw.Fields); len(attrs) > 0 {
		doc.Attrs = attrs
	}
	if info := normalizeInfo(raw.Info); len(info) > 0 {
		doc.Info = info
	}
	if rows := normalizeRows(raw.PriceRows); len(rows) > 0 {
		doc.PriceRows = rows
	}
	return doc
}

func normalizeFields(fields map[string]string) domain.Attributes {
	attrs := make(domain.Attributes, len(fields))
	for rawKey, rawVal := range fields {
		key := strings.ToLower(strings.TrimSpace(rawKey))
		val := strings.TrimSpace(rawVal)
		if key == "" || val == "" {
			continue
		}
		if digitBearing[key] || key == domain.AttrYear {
			n, ok := firstDigitRun(val)
			if !ok {
				continue // no digit: attribute absent, not a unit-bearing string
			}
			attrs[key] = domain.IntValue(n)
			continue
		}
		attrs[key] = domain.StringValue(val)
	}
	return attrs
}

// firstDigitRun extracts the integer formed by the first maximal run of
// digit characters. First match wins: "150 CV" is 150, "1.5 TSI" is 1.
func firstDigitRun(s string) (int64, bool) {
	m := digitRun.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func normalizeInfo(info []string) []string {
	var out []string
	for _, p := range info {
		if t := collapseSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeRows keeps only rows where every scraped field of the row is
// present: a row with a null amount, duration, or mileage is dropped whole.
func normalizeRows(rows []scraper.RawPriceRow) []domain.PriceRow {
	var out []domain.PriceRow
	for _, r := range rows {
		if r.Duration == nil || r.Mileage == nil || r.Amount == nil {
			continue
		}
		row := domain.PriceRow{
			Duration: *r.Duration,
			Mileage:  *r.Mileage,
			Amount:   *r.Amount,
		}
		if r.PreviousAmount != nil {
			prev := *r.PreviousAmount
			row.PreviousAmount = &prev
		}
		out = append(out, row)
	}
	return out
}

var spaceRun = regexp.MustCompile(`[\s\x{00A0}]+`)

// collapseSpace trims and collapses whitespace runs, including non-breaking
// spaces left behind by HTML extraction.
func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
