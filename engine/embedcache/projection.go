// Package embedcache decides, per ingested document, whether the stored
// embedding can be reused or must be recomputed. The decision compares
// canonical-text projections: the exact text an embedding was computed
// from. When projections match the stored embedding is still valid and
// no external call is needed.
package embedcache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rentascout/rentascout-mvp/engine/domain"
)

// Projection renders a document into the deterministic text its embedding
// is computed from. Renders, in fixed order: name, url, the minimum-price
// summary, description, the environmental label, info paragraphs, and all
// technical attributes
// sorted by key as "Key: value" lines. Attribute order is sorted
// explicitly so unrelated map reordering can never force a re-embed.
func Projection(doc *domain.VehicleDocument) string {
	var b strings.Builder

	if doc.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", doc.Name)
	}
	if doc.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", doc.URL)
	}
	if row, ok := doc.MinPriceRow(); ok {
		fmt.Fprintf(&b, "Price from: %s €/month (%d months / %d km/yr)\n",
			formatAmount(row.Amount), row.Duration, row.Mileage)
	}
	if doc.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", doc.Description)
	}
	if doc.EnvironmentalLabel != "" {
		fmt.Fprintf(&b, "Environmental label: %s\n", doc.EnvironmentalLabel)
	}
	for _, p := range doc.Info {
		fmt.Fprintf(&b, "Info: %s\n", p)
	}

	keys := make([]string, 0, len(doc.Attrs))
	for k := range doc.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	digitBearing := make(map[string]bool, len(domain.DigitBearingAttrs))
	for _, k := range domain.DigitBearingAttrs {
		digitBearing[k] = true
	}

	for _, k := range keys {
		v := doc.Attrs[k]
		// A digit-bearing attribute that somehow carries a digitless
		// string is skipped, matching the normalizer's drop rule.
		if digitBearing[k] && !v.IsInt() && !strings.ContainsAny(v.Str, "0123456789") {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", capitalize(k), renderValue(v))
	}

	return b.String()
}

func renderValue(v domain.Value) string {
	if v.IsInt() {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Str
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
