package analytics

import "sort"

// Codes with fixed highlight treatment in every chart.
const (
	CodeUS    = "US"
	CodeChina = "CN"
)

// AggregateCountries deduplicates, sums, ranks, and highlights the raw
// per-country rows.
//
// Deduplication groups by the resolved display name, not the code, so alias
// codes that map to the same name ("GB" and "UK" → "United Kingdom") merge
// into one row.  Codes absent from countryMap pass through verbatim as both
// code and name, which also keeps malformed multi-value codes ("AU; SG") as
// opaque single rows.
//
// The output is sorted by PaperCount descending, ties broken by AuthorCount
// descending, then by CountryName ascending so that equal rows always land
// in the same order regardless of input order.  Rank is the dense 1-based
// position in that order.  IsHighlight is set when any code merged into the
// row is US, CN, or focusCode.
//
// The input slice is never mutated.  Summing PaperCount over the result
// always equals summing it over the input: rows are never dropped or
// double-counted.
func AggregateCountries(raw []CountryRecord, countryMap map[string]string, focusCode string) []CountryRecord {
	type group struct {
		rec       CountryRecord
		highlight bool
	}
	groups := make(map[string]*group, len(raw))

	for _, r := range raw {
		code := r.AffiliationCountry
		name, ok := countryMap[code]
		if !ok {
			name = code
		}

		g, exists := groups[name]
		if !exists {
			g = &group{rec: CountryRecord{
				AffiliationCountry: code,
				CountryName:        name,
			}}
			groups[name] = g
		} else if code < g.rec.AffiliationCountry {
			// Canonical code for a merged row is the smallest member code,
			// keeping the output independent of input order.
			g.rec.AffiliationCountry = code
		}

		g.rec.PaperCount += r.PaperCount
		g.rec.AuthorCount += r.AuthorCount
		g.rec.Spotlights += r.Spotlights
		g.rec.Orals += r.Orals

		if code == CodeUS || code == CodeChina || (focusCode != "" && code == focusCode) {
			g.highlight = true
		}
	}

	out := make([]CountryRecord, 0, len(groups))
	for _, g := range groups {
		g.rec.IsHighlight = g.highlight
		out = append(out, g.rec)
	}

	// Explicit sort; map iteration order must never leak into the result.
	sort.Slice(out, func(i, j int) bool {
		if out[i].PaperCount != out[j].PaperCount {
			return out[i].PaperCount > out[j].PaperCount
		}
		if out[i].AuthorCount != out[j].AuthorCount {
			return out[i].AuthorCount > out[j].AuthorCount
		}
		return out[i].CountryName < out[j].CountryName
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// FindByCode returns the first aggregated row whose canonical code matches,
// or nil when absent.
func FindByCode(agg []CountryRecord, code string) *CountryRecord {
	for i := range agg {
		if agg[i].AffiliationCountry == code {
			return &agg[i]
		}
	}
	return nil
}

// TopCountries slices the first n rows of the ranked aggregate.  When
// includeFocus is set and the focus country ranks outside the top n, its row
// is appended with its original rank preserved — the list is deliberately
// not renumbered so the gap communicates the country's true position.
func TopCountries(agg []CountryRecord, n int, focusCode string, includeFocus bool) []CountryRecord {
	if n < 0 {
		n = 0
	}
	if n > len(agg) {
		n = len(agg)
	}

	out := make([]CountryRecord, n, n+1)
	copy(out, agg[:n])

	if includeFocus && focusCode != "" {
		if focus := FindByCode(agg, focusCode); focus != nil && focus.Rank > n {
			out = append(out, *focus)
		}
	}
	return out
}
