package analytics

// DerivedChartRecord is one bucket of a chart-ready comparison set.
type DerivedChartRecord struct {
	Name  string `json:"name"`
	Value float64 `json:"value"`

	// Percent is Value divided by the set's denominator, in [0,1].  For a
	// full set the percents sum to 1.0; for a truncated set (top-N) they
	// are computed against the untruncated total, a documented
	// approximation rather than a bug.
	Percent float64 `json:"percent"`

	// Fill is the resolved color; FillVariable optionally names the CSS
	// variable frontends prefer over the literal color.
	Fill         string `json:"fill,omitempty"`
	FillVariable string `json:"fillVariable,omitempty"`
}

// percentOf guards the zero-total case: an empty denominator yields 0%
// rather than NaN.
func percentOf(value, total float64) float64 {
	if total == 0 {
		total = 1
	}
	return value / total
}

// clampNonNegative flags inconsistent upstream data by flooring at zero
// instead of propagating a negative count into a chart.
func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// colorPicker assigns colors by category rule: fixed colors for US, China,
// and the focus country; palette rotation for everything else.
type colorPicker struct {
	scheme    ColorScheme
	focusCode string
	next      int
}

func (p *colorPicker) pick(code string) string {
	switch {
	case code == CodeUS:
		return p.scheme.US
	case code == CodeChina:
		return p.scheme.China
	case p.focusCode != "" && code == p.focusCode:
		return p.scheme.Focus
	case len(p.scheme.Palette) == 0:
		return p.scheme.Rest
	default:
		c := p.scheme.Palette[p.next%len(p.scheme.Palette)]
		p.next++
		return c
	}
}

// BuildUSChinaRest produces the two-or-three bucket comparison of the United
// States, China, and everything else.  Rest is the global total minus the US
// and China rows, clamped to >= 0; its bucket is omitted when empty.  All
// percents share the global total as denominator, so the full three-bucket
// set sums to 1.0.
func BuildUSChinaRest(agg []CountryRecord, scheme ColorScheme) []DerivedChartRecord {
	var total, us, cn int
	for _, r := range agg {
		total += r.PaperCount
	}
	if r := FindByCode(agg, CodeUS); r != nil {
		us = r.PaperCount
	}
	if r := FindByCode(agg, CodeChina); r != nil {
		cn = r.PaperCount
	}
	rest := clampNonNegative(total - us - cn)

	denom := float64(total)
	out := []DerivedChartRecord{
		{Name: "United States", Value: float64(us), Percent: percentOf(float64(us), denom), Fill: scheme.US},
		{Name: "China", Value: float64(cn), Percent: percentOf(float64(cn), denom), Fill: scheme.China},
	}
	if rest > 0 {
		out = append(out, DerivedChartRecord{
			Name:    "Rest of World",
			Value:   float64(rest),
			Percent: percentOf(float64(rest), denom),
			Fill:    scheme.Rest,
		})
	}
	return out
}

// BuildRegionalSubset filters the aggregate down to the given membership set
// (e.g. the configured APAC codes) and renormalizes percents against the
// subset's own total — a deliberate per-subset renormalization, not a reuse
// of global percentages.  Rows keep their aggregate order.
func BuildRegionalSubset(agg []CountryRecord, membership []string, focusCode string, scheme ColorScheme) []DerivedChartRecord {
	member := make(map[string]struct{}, len(membership))
	for _, code := range membership {
		member[code] = struct{}{}
	}

	subset := make([]CountryRecord, 0, len(membership))
	var subtotal int
	for _, r := range agg {
		if _, ok := member[r.AffiliationCountry]; ok {
			subset = append(subset, r)
			subtotal += r.PaperCount
		}
	}

	picker := &colorPicker{scheme: scheme, focusCode: focusCode}
	out := make([]DerivedChartRecord, 0, len(subset))
	for _, r := range subset {
		out = append(out, DerivedChartRecord{
			Name:    r.CountryName,
			Value:   float64(r.PaperCount),
			Percent: percentOf(float64(r.PaperCount), float64(subtotal)),
			Fill:    picker.pick(r.AffiliationCountry),
		})
	}
	return out
}

// BuildTopNChart converts a (possibly truncated) ranked country slice into
// chart records.  Percents use the full aggregate total so the buckets stay
// comparable with the global view even when the slice is truncated.
func BuildTopNChart(top []CountryRecord, aggTotal int, focusCode string, scheme ColorScheme) []DerivedChartRecord {
	picker := &colorPicker{scheme: scheme, focusCode: focusCode}
	out := make([]DerivedChartRecord, 0, len(top))
	for _, r := range top {
		out = append(out, DerivedChartRecord{
			Name:    r.CountryName,
			Value:   float64(r.PaperCount),
			Percent: percentOf(float64(r.PaperCount), float64(aggTotal)),
			Fill:    picker.pick(r.AffiliationCountry),
		})
	}
	return out
}
