package analytics

// Composition groups the three two-bucket breakdowns of the focus country's
// accepted papers.
type Composition struct {
	Authorship       []DerivedChartRecord `json:"authorship"`
	FirstAuthor      []DerivedChartRecord `json:"firstAuthor"`
	InstitutionTypes []DerivedChartRecord `json:"institutionTypes"`
}

// twoBucket builds a pair of chart records whose percents sum to 1.0 against
// the pair's own total (never the grand total of all papers).
func twoBucket(nameA string, a int, fillA, nameB string, b int, fillB string) []DerivedChartRecord {
	total := float64(a + b)
	return []DerivedChartRecord{
		{Name: nameA, Value: float64(a), Percent: percentOf(float64(a), total), Fill: fillA},
		{Name: nameB, Value: float64(b), Percent: percentOf(float64(b), total), Fill: fillB},
	}
}

// BuildAuthorshipComposition splits papers with at least one focus-country
// author into majority vs minority-but-present.  Upstream data occasionally
// reports majority > at-least-one; the minority bucket is clamped to zero in
// that case rather than surfacing a negative count.
func BuildAuthorshipComposition(fc FocusCountry, scheme ColorScheme) []DerivedChartRecord {
	majority := fc.MajorityAuthors.Count
	minority := clampNonNegative(fc.AtLeastOneAuthor.Count - majority)
	return twoBucket(
		"Majority "+fc.CountryName+" Authors", majority, scheme.Focus,
		"Minority "+fc.CountryName+" Authors", minority, scheme.Rest,
	)
}

// BuildFirstAuthorComposition splits the same population into papers with a
// focus-country first author vs focus-country presence without first
// authorship, clamped the same way.
func BuildFirstAuthorComposition(fc FocusCountry, scheme ColorScheme) []DerivedChartRecord {
	first := fc.FirstAuthor.Count
	other := clampNonNegative(fc.AtLeastOneAuthor.Count - first)
	return twoBucket(
		fc.CountryName+" First Author", first, scheme.Focus,
		"Other First Author", other, scheme.Rest,
	)
}

// BuildInstitutionTypeComposition splits focus-country papers by academic vs
// corporate institution counts.
func BuildInstitutionTypeComposition(fc FocusCountry, scheme ColorScheme) []DerivedChartRecord {
	return twoBucket(
		"Academic", clampNonNegative(fc.InstitutionTypes.Academic), scheme.Focus,
		"Corporate", clampNonNegative(fc.InstitutionTypes.Corporate), scheme.Rest,
	)
}

// BuildComposition assembles all three breakdowns.
func BuildComposition(fc FocusCountry, scheme ColorScheme) Composition {
	return Composition{
		Authorship:       BuildAuthorshipComposition(fc, scheme),
		FirstAuthor:      BuildFirstAuthorComposition(fc, scheme),
		InstitutionTypes: BuildInstitutionTypeComposition(fc, scheme),
	}
}
