package analytics

import (
	"sort"
	"strings"
)

// FilterInstitutions returns the focus-country institutions whose name
// contains query (case-insensitive); an empty query matches everything.
// The result is a new slice ordered by the fixed comparator:
// UniquePaperCount desc, Spotlights desc, Orals desc, AuthorCount desc.
// A nil input yields an empty list, never an error, and the input slice is
// never reordered or otherwise mutated.
func FilterInstitutions(insts []InstitutionRecord, query string) []InstitutionRecord {
	out := make([]InstitutionRecord, 0, len(insts))
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, inst := range insts {
		if needle == "" || strings.Contains(strings.ToLower(inst.Institute), needle) {
			out = append(out, inst)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.UniquePaperCount != b.UniquePaperCount {
			return a.UniquePaperCount > b.UniquePaperCount
		}
		if a.Spotlights != b.Spotlights {
			return a.Spotlights > b.Spotlights
		}
		if a.Orals != b.Orals {
			return a.Orals > b.Orals
		}
		return a.AuthorCount > b.AuthorCount
	})
	return out
}

// SuspectedDuplicateInstitutes reports pairs of institution names that look
// like the same institution spelled differently (one name contained in the
// other after normalization).  This is a data-quality report for upstream
// cleaning; the pipeline itself never merges near-duplicates, since fuzzy
// matching could mis-merge genuinely distinct institutions.
func SuspectedDuplicateInstitutes(insts []InstitutionRecord) [][2]string {
	norm := func(s string) string {
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, ".", "")
		return strings.Join(strings.Fields(s), " ")
	}

	var pairs [][2]string
	for i := 0; i < len(insts); i++ {
		for j := i + 1; j < len(insts); j++ {
			a, b := norm(insts[i].Institute), norm(insts[j].Institute)
			if a == "" || b == "" || a == b {
				continue
			}
			if strings.Contains(a, b) || strings.Contains(b, a) {
				pairs = append(pairs, [2]string{insts[i].Institute, insts[j].Institute})
			}
		}
	}
	return pairs
}
