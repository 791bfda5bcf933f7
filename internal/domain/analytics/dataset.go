// Package analytics implements the conference-paper statistics pipeline: the
// country aggregator, derived chart-set builders, institution filtering and
// ranking, and authorship composition builders.  Everything in this package
// is pure, synchronous computation over in-memory data; datasets are decoded
// once at the boundary and never mutated afterwards.
package analytics

import (
	"encoding/json"

	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// ConferenceInfo identifies a dataset and carries its headline totals.
type ConferenceInfo struct {
	Name                 string `json:"name"`
	Year                 int    `json:"year"`
	Track                string `json:"track"`
	TotalAcceptedPapers  int    `json:"totalAcceptedPapers"`
	TotalAcceptedAuthors int    `json:"totalAcceptedAuthors"`
}

// CountryRecord is a per-country statistics row.  Raw rows carry only the
// affiliation code and counters; AggregateCountries fills in CountryName,
// Rank, and IsHighlight on its output rows.
//
// AffiliationCountry may be an alias ("UK" for "GB") or a malformed
// multi-value string ("AU; SG").  Malformed codes are carried through as
// opaque literals — splitting them would double-count papers without a rule
// for dividing fractional credit.
type CountryRecord struct {
	AffiliationCountry string `json:"affiliation_country"`
	CountryName        string `json:"country_name,omitempty"`
	PaperCount         int    `json:"paper_count"`
	AuthorCount        int    `json:"author_count"`
	Spotlights         int    `json:"spotlights"`
	Orals              int    `json:"orals"`
	Rank               int    `json:"rank,omitempty"`
	IsHighlight        bool   `json:"isHighlight,omitempty"`
}

// PaperRef is a lightweight reference to an accepted paper.
type PaperRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsSpotlight bool   `json:"isSpotlight"`
	IsOral      bool   `json:"isOral"`
}

// InstitutionType classifies an institution.
type InstitutionType string

const (
	InstitutionAcademic  InstitutionType = "academic"
	InstitutionCorporate InstitutionType = "corporate"
	InstitutionUnknown   InstitutionType = "unknown"
)

// InstitutionRecord is a per-institution statistics row for the focus
// country.  Near-duplicate names ("IIT Bombay" vs "Indian Institute of
// Technology, Bombay") are intentionally not merged; see the validate
// command, which reports them for upstream data cleaning.
type InstitutionRecord struct {
	Institute        string          `json:"institute"`
	TotalPaperCount  int             `json:"total_paper_count"`
	UniquePaperCount int             `json:"unique_paper_count"`
	AuthorCount      int             `json:"author_count"`
	Spotlights       int             `json:"spotlights"`
	Orals            int             `json:"orals"`
	Type             InstitutionType `json:"type"`
	Papers           []PaperRef      `json:"papers"`
	// Authors may contain empty strings, a known upstream data artifact
	// preserved as-is.
	Authors []string `json:"authors"`
}

// UnmarshalJSON decodes an institution row, resolving the legacy field
// variants ("name" for "institute") once at the boundary instead of
// scattering fallback chains through consumers.  Unrecognised institution
// types collapse to InstitutionUnknown.
func (r *InstitutionRecord) UnmarshalJSON(data []byte) error {
	type alias InstitutionRecord
	aux := struct {
		*alias
		LegacyName string `json:"name"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.Institute == "" {
		r.Institute = aux.LegacyName
	}
	if r.Institute == "" {
		r.Institute = "Unknown"
	}
	switch r.Type {
	case InstitutionAcademic, InstitutionCorporate:
	default:
		r.Type = InstitutionUnknown
	}
	return nil
}

// AuthorshipBucket counts papers matching an authorship criterion.
type AuthorshipBucket struct {
	Count  int        `json:"count"`
	Papers []PaperRef `json:"papers"`
}

// InstitutionTypeCounts splits focus-country papers by institution category.
type InstitutionTypeCounts struct {
	Academic  int `json:"academic"`
	Corporate int `json:"corporate"`
}

// FocusCountry is the pre-computed summary block for the highlighted country.
type FocusCountry struct {
	CountryCode      string                `json:"country_code"`
	CountryName      string                `json:"country_name"`
	TotalAuthors     int                   `json:"total_authors"`
	TotalSpotlights  int                   `json:"total_spotlights"`
	TotalOrals       int                   `json:"total_orals"`
	InstitutionTypes InstitutionTypeCounts `json:"institution_types"`
	AtLeastOneAuthor AuthorshipBucket      `json:"at_least_one_focus_country_author"`
	MajorityAuthors  AuthorshipBucket      `json:"majority_focus_country_authors"`
	FirstAuthor      AuthorshipBucket      `json:"first_focus_country_author"`
	Institutions     []InstitutionRecord   `json:"institutions"`
}

// ColorScheme assigns chart colors.  US, China, and the focus country get
// fixed colors; everything else cycles through Palette.
type ColorScheme struct {
	US      string   `json:"us"`
	China   string   `json:"china"`
	Focus   string   `json:"focus"`
	Rest    string   `json:"rest"`
	Palette []string `json:"palette"`
}

// Configuration carries the static lookup tables shipped with each dataset.
type Configuration struct {
	// CountryMap resolves ISO-2 codes and aliases to display names.  Codes
	// absent from the map fall back to the raw code.
	CountryMap map[string]string `json:"countryMap"`

	// APACCountries is the fixed membership set for the regional comparison.
	APACCountries []string `json:"apacCountries"`

	ColorScheme    ColorScheme `json:"colorScheme"`
	DashboardTitle string      `json:"dashboardTitle"`
}

// GlobalStats wraps the raw global country table.
type GlobalStats struct {
	Countries []CountryRecord `json:"countries"`
}

// Dataset is one conference/year statistics file, produced by an external
// data-preparation pipeline and treated as immutable once decoded.
type Dataset struct {
	ConferenceInfo ConferenceInfo `json:"conferenceInfo"`
	GlobalStats    GlobalStats    `json:"globalStats"`
	FocusCountry   FocusCountry   `json:"focusCountry"`
	Configuration  Configuration  `json:"configuration"`
}

// defaultPalette is used when a dataset ships no color scheme of its own.
var defaultPalette = []string{
	"#8884d8", "#82ca9d", "#ffc658", "#ff8042",
	"#a4de6c", "#d0ed57", "#83a6ed", "#8dd1e1",
}

// DecodeDataset parses and normalizes one dataset file.  It is the single
// point where shape tolerance lives: legacy institution fields are resolved,
// missing collections default to empty, and color defaults are applied.
// Counter values are taken as-is; consistency repairs (e.g. clamping derived
// negatives) happen in the builders, not here.
func DecodeDataset(data []byte) (*Dataset, error) {
	ds := &Dataset{}
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatasetDecodeFailed, "malformed dataset JSON")
	}
	if ds.ConferenceInfo.Name == "" {
		return nil, errors.New(errors.CodeDatasetInvalid, "dataset missing conferenceInfo.name")
	}

	if ds.GlobalStats.Countries == nil {
		ds.GlobalStats.Countries = []CountryRecord{}
	}
	if ds.FocusCountry.Institutions == nil {
		ds.FocusCountry.Institutions = []InstitutionRecord{}
	}
	if ds.Configuration.CountryMap == nil {
		ds.Configuration.CountryMap = map[string]string{}
	}

	cs := &ds.Configuration.ColorScheme
	if cs.US == "" {
		cs.US = "#1f77b4"
	}
	if cs.China == "" {
		cs.China = "#d62728"
	}
	if cs.Focus == "" {
		cs.Focus = "#ff7f0e"
	}
	if cs.Rest == "" {
		cs.Rest = "#7f7f7f"
	}
	if len(cs.Palette) == 0 {
		cs.Palette = append([]string(nil), defaultPalette...)
	}

	return ds, nil
}
