package analytics

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCountriesCSV(t *testing.T) {
	agg := AggregateCountries([]CountryRecord{
		{AffiliationCountry: "US", PaperCount: 2, AuthorCount: 5, Spotlights: 1},
		{AffiliationCountry: "IN", PaperCount: 1, AuthorCount: 3},
	}, ukLookup, "IN")

	var buf bytes.Buffer
	require.NoError(t, WriteCountriesCSV(&buf, agg))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"rank", "country_code", "country_name", "paper_count", "author_count", "spotlights", "orals"}, rows[0])
	assert.Equal(t, []string{"1", "US", "United States", "2", "5", "1", "0"}, rows[1])
	assert.Equal(t, []string{"2", "IN", "India", "1", "3", "0", "0"}, rows[2])
}

func TestWriteInstitutionsCSVQuotesEmbeddedCommas(t *testing.T) {
	insts := []InstitutionRecord{
		{Institute: "Indian Institute of Technology, Bombay", UniquePaperCount: 14, Type: InstitutionAcademic},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInstitutionsCSV(&buf, insts))

	out := buf.String()
	assert.True(t, strings.Contains(out, `"Indian Institute of Technology, Bombay"`),
		"names with commas must be quoted")

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Indian Institute of Technology, Bombay", rows[1][0])
}

func TestWriteCountriesCSVEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCountriesCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
