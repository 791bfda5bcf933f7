package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/domain/analytics"
)

func TestValidateReportFindings(t *testing.T) {
	ds, err := analytics.DecodeDataset([]byte(`{
	  "conferenceInfo": {"name": "ICLR", "year": 2025},
	  "globalStats": {"countries": [
	    {"affiliation_country": "US", "paper_count": 5},
	    {"affiliation_country": "AU; SG", "paper_count": 1}
	  ]},
	  "focusCountry": {
	    "country_name": "India",
	    "at_least_one_focus_country_author": {"count": 2},
	    "majority_focus_country_authors": {"count": 3},
	    "first_focus_country_author": {"count": 1},
	    "institutions": [
	      {"institute": "IIT Bombay"},
	      {"institute": "IIT Bombay, Powai Campus"}
	    ]
	  },
	  "configuration": {"countryMap": {"US": "United States"}}
	}`))
	require.NoError(t, err)

	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	report(cmd, ds, "IN")
	out := buf.String()

	assert.Contains(t, out, `malformed country code "AU; SG"`)
	assert.Contains(t, out, "majority-author count 3 exceeds at-least-one count 2")
	assert.Contains(t, out, "possible duplicate institutions")
	assert.NotContains(t, out, "ERROR", "aggregation must conserve paper counts")
}
