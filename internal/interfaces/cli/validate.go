package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/domain/analytics"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
)

var (
	validateConference string
	validateYear       int
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a dataset and report data-quality findings",
	Long: `validate decodes a dataset and reports findings the pipeline tolerates
but never repairs: malformed multi-value country codes, suspected duplicate
institution names, and inconsistent authorship counters.  The exit status is
non-zero only when the dataset cannot be decoded at all.

The dataset is read from the given file, or from the configured store when
--conference and --year are set instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := validateInput(cmd, args)
		if err != nil {
			return err
		}
		ds, err := analytics.DecodeDataset(data)
		if err != nil {
			return err
		}

		focus := "IN"
		if cfg, err := loadConfig(); err == nil {
			focus = cfg.Dashboard.FocusCountry
		}
		report(cmd, ds, focus)
		return nil
	},
}

func validateInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	if validateConference == "" || validateYear == 0 {
		return nil, fmt.Errorf("either a dataset file or --conference and --year is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := buildStore(cmd.Context(), cfg, logging.NewNopLogger())
	if err != nil {
		return nil, err
	}
	return store.Get(cmd.Context(),
		storage.DatasetKey{Conference: validateConference, Year: validateYear})
}

func init() {
	validateCmd.Flags().StringVar(&validateConference, "conference", "", "conference name, e.g. iclr")
	validateCmd.Flags().IntVar(&validateYear, "year", 0, "conference year")
	rootCmd.AddCommand(validateCmd)
}

func report(cmd *cobra.Command, ds *analytics.Dataset, focusCode string) {
	agg := analytics.AggregateCountries(ds.GlobalStats.Countries, ds.Configuration.CountryMap, focusCode)

	var rawPapers, aggPapers int
	for _, r := range ds.GlobalStats.Countries {
		rawPapers += r.PaperCount
	}
	for _, r := range agg {
		aggPapers += r.PaperCount
	}

	cmd.Printf("dataset %s %d: %d raw country rows, %d aggregated, %d papers\n",
		ds.ConferenceInfo.Name, ds.ConferenceInfo.Year, len(ds.GlobalStats.Countries), len(agg), aggPapers)
	if rawPapers != aggPapers {
		cmd.Printf("ERROR: paper counts changed during aggregation: %d -> %d\n", rawPapers, aggPapers)
	}

	for _, r := range ds.GlobalStats.Countries {
		if strings.ContainsAny(r.AffiliationCountry, ";, ") {
			cmd.Printf("finding: malformed country code %q kept as an opaque row\n", r.AffiliationCountry)
		}
	}

	fc := ds.FocusCountry
	if fc.MajorityAuthors.Count > fc.AtLeastOneAuthor.Count {
		cmd.Printf("finding: majority-author count %d exceeds at-least-one count %d; charts clamp the difference\n",
			fc.MajorityAuthors.Count, fc.AtLeastOneAuthor.Count)
	}
	if fc.FirstAuthor.Count > fc.AtLeastOneAuthor.Count {
		cmd.Printf("finding: first-author count %d exceeds at-least-one count %d; charts clamp the difference\n",
			fc.FirstAuthor.Count, fc.AtLeastOneAuthor.Count)
	}

	pairs := analytics.SuspectedDuplicateInstitutes(fc.Institutions)
	for _, p := range pairs {
		cmd.Printf("finding: possible duplicate institutions: %q / %q\n", p[0], p[1])
	}
	if len(pairs) > 0 {
		cmd.Println("note: near-duplicate institutions are never merged automatically; fix them upstream")
	}
}
