package analytics

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// WriteCountriesCSV flattens an aggregated country table to CSV.  Field
// quoting (embedded commas, quotes) is handled by encoding/csv.
func WriteCountriesCSV(w io.Writer, countries []CountryRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"rank", "country_code", "country_name",
		"paper_count", "author_count", "spotlights", "orals",
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "failed to write CSV header")
	}
	for _, c := range countries {
		row := []string{
			strconv.Itoa(c.Rank),
			c.AffiliationCountry,
			c.CountryName,
			strconv.Itoa(c.PaperCount),
			strconv.Itoa(c.AuthorCount),
			strconv.Itoa(c.Spotlights),
			strconv.Itoa(c.Orals),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, errors.CodeExportFailed, "failed to write CSV row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "failed to flush CSV")
	}
	return nil
}

// WriteInstitutionsCSV flattens an institution table to CSV.
func WriteInstitutionsCSV(w io.Writer, insts []InstitutionRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"institute", "type", "unique_paper_count", "total_paper_count",
		"author_count", "spotlights", "orals",
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "failed to write CSV header")
	}
	for _, inst := range insts {
		row := []string{
			inst.Institute,
			string(inst.Type),
			strconv.Itoa(inst.UniquePaperCount),
			strconv.Itoa(inst.TotalPaperCount),
			strconv.Itoa(inst.AuthorCount),
			strconv.Itoa(inst.Spotlights),
			strconv.Itoa(inst.Orals),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, errors.CodeExportFailed, "failed to write CSV row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "failed to flush CSV")
	}
	return nil
}
