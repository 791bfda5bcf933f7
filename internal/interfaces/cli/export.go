package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/application/dashboard"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/cache/redis"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
)

var (
	exportConference string
	exportYear       int
	exportKind       string
	exportOut        string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one dataset table as CSV",
	Example: `  trackerctl export --conference iclr --year 2025 --kind countries
  trackerctl export --conference iclr --year 2025 --kind institutions -o institutions.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := buildStore(cmd.Context(), cfg, logging.NewNopLogger())
		if err != nil {
			return err
		}
		svc := dashboard.NewService(store, redis.NopCache{}, nil, logging.NewNopLogger(), nil,
			dashboard.Options{
				FocusCountry: cfg.Dashboard.FocusCountry,
				DefaultTopN:  cfg.Dashboard.DefaultTopN,
			})

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		key := storage.DatasetKey{Conference: exportConference, Year: exportYear}
		return svc.ExportCSV(cmd.Context(), key, exportKind, out)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportConference, "conference", "", "conference name, e.g. iclr")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "conference year")
	exportCmd.Flags().StringVar(&exportKind, "kind", dashboard.ExportCountries,
		"table to export: countries or institutions")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("conference")
	_ = exportCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(exportCmd)
}
