package commands

import (
	"github.com/piwi3910/LotiSmart/internal/engine"
	"github.com/piwi3910/LotiSmart/internal/importer"
	"github.com/piwi3910/LotiSmart/internal/printer"
	"github.com/piwi3910/LotiSmart/internal/service"
	"github.com/spf13/cobra"
)

func newCompareCmd(root *rootOptions) *cobra.Command {
	var areas []float64

	cmd := &cobra.Command{
		Use:   "compare FILE",
		Short: "Compare lot counts for several minimum areas",
		Long: `Partition the same parcel with several settings and print the lot count
and coverage of each. Without --areas the current settings are compared with
half and double the lot area and the other boundary policy.

Comparison runs are not recorded in the history log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			imported := importer.ImportFile(path)
			if err := imported.Err(); err != nil {
				return printer.ErrorWithContext("cannot read parcel", err.Error(),
					map[string]string{"File": path}, nil)
			}

			svc := service.New(root.config, nil)
			base := svc.Settings()
			for _, a := range areas {
				if err := svc.ValidateMinArea(a); err != nil {
					return printer.Error("invalid minimum lot area", err.Error(), nil)
				}
			}
			var scenarios []engine.ComparisonScenario
			if len(areas) > 0 {
				scenarios = engine.BuildAreaScenarios(base, areas)
			} else {
				scenarios = engine.BuildDefaultScenarios(base)
			}

			results, err := engine.CompareScenarios(cmd.Context(), scenarios, imported.Regions)
			if err != nil {
				return printer.Error("comparison failed", err.Error(), nil)
			}

			printer.Heading("%-32s  %6s  %8s  %9s", "Scenario", "Lots", "Squares", "Coverage")
			for _, r := range results {
				if r.Err != nil {
					printer.Printf("%-32s  %s\n", r.Scenario.Name, firstLine(r.Err.Error()))
					continue
				}
				printer.Printf("%-32s  %6d  %8d  %8.1f%%\n", r.Scenario.Name, r.LotCount, r.Capacity, r.CoveragePercent)
			}
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&areas, "areas", nil, "Comma-separated minimum areas, e.g. 100,150,200")
	return cmd
}
