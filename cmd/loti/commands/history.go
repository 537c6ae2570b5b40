package commands

import (
	"encoding/json"

	"github.com/piwi3910/LotiSmart/internal/printer"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded partition runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := root.openService(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			runs, err := svc.Runs(cmd.Context())
			if err != nil {
				return printer.Error("cannot read history", err.Error(), nil)
			}

			if asJSON {
				data, err := json.MarshalIndent(runs, "", "  ")
				if err != nil {
					return err
				}
				printer.Printf("%s\n", data)
				return nil
			}

			if len(runs) == 0 {
				printer.Info("No runs recorded yet.\n")
				return nil
			}
			printer.Heading("%-20s  %-30s  %10s  %6s", "Date", "File", "Min area", "Lots")
			for _, r := range runs {
				printer.Printf("%-20s  %-30s  %10.1f  %6d\n",
					r.Timestamp.Local().Format("2006-01-02 15:04:05"), truncate(r.Source, 30), r.MinArea, r.LotCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
