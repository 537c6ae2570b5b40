package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/piwi3910/LotiSmart/internal/history"
	"github.com/piwi3910/LotiSmart/internal/logger"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/piwi3910/LotiSmart/internal/printer"
	"github.com/piwi3910/LotiSmart/internal/project"
	"github.com/piwi3910/LotiSmart/internal/service"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information reported by "loti version".
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

// Execute builds the command tree and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	config     model.AppConfig
}

// NewRootCmd returns a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "loti",
		Short: "LotiSmart - split land parcels into square lots",
		Long: `LotiSmart partitions a parcel polygon into a grid of equal square lots
that each lie fully inside the parcel.

Parcels are read from GeoJSON, shapefiles (.shp or zipped), KML/KMZ, DXF
drawings and CSV/Excel vertex tables. Every run is recorded in the run
history (CSV file, Postgres or Redis).`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(".env")
			logger.Setup()

			cfg, err := project.LoadEffectiveConfig(opts.configPath)
			if err != nil {
				return printer.ErrorWithContext(
					"invalid configuration",
					err.Error(),
					map[string]string{"Config": opts.configPath},
					[]string{"Fix the config file or the LOTISMART_* environment variables"},
				)
			}
			opts.config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", project.DefaultConfigPath(), "Path to the config file")

	root.AddCommand(
		newPartitionCmd(opts),
		newHistoryCmd(opts),
		newCompareCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return root
}

// openService connects the configured history log. With noHistory the run is
// not recorded.
func (o *rootOptions) openService(ctx context.Context, noHistory bool) (*service.Service, error) {
	if noHistory {
		return service.New(o.config, nil), nil
	}
	log, err := history.Open(ctx, o.config.History)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"history log unavailable",
			err.Error(),
			map[string]string{"Backend": o.config.History.Backend},
			[]string{
				"Check the history settings in " + o.configPath,
				"Run with --no-history to skip recording",
			},
		)
	}
	return service.New(o.config, log), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			printer.Printf("loti %s\n", fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
		},
	}
}
