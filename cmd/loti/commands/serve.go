package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/LotiSmart/internal/printer"
	"github.com/piwi3910/LotiSmart/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the partition HTTP API",
		Long: `Start an HTTP server exposing:

  POST /api/partition   GeoJSON parcel in, GeoJSON lots out
  GET  /api/history     recorded runs
  GET  /healthz         liveness
  GET  /metrics         Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := root.openService(ctx, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			printer.Info("Listening on %s\n", addr)
			if err := server.New(svc).ListenAndServe(ctx, addr); err != nil {
				return printer.Error("server stopped", err.Error(), nil)
			}
			printer.Success("Server stopped\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}
