// cmd/serve.go - Aggregate map server command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trip-heatmap/internal/config"
	"trip-heatmap/internal/server"
	"trip-heatmap/internal/store"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the aggregate map server",
	Long: `Serve runs the aggregate map API over a SQLite point database:

  GET  /api/heatmap/     observation counts per tile
  GET  /api/trafficmap/  counts with 8-neighbor spill
  GET  /api/speedmap/    average speeds per tile
  POST /api/points/      bulk point ingestion
  GET  /api/anomalies/   anomalous routes grouped by trip
  GET  /metrics          prometheus instruments

Examples:
  trip-heatmap serve --db trips.db --listen :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("db", "trips.db", "path to the SQLite point database")
	serveCmd.Flags().String("listen", ":8080", "listen address")

	viperBind("store.path", serveCmd, "db")
	viperBind("listen.address", serveCmd, "listen")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	return server.New(st).Run(cfg.Listen.Address)
}
