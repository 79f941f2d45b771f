// cmd/fetch.go - One-shot fetch command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trip-heatmap/internal/client"
	"trip-heatmap/internal/config"
	"trip-heatmap/internal/render"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one query/render cycle and write the overlay",
	Long: `Fetch runs the query pipeline once: the configured viewport is normalized,
tiled, queried against the configured source, rendered through the color
scale, and written to the output destination.

Examples:
  # Fetch from a server to stdout
  trip-heatmap fetch --base-url http://localhost:8080 --lat1 50.5 --lon1 30.4 --lat2 50.3 --lon2 30.7

  # Fetch from the local generator into a file
  trip-heatmap fetch --lat1 1 --lon1 0 --lat2 0 --lon2 1 --count-x 4 --count-y 4 -o overlay.geojson

  # Restrict to morning rush hour
  trip-heatmap fetch --base-url http://localhost:8080 --time-start 07:00 --time-end 10:00 ...`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
	fetchCmd.Flags().String("time-start", "", "time-of-day filter start (HH:MM, inclusive)")
	fetchCmd.Flags().String("time-end", "", "time-of-day filter end (HH:MM, exclusive)")
	fetchCmd.Flags().String("date-start", "", "date filter start (YYYY-MM-DD)")
	fetchCmd.Flags().String("date-end", "", "date filter end (YYYY-MM-DD)")
	fetchCmd.Flags().IntSlice("days", nil, "day-of-week filter (0=Sunday .. 6=Saturday)")

	bindFilterFlags(fetchCmd)
}

// bindFilterFlags maps the shared filter flags into viper
func bindFilterFlags(cmd *cobra.Command) {
	bind := map[string]string{
		"filter.time_start":   "time-start",
		"filter.time_end":     "time-end",
		"filter.date_start":   "date-start",
		"filter.date_end":     "date-end",
		"filter.days_of_week": "days",
	}
	for key, flag := range bind {
		if f := cmd.Flags().Lookup(flag); f != nil {
			viperBind(key, cmd, flag)
		}
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	query, err := buildQuery(cfg)
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	source, err := client.NewSourceFactory(cfg).CreateSource()
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	cfgCopy := *cfg
	if outputPath != "" {
		cfgCopy.Output.Filename = outputPath
		cfgCopy.Output.Stdout = false
		cfgCopy.Output.Directory = ""
	}
	writer, err := frameWriter(&cfgCopy, "")
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	renderer := render.NewRenderer(colorScale(cfg))
	snapshot, err := runCycle(ctx, source, renderer, writer, query, nil)
	if err != nil {
		return err
	}
	snapshot.Release()
	return nil
}
