// cmd/import.go - Point import command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"trip-heatmap/internal/config"
	"trip-heatmap/internal/store"
)

// importChunkSize bounds the transaction size of one insert batch
const importChunkSize = 500

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load recorded points into the server database",
	Long: `Import reads a JSON file of recorded GPS points and loads them into the
SQLite database used by the serve command. The file holds either a bare
array of points or an object with a "points" array, matching the POST
/api/points/ payload.

Examples:
  trip-heatmap import points.json --db trips.db
  trip-heatmap import flagged.json --db trips.db --anomaly`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("db", "trips.db", "path to the SQLite point database")
	importCmd.Flags().Bool("anomaly", false, "mark all imported points as anomalous")

	viperBind("store.path", importCmd, "db")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	points, err := readPointFile(args[0])
	if err != nil {
		return err
	}
	if anomaly, _ := cmd.Flags().GetBool("anomaly"); anomaly {
		for i := range points {
			points[i].Anomaly = true
		}
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	for start := 0; start < len(points); start += importChunkSize {
		end := start + importChunkSize
		if end > len(points) {
			end = len(points)
		}
		if err := st.InsertBatch(ctx, points[start:end]); err != nil {
			return fmt.Errorf("import failed at point %d: %w", start, err)
		}
	}

	log.WithField("points", len(points)).Info("import complete")
	return nil
}

// readPointFile parses a point file in either supported shape
func readPointFile(path string) ([]store.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var wrapped struct {
		Points []store.Point `json:"points"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Points != nil {
		return wrapped.Points, nil
	}

	var bare []store.Point
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("%s is neither a point array nor a points object: %w", path, err)
	}
	return bare, nil
}
