// cmd/pipeline.go - Shared query/render pipeline assembly
package cmd

import (
	"context"
	"fmt"
	"time"

	"trip-heatmap/internal/client"
	"trip-heatmap/internal/config"
	"trip-heatmap/internal/heatmap"
	"trip-heatmap/internal/output"
	"trip-heatmap/internal/render"
)

const dateLayout = "2006-01-02"

// viewportRectangle normalizes the configured viewport corners
func viewportRectangle(cfg *config.Config) heatmap.Rectangle {
	return heatmap.Normalize(
		heatmap.MapPoint{Lat: cfg.Viewport.Lat1, Long: cfg.Viewport.Lon1},
		heatmap.MapPoint{Lat: cfg.Viewport.Lat2, Long: cfg.Viewport.Lon2},
	)
}

// buildFilter converts the configured filter strings to a query filter.
// Returns nil when no filter field is set.
func buildFilter(cfg *config.Config) (*heatmap.Filter, error) {
	f := cfg.Filter
	if f.TimeStart == "" && f.DateStart == "" && len(f.DaysOfWeek) == 0 {
		return nil, nil
	}

	filter := &heatmap.Filter{}
	if f.TimeStart != "" {
		start, end := f.TimeStart, f.TimeEnd
		filter.TimeStart = &start
		filter.TimeEnd = &end
	}
	if f.DateStart != "" {
		start, err := time.Parse(dateLayout, f.DateStart)
		if err != nil {
			return nil, fmt.Errorf("invalid date_start: %w", err)
		}
		end, err := time.Parse(dateLayout, f.DateEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid date_end: %w", err)
		}
		filter.DateStart = &start
		filter.DateEnd = &end
	}
	if len(f.DaysOfWeek) > 0 {
		filter.DaysOfWeek = f.DaysOfWeek
	}
	return filter, nil
}

// buildQuery assembles the tile query from configuration
func buildQuery(cfg *config.Config) (*heatmap.TileQuery, error) {
	filter, err := buildFilter(cfg)
	if err != nil {
		return nil, err
	}
	return heatmap.BuildTileQuery(viewportRectangle(cfg), cfg.Grid.CountX, cfg.Grid.CountY, filter, cfg.MapKind())
}

// colorScale builds the render scale from configuration
func colorScale(cfg *config.Config) render.ColorScale {
	scale := render.DefaultScale()
	scale.Epsilon = cfg.Color.Epsilon
	scale.NeighborWeight = cfg.Color.NeighborWeight
	scale.Mode = render.ThresholdMode(cfg.Color.ThresholdMode)
	scale.AbsoluteCutoff = cfg.Color.AbsoluteCutoff
	return scale
}

// frameWriter builds the output writer from configuration. A directory
// destination produces timestamped per-frame files; a filename a single
// replaced file; neither, stdout.
func frameWriter(cfg *config.Config, directory string) (output.Writer, error) {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	wc := &output.WriterConfig{
		Format: format,
		Pretty: cfg.Output.Pretty,
		Stats:  true,
	}

	if directory == "" {
		directory = cfg.Output.Directory
	}
	if directory != "" {
		return output.NewWriter(wc, directory, true)
	}
	if cfg.Output.Filename != "" && !cfg.Output.Stdout {
		return output.NewWriter(wc, cfg.Output.Filename, false)
	}
	return output.NewWriter(wc, "", false)
}

// runCycle executes one query/render cycle and writes the resulting frame.
// The previous snapshot, if any, is released by the render step.
func runCycle(ctx context.Context, src client.Source, renderer *render.Renderer,
	writer output.Writer, query *heatmap.TileQuery, prev *render.Snapshot) (*render.Snapshot, error) {

	tiles, err := src.Query(ctx, query)
	if err != nil {
		return prev, fmt.Errorf("tile query failed: %w", err)
	}

	snapshot := renderer.Render(prev, tiles)
	frame := &output.Frame{
		Query:    query,
		Tiles:    tiles,
		Snapshot: snapshot,
		At:       time.Now(),
	}
	if err := writer.Write(frame); err != nil {
		return snapshot, fmt.Errorf("frame write failed: %w", err)
	}
	return snapshot, nil
}
