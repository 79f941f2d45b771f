// internal/client/local.go - Local generator tile source
package client

import (
	"context"

	"trip-heatmap/internal/config"
	"trip-heatmap/internal/grid"
	"trip-heatmap/internal/heatmap"
	"trip-heatmap/internal/metrics"
)

// LocalSource serves tiles from the in-process reference generator, with no
// network dependency. Useful for development and offline demos.
type LocalSource struct {
	generator *grid.Generator
}

// NewLocalSource creates a generator-backed tile source from configuration
func NewLocalSource(cfg *config.Config) *LocalSource {
	var gen *grid.Generator
	if cfg.Source.Seeded {
		gen = grid.NewSeededGenerator(cfg.Source.MaxCount, cfg.Source.Seed)
	} else {
		gen = grid.NewGenerator(cfg.Source.MaxCount)
	}
	return &LocalSource{generator: gen}
}

// Query generates one tile per aligned grid cell of the query
func (s *LocalSource) Query(ctx context.Context, query *heatmap.TileQuery) ([]heatmap.AggregateTile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tiles := s.generator.Generate(query)
	metrics.TilesReturned.Observe(float64(len(tiles)))
	return tiles, nil
}
