// internal/client/types.go - Tile source interfaces
package client

import (
	"context"

	"trip-heatmap/internal/heatmap"
)

// Source retrieves aggregate tiles for a query. Implementations must return
// an empty slice, not an error, for degenerate queries.
type Source interface {
	// Query resolves a tile query into its aggregate tiles
	Query(ctx context.Context, query *heatmap.TileQuery) ([]heatmap.AggregateTile, error)
}
