// internal/grid/generate.go - Reference tile generator
package grid

import (
	"math/rand"

	"trip-heatmap/internal/heatmap"
)

// Generator produces placeholder aggregate tiles for an aligned grid. It
// stands in for the query endpoint during development and in tests; the
// counts are random and carry no neighbor spill. The renderer contract it
// honors is only that both fields are present and non-negative.
type Generator struct {
	maxCount int
	rand     *rand.Rand
}

// NewGenerator creates a generator with the given count ceiling
func NewGenerator(maxCount int) *Generator {
	return &Generator{
		maxCount: maxCount,
		rand:     rand.New(rand.NewSource(rand.Int63())),
	}
}

// NewSeededGenerator creates a generator with a fixed seed for reproducible output
func NewSeededGenerator(maxCount int, seed int64) *Generator {
	return &Generator{
		maxCount: maxCount,
		rand:     rand.New(rand.NewSource(seed)),
	}
}

// Generate emits one aggregate tile per aligned grid cell of the query.
// Degenerate queries produce an empty tile collection, not an error.
func (g *Generator) Generate(query *heatmap.TileQuery) []heatmap.AggregateTile {
	cells := Align(query.Area, query.TileWidth, query.TileHeight)

	tiles := make([]heatmap.AggregateTile, 0, len(cells))
	for _, cell := range cells {
		tiles = append(tiles, heatmap.AggregateTile{
			TopLeft:       cell.TopLeft,
			BottomRight:   cell.BottomRight,
			Count:         float64(g.rand.Intn(g.maxCount + 1)),
			NeighborCount: 0,
		})
	}

	return tiles
}
