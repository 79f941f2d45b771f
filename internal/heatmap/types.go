// internal/heatmap/types.go - Core heatmap data model
package heatmap

import (
	"github.com/paulmach/orb"

	"trip-heatmap/internal"
)

// MapPoint is a geographic coordinate. The wire names follow the query API.
type MapPoint struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Rectangle is an axis-aligned geographic rectangle. After Normalize the
// invariant holds: TopLeft.Lat >= BottomRight.Lat and
// TopLeft.Long <= BottomRight.Long (TopLeft is the north-west corner).
type Rectangle struct {
	TopLeft     MapPoint `json:"topLeft"`
	BottomRight MapPoint `json:"bottomRight"`
}

// AggregateTile is one grid cell with its aggregated observation count and
// the smoothing spill-over contributed by adjacent cells.
type AggregateTile struct {
	TopLeft       MapPoint `json:"topLeft"`
	BottomRight   MapPoint `json:"bottomRight"`
	Count         float64  `json:"count"`
	NeighborCount float64  `json:"neighborCount"`
}

// ResultSet is one named collection of aggregate tiles
type ResultSet struct {
	Data []AggregateTile `json:"data"`
}

// Result maps result-set names to their tiles, as returned by the query
// endpoint. A response carries one entry per requested map kind.
type Result map[string]ResultSet

// TileQuery describes a single aggregate map request. Optional filter fields
// are nil when the corresponding filter was not supplied; a non-nil empty
// DaysOfWeek slice means "filter on the empty set", which is distinct from
// absent. A TileQuery is never mutated after construction.
type TileQuery struct {
	Area       Rectangle        `json:"area"`
	TileWidth  float64          `json:"tileWidth"`
	TileHeight float64          `json:"tileHeight"`
	TimeStart  *string          `json:"timeStart,omitempty"`
	TimeEnd    *string          `json:"timeEnd,omitempty"`
	DateStart  *string          `json:"dateStart,omitempty"`
	DateEnd    *string          `json:"dateEnd,omitempty"`
	DaysOfWeek []int            `json:"daysOfWeek"`
	Kind       internal.MapKind `json:"kind"`
}

// Bound converts the rectangle to an orb.Bound regardless of corner order
func (r Rectangle) Bound() orb.Bound {
	b := orb.Bound{
		Min: orb.Point{r.TopLeft.Long, r.BottomRight.Lat},
		Max: orb.Point{r.BottomRight.Long, r.TopLeft.Lat},
	}
	if b.Min[0] > b.Max[0] {
		b.Min[0], b.Max[0] = b.Max[0], b.Min[0]
	}
	if b.Min[1] > b.Max[1] {
		b.Min[1], b.Max[1] = b.Max[1], b.Min[1]
	}
	return b
}

// Bound converts the tile footprint to an orb.Bound
func (t AggregateTile) Bound() orb.Bound {
	return Rectangle{TopLeft: t.TopLeft, BottomRight: t.BottomRight}.Bound()
}

// Tiles flattens all result sets into a single slice
func (r Result) Tiles() []AggregateTile {
	var tiles []AggregateTile
	for _, set := range r {
		tiles = append(tiles, set.Data...)
	}
	return tiles
}
