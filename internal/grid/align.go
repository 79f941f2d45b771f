// internal/grid/align.go - Grid alignment algorithm
package grid

import (
	"math"

	"trip-heatmap/internal/heatmap"
)

// Cell is one grid cell footprint with canonical corners (TopLeft is the
// north-west corner regardless of the step signs used to produce it).
type Cell struct {
	TopLeft     heatmap.MapPoint
	BottomRight heatmap.MapPoint
}

// AlignedStart snaps a coordinate onto the absolute grid defined by the step
// size: the nearest multiple of step at or before value for a positive step,
// at or after it for a negative step. Alignment to absolute multiples keeps
// tile boundaries identical across queries that share a tile size, so
// successive refreshes over a moving viewport produce cells at stable
// positions.
func AlignedStart(value, step float64) float64 {
	if step > 0 {
		return math.Floor(value/step) * step
	}
	return math.Ceil(value/step) * step
}

// MaxCells bounds the total cell count of one aligned walk. A step small
// enough to exceed the budget can fall below the float resolution of the
// coordinates, where an accumulating walk would never advance; such queries
// yield no cells instead.
const MaxCells = 1 << 20

// Align returns every aligned grid cell overlapping the rectangle, walking
// by cell index so sub-resolution steps terminate. Steps are signed: a
// negative step produces the same cell set as its positive counterpart.
// Corner pairs are normalized internally, so callers may pass an
// unnormalized rectangle. Zero steps and grids over the MaxCells budget are
// degenerate and yield no cells.
func Align(area heatmap.Rectangle, tileWidth, tileHeight float64) []Cell {
	tileWidth = math.Abs(tileWidth)
	tileHeight = math.Abs(tileHeight)
	if tileWidth == 0 || tileHeight == 0 {
		return nil
	}

	latMin, latMax := minMax(area.TopLeft.Lat, area.BottomRight.Lat)
	lngMin, lngMax := minMax(area.TopLeft.Long, area.BottomRight.Long)

	latOrigin := AlignedStart(latMin, tileHeight)
	lngOrigin := AlignedStart(lngMin, tileWidth)

	rows := axisCells(latOrigin, latMax, tileHeight)
	cols := axisCells(lngOrigin, lngMax, tileWidth)
	if rows == 0 || cols == 0 || rows > MaxCells/cols {
		return nil
	}

	// Edge cells partially overlapping the boundary are kept in full, so the
	// grid always covers the requested area, possibly overshooting at the
	// edges.
	cells := make([]Cell, 0, rows*cols)
	for r := 0; r < rows; r++ {
		cellLatMin := latOrigin + float64(r)*tileHeight
		for c := 0; c < cols; c++ {
			cellLngMin := lngOrigin + float64(c)*tileWidth
			cells = append(cells, Cell{
				TopLeft:     heatmap.MapPoint{Lat: cellLatMin + tileHeight, Long: cellLngMin},
				BottomRight: heatmap.MapPoint{Lat: cellLatMin, Long: cellLngMin + tileWidth},
			})
		}
	}

	return cells
}

// WithinBudget reports whether the aligned grid over the rectangle stays
// inside the MaxCells budget. Degenerate grids trivially fit.
func WithinBudget(area heatmap.Rectangle, tileWidth, tileHeight float64) bool {
	tileWidth = math.Abs(tileWidth)
	tileHeight = math.Abs(tileHeight)
	if tileWidth == 0 || tileHeight == 0 {
		return true
	}

	bound := area.Bound()
	rows := axisCells(AlignedStart(bound.Min[1], tileHeight), bound.Max[1], tileHeight)
	cols := axisCells(AlignedStart(bound.Min[0], tileWidth), bound.Max[0], tileWidth)
	return rows == 0 || cols == 0 || rows <= MaxCells/cols
}

// axisCells counts aligned cells from origin up to end for a positive step.
// Returns 0 for an empty or non-finite span and MaxCells+1 for a span over
// the budget, so callers reject it before allocating.
func axisCells(origin, end, step float64) int {
	span := (end - origin) / step
	if !(span > 0) {
		return 0
	}
	if span > MaxCells {
		return MaxCells + 1
	}
	n := math.Floor(span)
	// A span a hair above a whole cell count is boundary noise, not another
	// cell.
	if span-n > 1e-9 {
		n++
	}
	return int(n)
}

// minMax orders two values
func minMax(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
