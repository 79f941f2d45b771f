// internal/grid/aggregate.go - Observation aggregation onto the aligned grid
package grid

import (
	"math"

	"trip-heatmap/internal/heatmap"
)

// Observation is one GPS sample relevant to aggregation
type Observation struct {
	Lat   float64
	Long  float64
	Speed float64
}

// raster is the aligned grid laid over a rectangle, with per-cell buckets
type raster struct {
	latOrigin float64
	lngOrigin float64
	tileW     float64
	tileH     float64
	rows      int
	cols      int
	counts    []int
	speedSums []float64
}

// newRaster builds the bucket grid for a normalized area and positive steps
func newRaster(area heatmap.Rectangle, tileWidth, tileHeight float64) *raster {
	tileWidth = math.Abs(tileWidth)
	tileHeight = math.Abs(tileHeight)
	if tileWidth == 0 || tileHeight == 0 {
		return nil
	}

	bound := area.Bound()
	latOrigin := AlignedStart(bound.Min[1], tileHeight)
	lngOrigin := AlignedStart(bound.Min[0], tileWidth)

	rows := axisCells(latOrigin, bound.Max[1], tileHeight)
	cols := axisCells(lngOrigin, bound.Max[0], tileWidth)
	if rows == 0 || cols == 0 || rows > MaxCells/cols {
		return nil
	}

	return &raster{
		latOrigin: latOrigin,
		lngOrigin: lngOrigin,
		tileW:     tileWidth,
		tileH:     tileHeight,
		rows:      rows,
		cols:      cols,
		counts:    make([]int, rows*cols),
		speedSums: make([]float64, rows*cols),
	}
}

// add buckets one observation, clamping edge samples into the border cells
func (g *raster) add(obs Observation) {
	r := int(math.Floor((obs.Lat - g.latOrigin) / g.tileH))
	c := int(math.Floor((obs.Long - g.lngOrigin) / g.tileW))

	if r < 0 {
		r = 0
	}
	if c < 0 {
		c = 0
	}
	if r >= g.rows {
		r = g.rows - 1
	}
	if c >= g.cols {
		c = g.cols - 1
	}

	idx := r*g.cols + c
	g.counts[idx]++
	g.speedSums[idx] += obs.Speed
}

// neighborTotals sums counts and speed sums over the 8 surrounding cells
func (g *raster) neighborTotals(r, c int) (count int, speedSum float64) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := r+dr, c+dc
			if nr < 0 || nr >= g.rows || nc < 0 || nc >= g.cols {
				continue
			}
			idx := nr*g.cols + nc
			count += g.counts[idx]
			speedSum += g.speedSums[idx]
		}
	}
	return count, speedSum
}

// cellCorners returns the canonical corners of cell (r, c)
func (g *raster) cellCorners(r, c int) (topLeft, bottomRight heatmap.MapPoint) {
	latMin := g.latOrigin + float64(r)*g.tileH
	lngMin := g.lngOrigin + float64(c)*g.tileW
	topLeft = heatmap.MapPoint{Lat: latMin + g.tileH, Long: lngMin}
	bottomRight = heatmap.MapPoint{Lat: latMin, Long: lngMin + g.tileW}
	return topLeft, bottomRight
}

// AggregateCounts buckets observations into the aligned grid over the area
// and emits one tile per cell carrying its own count. Cells with neither own
// nor neighbor signal are omitted. A degenerate grid yields an empty slice.
func AggregateCounts(observations []Observation, area heatmap.Rectangle, tileWidth, tileHeight float64) []heatmap.AggregateTile {
	g := newRaster(area, tileWidth, tileHeight)
	if g == nil {
		return []heatmap.AggregateTile{}
	}

	for _, obs := range observations {
		g.add(obs)
	}

	tiles := make([]heatmap.AggregateTile, 0, len(g.counts))
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			count := g.counts[r*g.cols+c]
			neighborCount, _ := g.neighborTotals(r, c)
			if count == 0 && neighborCount == 0 {
				continue
			}

			topLeft, bottomRight := g.cellCorners(r, c)
			tiles = append(tiles, heatmap.AggregateTile{
				TopLeft:       topLeft,
				BottomRight:   bottomRight,
				Count:         float64(count),
				NeighborCount: float64(neighborCount),
			})
		}
	}

	return tiles
}

// AggregateSpeeds buckets observations into the aligned grid and emits one
// tile per cell carrying the average observed speed, with the neighbor field
// holding the average over the 8 surrounding cells' samples.
func AggregateSpeeds(observations []Observation, area heatmap.Rectangle, tileWidth, tileHeight float64) []heatmap.AggregateTile {
	g := newRaster(area, tileWidth, tileHeight)
	if g == nil {
		return []heatmap.AggregateTile{}
	}

	for _, obs := range observations {
		g.add(obs)
	}

	tiles := make([]heatmap.AggregateTile, 0, len(g.counts))
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			idx := r*g.cols + c
			count := g.counts[idx]
			neighborCount, neighborSum := g.neighborTotals(r, c)
			if count == 0 && neighborCount == 0 {
				continue
			}

			avg := 0.0
			if count > 0 {
				avg = g.speedSums[idx] / float64(count)
			}
			neighborAvg := 0.0
			if neighborCount > 0 {
				neighborAvg = neighborSum / float64(neighborCount)
			}

			topLeft, bottomRight := g.cellCorners(r, c)
			tiles = append(tiles, heatmap.AggregateTile{
				TopLeft:       topLeft,
				BottomRight:   bottomRight,
				Count:         avg,
				NeighborCount: neighborAvg,
			})
		}
	}

	return tiles
}
