// internal/grid/align_test.go - Unit tests for grid alignment
package grid

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"trip-heatmap/internal/heatmap"
)

func rect(tlLat, tlLng, brLat, brLng float64) heatmap.Rectangle {
	return heatmap.Rectangle{
		TopLeft:     heatmap.MapPoint{Lat: tlLat, Long: tlLng},
		BottomRight: heatmap.MapPoint{Lat: brLat, Long: brLng},
	}
}

func TestAlignedStart(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		step  float64
		want  float64
	}{
		{name: "positive step snaps down", value: 0.7, step: 0.5, want: 0.5},
		{name: "positive step exact multiple", value: 1.0, step: 0.5, want: 1.0},
		{name: "positive step negative value", value: -0.7, step: 0.5, want: -1.0},
		{name: "negative step snaps up", value: 0.7, step: -0.5, want: 1.0},
		{name: "negative step exact multiple", value: 1.0, step: -0.5, want: 1.0},
		{name: "negative step negative value", value: -0.7, step: -0.5, want: -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AlignedStart(tt.value, tt.step)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AlignedStart(%f, %f) = %f, want %f", tt.value, tt.step, got, tt.want)
			}
		})
	}
}

func TestAlignExactTiling(t *testing.T) {
	// Unit square split 2x2: exactly four tiles, edge to edge.
	area := rect(1.0, 0.0, 0.0, 1.0)
	cells := Align(area, 0.5, 0.5)

	if len(cells) != 4 {
		t.Fatalf("Align() returned %d cells, want 4", len(cells))
	}

	covered := map[[2]float64]bool{}
	for _, cell := range cells {
		if w := cell.BottomRight.Long - cell.TopLeft.Long; math.Abs(w-0.5) > 1e-12 {
			t.Errorf("cell width = %f, want 0.5", w)
		}
		if h := cell.TopLeft.Lat - cell.BottomRight.Lat; math.Abs(h-0.5) > 1e-12 {
			t.Errorf("cell height = %f, want 0.5", h)
		}
		covered[[2]float64{cell.BottomRight.Lat, cell.TopLeft.Long}] = true
	}

	for _, origin := range [][2]float64{{0, 0}, {0, 0.5}, {0.5, 0}, {0.5, 0.5}} {
		if !covered[origin] {
			t.Errorf("no cell with origin (lat=%f, lng=%f)", origin[0], origin[1])
		}
	}
}

func TestAlignCoverage(t *testing.T) {
	tests := []struct {
		name  string
		area  heatmap.Rectangle
		tileW float64
		tileH float64
	}{
		{name: "aligned viewport", area: rect(1.0, 0.0, 0.0, 1.0), tileW: 0.5, tileH: 0.5},
		{name: "offset viewport", area: rect(1.3, 0.2, 0.1, 1.7), tileW: 0.5, tileH: 0.5},
		{name: "negative coordinates", area: rect(-0.1, -2.3, -1.9, -0.4), tileW: 0.3, tileH: 0.7},
		{name: "tiny tiles", area: rect(60.21, 24.51, 60.19, 24.55), tileW: 0.005, tileH: 0.005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := Align(tt.area, tt.tileW, tt.tileH)
			if len(cells) == 0 {
				t.Fatal("Align() returned no cells")
			}

			areaBound := tt.area.Bound()
			union := cells[0].bound()
			for _, cell := range cells[1:] {
				b := cell.bound()
				// No cell may be entirely disjoint from the area
				if !b.Intersects(areaBound) {
					t.Errorf("cell %v disjoint from area %v", b, areaBound)
				}
				union = union.Union(b)
			}

			// The union of the tiles must fully contain the query rectangle
			if !union.Contains(areaBound.Min) || !union.Contains(areaBound.Max) {
				t.Errorf("union %v does not contain area %v", union, areaBound)
			}
		})
	}
}

func TestAlignStepSignInvariance(t *testing.T) {
	area := rect(1.3, 0.2, 0.1, 1.7)

	reference := Align(area, 0.5, 0.5)
	for _, steps := range [][2]float64{{-0.5, 0.5}, {0.5, -0.5}, {-0.5, -0.5}} {
		cells := Align(area, steps[0], steps[1])
		if len(cells) != len(reference) {
			t.Fatalf("steps %v: %d cells, want %d", steps, len(cells), len(reference))
		}
		for _, cell := range cells {
			if cell.TopLeft.Lat < cell.BottomRight.Lat {
				t.Errorf("steps %v: cell corners not canonical: %+v", steps, cell)
			}
			if cell.TopLeft.Long > cell.BottomRight.Long {
				t.Errorf("steps %v: cell corners not canonical: %+v", steps, cell)
			}
			if !containsCell(reference, cell) {
				t.Errorf("steps %v: cell %+v missing from positive-step grid", steps, cell)
			}
		}
	}
}

func TestAlignUnnormalizedRectangle(t *testing.T) {
	canonical := Align(rect(1.0, 0.0, 0.0, 1.0), 0.5, 0.5)
	inverted := Align(rect(0.0, 1.0, 1.0, 0.0), 0.5, 0.5)

	if len(canonical) != len(inverted) {
		t.Fatalf("inverted rectangle: %d cells, want %d", len(inverted), len(canonical))
	}
	for _, cell := range inverted {
		if !containsCell(canonical, cell) {
			t.Errorf("cell %+v missing from canonical grid", cell)
		}
	}
}

func TestAlignViewportIndependence(t *testing.T) {
	// Two viewports sharing a tile size must produce identical absolute
	// boundaries on their overlap.
	a := Align(rect(2.0, 0.0, 0.0, 2.0), 0.5, 0.5)
	b := Align(rect(2.7, 0.9, 0.9, 2.9), 0.5, 0.5)

	overlap := rect(2.0, 0.9, 0.9, 2.0).Bound()
	shared := 0
	for _, cell := range b {
		center := cell.bound().Center()
		if !overlap.Contains(center) {
			continue
		}
		shared++
		if !containsCell(a, cell) {
			t.Errorf("cell %+v from shifted viewport has no identical twin", cell)
		}
	}
	if shared == 0 {
		t.Fatal("no overlapping cells between viewports; test area is wrong")
	}
}

func TestAlignDegenerate(t *testing.T) {
	area := rect(1.0, 0.0, 0.0, 1.0)

	if cells := Align(area, 0, 0.5); len(cells) != 0 {
		t.Errorf("zero width: got %d cells, want 0", len(cells))
	}
	if cells := Align(area, 0.5, 0); len(cells) != 0 {
		t.Errorf("zero height: got %d cells, want 0", len(cells))
	}
}

func TestAlignSubResolutionStep(t *testing.T) {
	// A positive step below one ulp of the coordinates cannot advance an
	// accumulating walk; the cell budget must turn it into an empty result
	// instead of a spin.
	area := rect(60.2, 24.5, 60.1, 24.6)

	done := make(chan int, 1)
	go func() {
		done <- len(Align(area, 1e-16, 1e-16))
	}()

	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("Align() returned %d cells for a sub-resolution step, want 0", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Align() did not return within 2s for a sub-resolution step")
	}
}

func TestWithinBudget(t *testing.T) {
	area := rect(60.2, 24.5, 60.1, 24.6)

	tests := []struct {
		name  string
		tileW float64
		tileH float64
		want  bool
	}{
		{name: "normal grid", tileW: 0.005, tileH: 0.005, want: true},
		{name: "degenerate step", tileW: 0, tileH: 0.005, want: true},
		{name: "sub-resolution step", tileW: 1e-16, tileH: 1e-16, want: false},
		{name: "oversized product", tileW: 5e-5, tileH: 5e-5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinBudget(area, tt.tileW, tt.tileH); got != tt.want {
				t.Errorf("WithinBudget(%g, %g) = %v, want %v", tt.tileW, tt.tileH, got, tt.want)
			}
		})
	}
}

func TestAlignPartialEdgeCellsKeptInFull(t *testing.T) {
	// Viewport offset from the absolute grid: edge cells overshoot but are
	// not trimmed.
	cells := Align(rect(1.2, 0.3, 0.3, 1.2), 0.5, 0.5)

	for _, cell := range cells {
		if w := cell.BottomRight.Long - cell.TopLeft.Long; math.Abs(w-0.5) > 1e-12 {
			t.Errorf("edge cell trimmed to width %f", w)
		}
		if h := cell.TopLeft.Lat - cell.BottomRight.Lat; math.Abs(h-0.5) > 1e-12 {
			t.Errorf("edge cell trimmed to height %f", h)
		}
		for _, v := range []float64{cell.TopLeft.Lat, cell.BottomRight.Lat} {
			if r := math.Abs(math.Remainder(v, 0.5)); r > 1e-12 {
				t.Errorf("cell latitude %f not on the absolute 0.5 grid", v)
			}
		}
	}
}

// bound converts a cell to an orb.Bound for geometric assertions
func (c Cell) bound() orb.Bound {
	return heatmap.Rectangle{TopLeft: c.TopLeft, BottomRight: c.BottomRight}.Bound()
}

// containsCell reports whether an equal cell exists in the slice
func containsCell(cells []Cell, want Cell) bool {
	const eps = 1e-9
	for _, c := range cells {
		if math.Abs(c.TopLeft.Lat-want.TopLeft.Lat) < eps &&
			math.Abs(c.TopLeft.Long-want.TopLeft.Long) < eps &&
			math.Abs(c.BottomRight.Lat-want.BottomRight.Lat) < eps &&
			math.Abs(c.BottomRight.Long-want.BottomRight.Long) < eps {
			return true
		}
	}
	return false
}
