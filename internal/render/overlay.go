// internal/render/overlay.go - Overlay snapshots built from aggregate tiles
package render

import (
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"trip-heatmap/internal/heatmap"
)

// Snapshot is one rendered overlay generation: a GeoJSON feature collection
// of the visible tiles plus the raw tiles for click inspection. Snapshots
// are replaced wholesale, never merged; the handle passed into the next
// Render call is released there.
type Snapshot struct {
	ID         uuid.UUID
	Collection *geojson.FeatureCollection

	tiles    []heatmap.AggregateTile
	released bool
}

// Released reports whether the snapshot has been superseded
func (s *Snapshot) Released() bool {
	return s == nil || s.released
}

// Release marks the snapshot as superseded. Safe to call twice.
func (s *Snapshot) Release() {
	if s != nil {
		s.released = true
		s.tiles = nil
	}
}

// TileAt looks up the tile covering a point, for click inspection of the raw
// counts. Returns false on a released snapshot or when no tile covers the
// point; on seams the first matching tile wins.
func (s *Snapshot) TileAt(p orb.Point) (heatmap.AggregateTile, bool) {
	if s.Released() {
		return heatmap.AggregateTile{}, false
	}
	for _, t := range s.tiles {
		if t.Bound().Contains(p) {
			return t, true
		}
	}
	return heatmap.AggregateTile{}, false
}

// Renderer turns tile sets into overlay snapshots using a fixed color scale
type Renderer struct {
	scale  ColorScale
	logger log.Interface
}

// NewRenderer creates a renderer with the given scale
func NewRenderer(scale ColorScale) *Renderer {
	return &Renderer{
		scale:  scale,
		logger: log.WithField("component", "render"),
	}
}

// Render builds a new snapshot from the tiles and releases the previous
// handle. Tiles below the visibility cutoff carry no feature but remain
// available to TileAt. Passing nil prev is fine for the first render.
func (r *Renderer) Render(prev *Snapshot, tiles []heatmap.AggregateTile) *Snapshot {
	prev.Release()

	maxIntensity := r.scale.MaxIntensity(tiles)
	fc := geojson.NewFeatureCollection()

	visible := 0
	for _, t := range tiles {
		color := r.scale.Color(r.scale.Intensity(t), maxIntensity)
		if !color.Visible {
			continue
		}
		f := geojson.NewFeature(tilePolygon(t))
		f.Properties = geojson.Properties{
			"count":         t.Count,
			"neighborCount": t.NeighborCount,
			"fill":          color.HSLA(),
			"fill-opacity":  color.Opacity,
		}
		fc.Append(f)
		visible++
	}

	snap := &Snapshot{
		ID:         uuid.New(),
		Collection: fc,
		tiles:      tiles,
	}
	r.logger.WithFields(log.Fields{
		"snapshot": snap.ID.String(),
		"tiles":    len(tiles),
		"visible":  visible,
	}).Debug("overlay rendered")
	return snap
}

// tilePolygon builds the closed ring of a tile footprint
func tilePolygon(t heatmap.AggregateTile) orb.Polygon {
	b := t.Bound()
	return orb.Polygon{orb.Ring{
		{b.Min[0], b.Max[1]},
		{b.Max[0], b.Max[1]},
		{b.Max[0], b.Min[1]},
		{b.Min[0], b.Min[1]},
		{b.Min[0], b.Max[1]},
	}}
}
