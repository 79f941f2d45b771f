// internal/heatmap/query.go - Tile query construction
package heatmap

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"trip-heatmap/internal"
)

const dateLayout = "2006-01-02"

// BuildTileQuery derives per-tile sizes from a rectangle and the desired grid
// dimensions and assembles a fully populated query. The rectangle is expected
// to be normalized; an unnormalized rectangle yields negative tile sizes,
// which downstream grid alignment tolerates. countX and countY must be at
// least 1. The optional filter may be nil.
func BuildTileQuery(area Rectangle, countX, countY int, filter *Filter, kind internal.MapKind) (*TileQuery, error) {
	if countX < 1 || countY < 1 {
		return nil, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("tile counts must be at least 1, got countX=%d countY=%d", countX, countY), nil)
	}
	if !rectFinite(area) {
		return nil, internal.NewError(internal.ErrorCodeValidation,
			"rectangle coordinates must be finite", nil)
	}
	if !kind.IsValid() {
		return nil, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("unknown map kind %q", kind), nil)
	}

	query := &TileQuery{
		Area:       area,
		TileWidth:  (area.BottomRight.Long - area.TopLeft.Long) / float64(countX),
		TileHeight: (area.TopLeft.Lat - area.BottomRight.Lat) / float64(countY),
		Kind:       kind,
	}

	if filter != nil {
		query.TimeStart = filter.TimeStart
		query.TimeEnd = filter.TimeEnd
		if filter.DateStart != nil {
			s := filter.DateStart.Format(dateLayout)
			query.DateStart = &s
		}
		if filter.DateEnd != nil {
			s := filter.DateEnd.Format(dateLayout)
			query.DateEnd = &s
		}
		query.DaysOfWeek = filter.DaysOfWeek
	}

	return query, nil
}

// QueryValues serializes the query as URL parameters for the query endpoint
func (q *TileQuery) QueryValues() url.Values {
	values := url.Values{}
	values.Set("lat1", formatCoord(q.Area.TopLeft.Lat))
	values.Set("lon1", formatCoord(q.Area.TopLeft.Long))
	values.Set("lat2", formatCoord(q.Area.BottomRight.Lat))
	values.Set("lon2", formatCoord(q.Area.BottomRight.Long))
	values.Set("tileWidth", formatCoord(q.TileWidth))
	values.Set("tileHeight", formatCoord(q.TileHeight))
	values.Set("kind", q.Kind.String())

	if q.TimeStart != nil {
		values.Set("timeStart", *q.TimeStart)
	}
	if q.TimeEnd != nil {
		values.Set("timeEnd", *q.TimeEnd)
	}
	if q.DateStart != nil {
		values.Set("dateStart", *q.DateStart)
	}
	if q.DateEnd != nil {
		values.Set("dateEnd", *q.DateEnd)
	}
	if q.DaysOfWeek != nil {
		days := make([]string, len(q.DaysOfWeek))
		for i, d := range q.DaysOfWeek {
			days[i] = strconv.Itoa(d)
		}
		values.Set("daysOfWeek", strings.Join(days, ","))
	}

	return values
}

// Degenerate reports whether the query can only produce an empty result
func (q *TileQuery) Degenerate() bool {
	return q.TileWidth == 0 || q.TileHeight == 0
}

// formatCoord formats a coordinate without exponent notation artifacts
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rectFinite reports whether all four rectangle coordinates are finite
func rectFinite(r Rectangle) bool {
	for _, v := range []float64{r.TopLeft.Lat, r.TopLeft.Long, r.BottomRight.Lat, r.BottomRight.Long} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
