// internal/server/params.go - Query parameter parsing
package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trip-heatmap/internal/grid"
	"trip-heatmap/internal/heatmap"
	"trip-heatmap/internal/store"
)

const dateLayout = "2006-01-02"

// mapParams is the parsed parameter set shared by the aggregate map
// endpoints: two arbitrary corners, positive tile sizes, and the optional
// time filter.
type mapParams struct {
	area       heatmap.Rectangle
	tileWidth  float64
	tileHeight float64
	window     store.Window
}

// parseMapParams reads and validates the shared aggregate map parameters.
// Corner order is not significant; the rectangle is normalized here.
func parseMapParams(c *gin.Context) (*mapParams, error) {
	lat1, err := requiredFloat(c, "lat1")
	if err != nil {
		return nil, err
	}
	lon1, err := requiredFloat(c, "lon1")
	if err != nil {
		return nil, err
	}
	lat2, err := requiredFloat(c, "lat2")
	if err != nil {
		return nil, err
	}
	lon2, err := requiredFloat(c, "lon2")
	if err != nil {
		return nil, err
	}
	tileWidth, err := requiredFloat(c, "tileWidth")
	if err != nil {
		return nil, err
	}
	tileHeight, err := requiredFloat(c, "tileHeight")
	if err != nil {
		return nil, err
	}

	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, fmt.Errorf("tileWidth and tileHeight must be > 0")
	}

	area := heatmap.Normalize(
		heatmap.MapPoint{Lat: lat1, Long: lon1},
		heatmap.MapPoint{Lat: lat2, Long: lon2},
	)
	if !grid.WithinBudget(area, tileWidth, tileHeight) {
		return nil, fmt.Errorf("tile size too small for the requested area")
	}
	bound := area.Bound()
	window := store.NewWindow(bound.Min[1], bound.Max[1], bound.Min[0], bound.Max[0])

	if err := parseFilter(c, &window); err != nil {
		return nil, err
	}

	return &mapParams{
		area:       area,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		window:     window,
	}, nil
}

// parseFilter reads the optional date, day-of-week, and time-of-day
// parameters into the window.
func parseFilter(c *gin.Context, w *store.Window) error {
	if v := c.Query("dateStart"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return fmt.Errorf("invalid dateStart: %w", err)
		}
		w.DateStart = &t
	}
	if v := c.Query("dateEnd"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return fmt.Errorf("invalid dateEnd: %w", err)
		}
		w.DateEnd = &t
	}

	// A present daysOfWeek parameter always activates the day filter: an
	// empty value means the empty day set, which matches nothing, while a
	// missing parameter means no filtering.
	if v, ok := c.GetQuery("daysOfWeek"); ok {
		w.DaysOfWeek = []int{}
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := strconv.Atoi(part)
			if err != nil || d < 0 || d > 6 {
				return fmt.Errorf("invalid daysOfWeek entry %q", part)
			}
			w.DaysOfWeek = append(w.DaysOfWeek, d)
		}
	}

	start, end := c.Query("timeStart"), c.Query("timeEnd")
	if (start == "") != (end == "") {
		return fmt.Errorf("timeStart and timeEnd must be supplied together")
	}
	if start != "" {
		s, err := parseTimeOfDay(start)
		if err != nil {
			return fmt.Errorf("invalid timeStart: %w", err)
		}
		e, err := parseTimeOfDay(end)
		if err != nil {
			return fmt.Errorf("invalid timeEnd: %w", err)
		}
		w.TimeStart, w.TimeEnd = s, e
	}

	return nil
}

// requiredFloat reads a mandatory float parameter
func requiredFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter %s", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

// parseDate accepts a plain date or a full RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseTimeOfDay converts "HH" or "HH:MM" to minutes since midnight
func parseTimeOfDay(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	minute := 0
	if len(parts) == 2 {
		minute, err = strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return 0, fmt.Errorf("bad minute in %q", s)
		}
	}
	return hour*60 + minute, nil
}
