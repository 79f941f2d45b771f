// internal/server/handlers.go - Aggregate map API handlers
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trip-heatmap/internal/grid"
	"trip-heatmap/internal/heatmap"
	"trip-heatmap/internal/metrics"
	"trip-heatmap/internal/store"
)

// handleHeatmap serves observation counts per tile
func (s *Server) handleHeatmap(c *gin.Context) {
	s.serveAggregateMap(c, "heatmap", grid.AggregateCounts)
}

// handleTrafficmap serves counts with the 8-neighbor spill per tile
func (s *Server) handleTrafficmap(c *gin.Context) {
	s.serveAggregateMap(c, "trafficmap", grid.AggregateCounts)
}

// handleSpeedmap serves average speeds per tile
func (s *Server) handleSpeedmap(c *gin.Context) {
	s.serveAggregateMap(c, "speedmap", grid.AggregateSpeeds)
}

type aggregateFunc func([]grid.Observation, heatmap.Rectangle, float64, float64) []heatmap.AggregateTile

// serveAggregateMap is the shared handler body of the three map endpoints.
// It accepts two arbitrary corners, rejects non-positive tile sizes, and
// returns an empty result set for degenerate areas.
func (s *Server) serveAggregateMap(c *gin.Context, name string, aggregate aggregateFunc) {
	params, err := parseMapParams(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	bound := params.area.Bound()
	if bound.Min[0] == bound.Max[0] || bound.Min[1] == bound.Max[1] {
		c.JSON(http.StatusOK, heatmap.Result{name: {Data: []heatmap.AggregateTile{}}})
		return
	}

	points, err := s.store.PointsIn(c.Request.Context(), params.window)
	if err != nil {
		s.logger.WithError(err).Error("point query failed")
		c.String(http.StatusInternalServerError, "point query failed")
		return
	}

	observations := make([]grid.Observation, len(points))
	for i, p := range points {
		observations[i] = grid.Observation{Lat: p.Lat, Long: p.Lon, Speed: p.Spd}
	}

	tiles := aggregate(observations, params.area, params.tileWidth, params.tileHeight)
	metrics.TilesReturned.Observe(float64(len(tiles)))
	c.JSON(http.StatusOK, heatmap.Result{name: {Data: tiles}})
}

// pointListRequest is the ingestion payload
type pointListRequest struct {
	Points []store.Point `json:"points" binding:"required"`
}

// handlePushPoints ingests a batch of GPS points
func (s *Server) handlePushPoints(c *gin.Context) {
	var req pointListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid point list: %s", err.Error())
		return
	}

	if err := s.store.InsertBatch(c.Request.Context(), req.Points); err != nil {
		s.logger.WithError(err).Error("point ingestion failed")
		c.String(http.StatusInternalServerError, "point ingestion failed")
		return
	}

	metrics.PointsIngested.Add(float64(len(req.Points)))
	c.Status(http.StatusOK)
}

// anomaliesResponse wraps the anomalous routes
type anomaliesResponse struct {
	Anomalies []store.Route `json:"anomalies"`
}

// handleAnomalies serves anomalous traces grouped by randomized trip id
func (s *Server) handleAnomalies(c *gin.Context) {
	lat1, err := requiredFloat(c, "lat1")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	lon1, err := requiredFloat(c, "lon1")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	lat2, err := requiredFloat(c, "lat2")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	lon2, err := requiredFloat(c, "lon2")
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	area := heatmap.Normalize(
		heatmap.MapPoint{Lat: lat1, Long: lon1},
		heatmap.MapPoint{Lat: lat2, Long: lon2},
	)
	bound := area.Bound()
	window := store.NewWindow(bound.Min[1], bound.Max[1], bound.Min[0], bound.Max[0])
	if err := parseFilter(c, &window); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	routes, err := s.store.AnomalyRoutes(c.Request.Context(), window)
	if err != nil {
		s.logger.WithError(err).Error("anomaly query failed")
		c.String(http.StatusInternalServerError, "anomaly query failed")
		return
	}
	if routes == nil {
		routes = []store.Route{}
	}

	c.JSON(http.StatusOK, anomaliesResponse{Anomalies: routes})
}
