// internal/server/server.go - Reference aggregate map server
package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trip-heatmap/internal/store"
)

// Server exposes the aggregate map API over HTTP
type Server struct {
	engine *gin.Engine
	store  *store.Store
	logger log.Interface
}

// New creates a server around a point store
func New(st *store.Store) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine: gin.New(),
		store:  st,
		logger: log.WithField("component", "server"),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// routes wires the API surface
func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/heatmap/", s.handleHeatmap)
		api.GET("/trafficmap/", s.handleTrafficmap)
		api.GET("/speedmap/", s.handleSpeedmap)
		api.POST("/points/", s.handlePushPoints)
		api.GET("/anomalies/", s.handleAnomalies)
	}
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler returns the router for embedding in tests or custom listeners
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves the API on the given address until the listener fails
func (s *Server) Run(addr string) error {
	s.logger.WithField("address", addr).Info("server listening")
	return s.engine.Run(addr)
}
