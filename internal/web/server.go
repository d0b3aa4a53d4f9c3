// internal/web/server.go
package web

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"assetwatch/internal/analytics"
	"assetwatch/internal/config"
	"assetwatch/internal/database"
	"assetwatch/internal/metrics"
)

type Server struct {
	config    *config.Config
	store     database.Store
	service   *analytics.Service
	metrics   *metrics.Collector
	router    *gin.Engine
	wsMu      sync.Mutex
	wsClients map[*WSClient]bool
	server    *http.Server
}

func NewServer(cfg *config.Config, store database.Store, service *analytics.Service, metricsCollector *metrics.Collector) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	server := &Server{
		config:    cfg,
		store:     store,
		service:   service,
		metrics:   metricsCollector,
		router:    router,
		wsClients: make(map[*WSClient]bool),
	}

	server.setupRoutes()
	return server
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	logrus.WithField("port", s.config.Server.Port).Info("Starting web server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/devices", s.getDevices)
		api.POST("/devices", s.createDevice)
		api.PUT("/devices/:id", s.updateDevice)
		api.DELETE("/devices/:id", s.deleteDevice)

		api.GET("/locations", s.getLocations)
		api.POST("/locations", s.createLocation)
		api.PUT("/locations/:id", s.updateLocation)
		api.DELETE("/locations/:id", s.deleteLocation)

		api.GET("/utilization-logs", s.getLogs)
		api.POST("/utilization-logs", s.createLog)
		api.PUT("/utilization-logs/:id", s.updateLog)
		api.DELETE("/utilization-logs/:id", s.deleteLog)

		api.GET("/alerts", s.getAlerts)
		api.PUT("/alerts/:id/resolve", s.resolveAlert)

		api.GET("/dashboard/stats", s.getDashboardStats)
		api.GET("/dashboard/device-types", s.getDeviceTypes)
		api.GET("/dashboard/monthly-usage", s.getMonthlyUsage)

		// action-dispatched core operations
		api.POST("/device-alerts", s.handleDeviceAlerts)
		api.GET("/device-utilization", s.handleDeviceUtilization)

		api.GET("/health", s.healthCheck)
	}

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)

	// Prometheus metrics
	if s.config.Prometheus.Enabled {
		s.router.GET(s.config.Prometheus.MetricsPath, gin.WrapH(promhttp.Handler()))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
