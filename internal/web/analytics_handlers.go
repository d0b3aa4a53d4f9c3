// internal/web/analytics_handlers.go - Action-dispatched alert and analytics operations
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"assetwatch/internal/database"
)

// POST /api/device-alerts?action=...
func (s *Server) handleDeviceAlerts(c *gin.Context) {
	ctx := c.Request.Context()
	action := c.Query("action")

	switch action {
	case "check-utilization":
		result, err := s.service.CheckUtilization(ctx)
		if err != nil {
			s.alertCheckError(c, action, err)
			return
		}
		s.broadcastAlerts(result.Inserted)
		c.JSON(http.StatusOK, result)

	case "check-maintenance":
		result, err := s.service.CheckMaintenance(ctx)
		if err != nil {
			s.alertCheckError(c, action, err)
			return
		}
		s.broadcastAlerts(result.Inserted)
		c.JSON(http.StatusOK, result)

	case "check-end-of-life":
		result, err := s.service.CheckEndOfLife(ctx)
		if err != nil {
			s.alertCheckError(c, action, err)
			return
		}
		s.broadcastAlerts(result.Inserted)
		c.JSON(http.StatusOK, result)

	case "generate-alerts":
		result, err := s.service.GenerateAlerts(ctx)
		if err != nil {
			s.alertCheckError(c, action, err)
			return
		}
		s.broadcastAlerts(result.Inserted)
		c.JSON(http.StatusOK, result)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
	}
}

// GET /api/device-utilization?action=...
func (s *Server) handleDeviceUtilization(c *gin.Context) {
	ctx := c.Request.Context()
	action := c.Query("action")

	var (
		result any
		err    error
	)
	switch action {
	case "utilization-trends":
		result, err = s.service.UtilizationTrends(ctx)
	case "device-efficiency":
		result, err = s.service.DeviceEfficiency(ctx)
	case "peak-usage":
		result, err = s.service.PeakUsage(ctx)
	case "utilization-summary":
		result, err = s.service.UtilizationSummary(ctx)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	if err != nil {
		logrus.WithError(err).WithField("action", action).Error("Analytics operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) alertCheckError(c *gin.Context, action string, err error) {
	logrus.WithError(err).WithField("action", action).Error("Alert check failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (s *Server) broadcastAlerts(alerts []database.SystemAlert) {
	for _, alert := range alerts {
		s.broadcast(WSMessage{Type: "alert", Data: alert})
	}
}
