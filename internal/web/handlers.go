// internal/web/handlers.go - CRUD and dashboard handlers
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"assetwatch/internal/database"
)

type DeviceRequest struct {
	DeviceName   string `json:"device_name" binding:"required"`
	Type         string `json:"type" binding:"required"`
	Status       string `json:"status" binding:"required"`
	SerialNumber string `json:"serial_number"`
	Model        string `json:"model"`
	PurchaseDate string `json:"purchase_date"`
	LocationID   string `json:"location_id"`
}

type LocationRequest struct {
	LocationName string `json:"location_name" binding:"required"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

type LogRequest struct {
	DeviceID  string `json:"device_id" binding:"required"`
	HoursUsed *int   `json:"hours_used" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Notes     string `json:"notes"`
	LoggedBy  string `json:"logged_by"` // operator email
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) getDevices(c *gin.Context) {
	devices, err := s.store.GetDevices(c.Request.Context(), database.DeviceFilters{
		Status: c.Query("status"),
		Type:   c.Query("type"),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to get devices")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch devices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  devices,
		"count": len(devices),
	})
}

func (s *Server) createDevice(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validDate(req.PurchaseDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchase_date must be YYYY-MM-DD"})
		return
	}

	device := database.Device{
		DeviceName:   req.DeviceName,
		Type:         req.Type,
		Status:       req.Status,
		SerialNumber: req.SerialNumber,
		Model:        req.Model,
		PurchaseDate: req.PurchaseDate,
		LocationID:   req.LocationID,
	}
	if err := s.store.CreateDevice(c.Request.Context(), &device); err != nil {
		logrus.WithError(err).Error("Failed to create device")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create device"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": device})
}

func (s *Server) updateDevice(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validDate(req.PurchaseDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchase_date must be YYYY-MM-DD"})
		return
	}

	device := database.Device{
		ID:           c.Param("id"),
		DeviceName:   req.DeviceName,
		Type:         req.Type,
		Status:       req.Status,
		SerialNumber: req.SerialNumber,
		Model:        req.Model,
		PurchaseDate: req.PurchaseDate,
		LocationID:   req.LocationID,
	}
	if err := s.store.UpdateDevice(c.Request.Context(), &device); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
			return
		}
		logrus.WithError(err).Error("Failed to update device")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": device})
}

func (s *Server) deleteDevice(c *gin.Context) {
	if err := s.store.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
			return
		}
		logrus.WithError(err).Error("Failed to delete device")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) getLocations(c *gin.Context) {
	locations, err := s.store.GetLocations(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to get locations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch locations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  locations,
		"count": len(locations),
	})
}

func (s *Server) createLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	location := database.Location{
		LocationName: req.LocationName,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
	}
	if err := s.store.CreateLocation(c.Request.Context(), &location); err != nil {
		logrus.WithError(err).Error("Failed to create location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": location})
}

func (s *Server) updateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	location := database.Location{
		ID:           c.Param("id"),
		LocationName: req.LocationName,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
	}
	if err := s.store.UpdateLocation(c.Request.Context(), &location); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		logrus.WithError(err).Error("Failed to update location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": location})
}

func (s *Server) deleteLocation(c *gin.Context) {
	if err := s.store.DeleteLocation(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		logrus.WithError(err).Error("Failed to delete location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) getLogs(c *gin.Context) {
	logs, err := s.store.GetLogs(c.Request.Context(), database.LogFilters{
		DeviceID: c.Query("device_id"),
		Since:    c.Query("since"),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to get utilization logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch utilization logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  logs,
		"count": len(logs),
	})
}

func (s *Server) createLog(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.HoursUsed < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours_used must be non-negative"})
		return
	}
	if !validDate(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.store.GetDevice(ctx, req.DeviceID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Device not found"})
			return
		}
		logrus.WithError(err).Error("Failed to look up device")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create utilization log"})
		return
	}

	// Resolve the operator by email, falling back to the seeded admin.
	email := req.LoggedBy
	role := "technician"
	if email == "" {
		email = s.config.Seed.AdminEmail
		role = "admin"
	}
	user, err := s.store.EnsureUser(ctx, email, role)
	if err != nil {
		logrus.WithError(err).Error("Failed to resolve operator")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create utilization log"})
		return
	}

	log := database.UtilizationLog{
		DeviceID:  req.DeviceID,
		HoursUsed: *req.HoursUsed,
		Date:      req.Date,
		Notes:     req.Notes,
		LoggedBy:  user.ID,
	}
	if err := s.store.CreateLog(ctx, &log); err != nil {
		logrus.WithError(err).Error("Failed to create utilization log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create utilization log"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": log})
}

func (s *Server) updateLog(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.HoursUsed < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours_used must be non-negative"})
		return
	}
	if !validDate(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	log := database.UtilizationLog{
		ID:        c.Param("id"),
		DeviceID:  req.DeviceID,
		HoursUsed: *req.HoursUsed,
		Date:      req.Date,
		Notes:     req.Notes,
	}
	if err := s.store.UpdateLog(c.Request.Context(), &log); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Utilization log not found"})
			return
		}
		logrus.WithError(err).Error("Failed to update utilization log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update utilization log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": log})
}

func (s *Server) deleteLog(c *gin.Context) {
	if err := s.store.DeleteLog(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Utilization log not found"})
			return
		}
		logrus.WithError(err).Error("Failed to delete utilization log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete utilization log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Utilization log deleted successfully"})
}

func (s *Server) getAlerts(c *gin.Context) {
	alerts, err := s.store.GetAlerts(c.Request.Context(), database.AlertFilters{
		DeviceID: c.Query("device_id"),
		Status:   c.Query("status"),
		Type:     c.Query("type"),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to get alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  alerts,
		"count": len(alerts),
	})
}

func (s *Server) resolveAlert(c *gin.Context) {
	if err := s.store.ResolveAlert(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		logrus.WithError(err).Error("Failed to resolve alert")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) getDashboardStats(c *gin.Context) {
	stats, err := s.store.GetDashboardStats(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to get dashboard stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) getDeviceTypes(c *gin.Context) {
	counts, err := s.store.GetDeviceTypeCounts(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to get device type stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch device type stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": counts})
}

func (s *Server) getMonthlyUsage(c *gin.Context) {
	since := time.Now().AddDate(0, -6, 0).Format(database.DateLayout)
	usage, err := s.store.GetMonthlyUsage(c.Request.Context(), since)
	if err != nil {
		logrus.WithError(err).Error("Failed to get monthly usage")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch monthly usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": usage})
}

// validDate accepts an empty value or a YYYY-MM-DD calendar date.
func validDate(v string) bool {
	if v == "" {
		return true
	}
	_, err := time.Parse(database.DateLayout, v)
	return err == nil
}
