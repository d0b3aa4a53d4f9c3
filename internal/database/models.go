// internal/database/models.go
package database

import (
	"time"
)

// Device statuses. Only Active devices are eligible for alert evaluation.
const (
	StatusActive         = "Active"
	StatusInactive       = "Inactive"
	StatusMaintenance    = "Maintenance"
	StatusDecommissioned = "Decommissioned"
)

// Alert types and severities.
const (
	AlertTypeMaintenance = "maintenance"
	AlertTypeLowStock    = "low_stock"
	AlertTypeEndOfLife   = "end_of_life"
	AlertTypeSystem      = "system"

	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"

	AlertStatusActive   = "Active"
	AlertStatusResolved = "Resolved"
)

// DateLayout is the calendar-date format used for purchase_date and log dates.
// ISO dates compare lexicographically in the same order as chronologically,
// so range scans in SQL work on the raw strings.
const DateLayout = "2006-01-02"

type Device struct {
	ID           string    `json:"id"`
	DeviceName   string    `json:"device_name"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	SerialNumber string    `json:"serial_number"`
	Model        string    `json:"model"`
	PurchaseDate string    `json:"purchase_date"`
	LocationID   string    `json:"location_id,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Location struct {
	ID           string    `json:"id"`
	LocationName string    `json:"location_name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UtilizationLog struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"device_id"`
	DeviceName   string    `json:"device_name,omitempty"`
	DeviceType   string    `json:"device_type,omitempty"`
	DeviceStatus string    `json:"device_status,omitempty"`
	HoursUsed    int       `json:"hours_used"`
	Date         string    `json:"date"`
	Notes        string    `json:"notes,omitempty"`
	LoggedBy     string    `json:"logged_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SystemAlert struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id,omitempty"`
	DeviceName  string    `json:"device_name,omitempty"`
	DeviceType  string    `json:"device_type,omitempty"`
	Alert       string    `json:"alert"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceWithLogs pairs a device with its utilization history, as fetched in
// one pass for alert evaluation.
type DeviceWithLogs struct {
	Device Device
	Logs   []UtilizationLog
}

type DeviceFilters struct {
	Status string
	Type   string
}

type LogFilters struct {
	DeviceID string
	Since    string // inclusive ISO date lower bound
	Limit    int
	ByHours  bool // order by hours_used descending instead of date
}

type AlertFilters struct {
	DeviceID string
	Status   string
	Type     string
}

// TypeCount is a per-device-type tally for the dashboard.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// MonthlyUsage is a per-month hours sum for the dashboard usage chart.
type MonthlyUsage struct {
	Month      string `json:"month"`
	UsageHours int    `json:"usage_hours"`
}

// DashboardStats mirrors the landing-page counters.
type DashboardStats struct {
	TotalDevices          int `json:"total_devices"`
	AvailableDevices      int `json:"available_devices"`
	InUseDevices          int `json:"in_use_devices"`
	MaintenanceDevices    int `json:"maintenance_devices"`
	DecommissionedDevices int `json:"decommissioned_devices"`
	ActiveAlerts          int `json:"active_alerts"`
	Locations             int `json:"locations"`
}
