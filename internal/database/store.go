// internal/database/store.go
package database

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the interface for database operations
type Store interface {
	// Device operations
	GetDevices(ctx context.Context, filters DeviceFilters) ([]Device, error)
	GetDevice(ctx context.Context, id string) (*Device, error)
	CreateDevice(ctx context.Context, device *Device) error
	UpdateDevice(ctx context.Context, device *Device) error
	DeleteDevice(ctx context.Context, id string) error

	// Location operations
	GetLocations(ctx context.Context) ([]Location, error)
	CreateLocation(ctx context.Context, location *Location) error
	UpdateLocation(ctx context.Context, location *Location) error
	DeleteLocation(ctx context.Context, id string) error

	// Utilization log operations
	GetLogs(ctx context.Context, filters LogFilters) ([]UtilizationLog, error)
	CreateLog(ctx context.Context, log *UtilizationLog) error
	UpdateLog(ctx context.Context, log *UtilizationLog) error
	DeleteLog(ctx context.Context, id string) error

	// Alert evaluation support
	GetActiveDevicesWithLogs(ctx context.Context) ([]DeviceWithLogs, error)

	// Alert operations
	GetAlerts(ctx context.Context, filters AlertFilters) ([]SystemAlert, error)
	InsertAlerts(ctx context.Context, alerts []SystemAlert) error
	ResolveAlert(ctx context.Context, id string) error

	// User operations
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	EnsureUser(ctx context.Context, email, role string) (*User, error)

	// Dashboard aggregates
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetDeviceTypeCounts(ctx context.Context) ([]TypeCount, error)
	GetMonthlyUsage(ctx context.Context, since string) ([]MonthlyUsage, error)

	// Close the database connection
	Close() error
}
