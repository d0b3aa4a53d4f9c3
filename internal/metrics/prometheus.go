// internal/metrics/prometheus.go
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"assetwatch/internal/database"
)

// Prometheus metrics
var (
	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_alerts_generated_total",
			Help: "Total alerts generated per rule family",
		},
		[]string{"kind"},
	)

	AnalyticsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assetwatch_analytics_duration_seconds",
			Help:    "Time spent computing analytics views",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	ActiveDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assetwatch_active_devices_total",
			Help: "Number of devices with Active status",
		},
	)

	ActiveAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assetwatch_active_alerts_total",
			Help: "Number of unresolved system alerts",
		},
	)

	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_database_operations_total",
			Help: "Total database operations performed",
		},
		[]string{"operation", "status"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assetwatch_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

type Collector struct {
	store database.Store
}

func NewCollector(store database.Store) *Collector {
	return &Collector{store: store}
}

func (c *Collector) RecordAlertsGenerated(kind string, count int) {
	if c == nil || count == 0 {
		return
	}
	AlertsGenerated.WithLabelValues(kind).Add(float64(count))
}

func (c *Collector) ObserveAnalyticsQuery(action string, duration time.Duration) {
	if c == nil {
		return
	}
	AnalyticsDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func (c *Collector) RecordWebSocketConnection(delta int) {
	if c == nil {
		return
	}
	WebSocketConnections.Add(float64(delta))
}

// UpdateSystemMetrics refreshes the fleet gauges from the store.
func (c *Collector) UpdateSystemMetrics(ctx context.Context) error {
	stats, err := c.store.GetDashboardStats(ctx)
	if err != nil {
		DatabaseOperations.WithLabelValues("dashboard_stats", "error").Inc()
		return err
	}
	DatabaseOperations.WithLabelValues("dashboard_stats", "success").Inc()

	ActiveDevices.Set(float64(stats.AvailableDevices))
	ActiveAlerts.Set(float64(stats.ActiveAlerts))
	return nil
}
