// internal/analytics/service.go - Alert and analytics orchestration
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"assetwatch/internal/database"
	"assetwatch/internal/metrics"
)

// Service runs the alert checks and analytics views over the store. It holds
// no state between invocations; every operation re-fetches what it needs.
type Service struct {
	store   database.Store
	metrics *metrics.Collector
	now     func() time.Time
}

func NewService(store database.Store, collector *metrics.Collector) *Service {
	return &Service{
		store:   store,
		metrics: collector,
		now:     time.Now,
	}
}

// AlertCheckResult is the response of a single alert-check operation.
// Inserted carries the committed alerts for broadcast, not for serialization.
type AlertCheckResult struct {
	Message  string                 `json:"message"`
	Alerts   int                    `json:"alerts"`
	Inserted []database.SystemAlert `json:"-"`
}

// GenerateResult is the response of the combined generate-alerts operation.
type GenerateResult struct {
	Message           string                 `json:"message"`
	UtilizationAlerts int                    `json:"utilization_alerts"`
	MaintenanceAlerts int                    `json:"maintenance_alerts"`
	EndOfLifeAlerts   int                    `json:"end_of_life_alerts"`
	TotalAlerts       int                    `json:"total_alerts"`
	Inserted          []database.SystemAlert `json:"-"`
}

// CheckUtilization evaluates the trailing-window utilization rules for every
// Active device and persists the resulting alerts.
func (s *Service) CheckUtilization(ctx context.Context) (*AlertCheckResult, error) {
	devices, err := s.store.GetActiveDevicesWithLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active devices: %w", err)
	}

	now := s.now()
	var drafts []database.SystemAlert
	for _, entry := range devices {
		drafts = append(drafts, EvaluateUtilization(entry.Device, entry.Logs, now)...)
	}

	inserted, err := s.persistAlerts(ctx, drafts)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAlertsGenerated("utilization", len(inserted))
	return &AlertCheckResult{
		Message:  fmt.Sprintf("Generated %d utilization alerts", len(inserted)),
		Alerts:   len(inserted),
		Inserted: inserted,
	}, nil
}

// CheckMaintenance evaluates the service-age maintenance rules for every
// Active device and persists the resulting alerts.
func (s *Service) CheckMaintenance(ctx context.Context) (*AlertCheckResult, error) {
	devices, err := s.store.GetDevices(ctx, database.DeviceFilters{Status: database.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active devices: %w", err)
	}

	now := s.now()
	var drafts []database.SystemAlert
	for _, device := range devices {
		drafts = append(drafts, EvaluateMaintenance(device, now)...)
	}

	inserted, err := s.persistAlerts(ctx, drafts)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAlertsGenerated("maintenance", len(inserted))
	return &AlertCheckResult{
		Message:  fmt.Sprintf("Generated %d maintenance alerts", len(inserted)),
		Alerts:   len(inserted),
		Inserted: inserted,
	}, nil
}

// CheckEndOfLife evaluates the end-of-life rules for every Active device and
// persists the resulting alerts.
func (s *Service) CheckEndOfLife(ctx context.Context) (*AlertCheckResult, error) {
	devices, err := s.store.GetDevices(ctx, database.DeviceFilters{Status: database.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active devices: %w", err)
	}

	now := s.now()
	var drafts []database.SystemAlert
	for _, device := range devices {
		drafts = append(drafts, EvaluateEndOfLife(device, now)...)
	}

	inserted, err := s.persistAlerts(ctx, drafts)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAlertsGenerated("end_of_life", len(inserted))
	return &AlertCheckResult{
		Message:  fmt.Sprintf("Generated %d end-of-life alerts", len(inserted)),
		Alerts:   len(inserted),
		Inserted: inserted,
	}, nil
}

// GenerateAlerts runs all three checks and sums their counts.
func (s *Service) GenerateAlerts(ctx context.Context) (*GenerateResult, error) {
	utilization, err := s.CheckUtilization(ctx)
	if err != nil {
		return nil, err
	}
	maintenance, err := s.CheckMaintenance(ctx)
	if err != nil {
		return nil, err
	}
	endOfLife, err := s.CheckEndOfLife(ctx)
	if err != nil {
		return nil, err
	}

	total := utilization.Alerts + maintenance.Alerts + endOfLife.Alerts
	inserted := append(append(utilization.Inserted, maintenance.Inserted...), endOfLife.Inserted...)
	return &GenerateResult{
		Message:           fmt.Sprintf("Generated %d total alerts", total),
		UtilizationAlerts: utilization.Alerts,
		MaintenanceAlerts: maintenance.Alerts,
		EndOfLifeAlerts:   endOfLife.Alerts,
		TotalAlerts:       total,
		Inserted:          inserted,
	}, nil
}

// persistAlerts drops drafts that duplicate an unresolved alert with the same
// device, type and title, then writes the remainder in one batch.
func (s *Service) persistAlerts(ctx context.Context, drafts []database.SystemAlert) ([]database.SystemAlert, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	existing, err := s.store.GetAlerts(ctx, database.AlertFilters{Status: database.AlertStatusActive})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing alerts: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, alert := range existing {
		seen[alertKey(alert)] = true
	}

	var fresh []database.SystemAlert
	for _, draft := range drafts {
		key := alertKey(draft)
		if seen[key] {
			logrus.WithFields(logrus.Fields{
				"device_id": draft.DeviceID,
				"alert":     draft.Alert,
			}).Debug("Skipping duplicate alert")
			continue
		}
		seen[key] = true
		fresh = append(fresh, draft)
	}

	if len(fresh) == 0 {
		return nil, nil
	}
	if err := s.store.InsertAlerts(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to insert alerts: %w", err)
	}
	return fresh, nil
}

func alertKey(alert database.SystemAlert) string {
	return alert.DeviceID + "\x00" + alert.Type + "\x00" + alert.Alert
}

// TrendsResponse wraps the trends-by-date view.
type TrendsResponse struct {
	Trends []DateTrend `json:"trends"`
}

// EfficiencyResponse wraps the per-device efficiency view.
type EfficiencyResponse struct {
	Devices []DeviceEfficiency `json:"devices"`
}

// PeakUsageResponse wraps the peak-usage-by-type view.
type PeakUsageResponse struct {
	PeakUsage []TypePeak `json:"peak_usage"`
}

// SummaryResponse wraps the window summary view.
type SummaryResponse struct {
	Summary WindowSummary `json:"summary"`
}

// UtilizationTrends groups all logs by date.
func (s *Service) UtilizationTrends(ctx context.Context) (*TrendsResponse, error) {
	defer s.observe("utilization-trends", s.now())

	logs, err := s.store.GetLogs(ctx, database.LogFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch utilization logs: %w", err)
	}
	return &TrendsResponse{Trends: TrendsByDate(logs)}, nil
}

// DeviceEfficiency derives per-device scores over the trailing 30 days.
func (s *Service) DeviceEfficiency(ctx context.Context) (*EfficiencyResponse, error) {
	now := s.now()
	defer s.observe("device-efficiency", now)

	cutoff := now.AddDate(0, 0, -utilizationWindowDays).Format(database.DateLayout)
	logs, err := s.store.GetLogs(ctx, database.LogFilters{Since: cutoff})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch utilization logs: %w", err)
	}
	return &EfficiencyResponse{Devices: DeviceEfficiencyMetrics(logs)}, nil
}

// peakUsageSampleSize caps the scan at the heaviest logs on record.
const peakUsageSampleSize = 50

// PeakUsage groups the heaviest logs by device type.
func (s *Service) PeakUsage(ctx context.Context) (*PeakUsageResponse, error) {
	defer s.observe("peak-usage", s.now())

	logs, err := s.store.GetLogs(ctx, database.LogFilters{ByHours: true, Limit: peakUsageSampleSize})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch utilization logs: %w", err)
	}
	return &PeakUsageResponse{PeakUsage: PeakUsageByType(logs)}, nil
}

// UtilizationSummary computes the single trailing-window aggregate.
func (s *Service) UtilizationSummary(ctx context.Context) (*SummaryResponse, error) {
	now := s.now()
	defer s.observe("utilization-summary", now)

	cutoff := now.AddDate(0, 0, -utilizationWindowDays).Format(database.DateLayout)
	logs, err := s.store.GetLogs(ctx, database.LogFilters{Since: cutoff})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch utilization logs: %w", err)
	}

	devices, err := s.store.GetDevices(ctx, database.DeviceFilters{Status: database.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active devices: %w", err)
	}

	return &SummaryResponse{Summary: Summarize(logs, len(devices))}, nil
}

func (s *Service) observe(action string, started time.Time) {
	s.metrics.ObserveAnalyticsQuery(action, time.Since(started))
}
