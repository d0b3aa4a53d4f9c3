// internal/analytics/aggregate.go - Utilization aggregation
package analytics

import (
	"math"
	"sort"

	"assetwatch/internal/database"
)

// TrendDevice is one device's contribution to a single date's trend entry.
type TrendDevice struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Hours int    `json:"hours"`
}

// DateTrend is the per-date rollup of utilization logs.
type DateTrend struct {
	Date         string        `json:"date"`
	TotalHours   int           `json:"total_hours"`
	DeviceCount  int           `json:"device_count"`
	AverageHours float64       `json:"average_hours"`
	Devices      []TrendDevice `json:"devices"`
}

// DeviceEfficiency carries the derived per-device usage metrics.
type DeviceEfficiency struct {
	DeviceID          string  `json:"device_id"`
	DeviceName        string  `json:"device_name"`
	Type              string  `json:"type"`
	Status            string  `json:"status"`
	TotalHours        int     `json:"total_hours"`
	AverageDailyHours float64 `json:"average_daily_hours"`
	UtilizationRate   float64 `json:"utilization_rate"`
	EfficiencyScore   float64 `json:"efficiency_score"`
}

// TypePeak tracks the single highest-hours log per device type.
type TypePeak struct {
	Type         string  `json:"type"`
	PeakHours    int     `json:"peak_hours"`
	PeakDate     string  `json:"peak_date"`
	TotalUsage   int     `json:"total_usage"`
	AverageUsage float64 `json:"average_usage"`
}

// WindowSummary is the single-window aggregate over all logs and devices.
type WindowSummary struct {
	TotalHours         int     `json:"total_hours"`
	TotalDays          int     `json:"total_days"`
	ActiveDevices      int     `json:"active_devices"`
	AverageDailyUsage  float64 `json:"average_daily_usage"`
	AverageDeviceUsage float64 `json:"average_device_usage"`
	UtilizationRate    float64 `json:"utilization_rate"`
}

// TrendsByDate groups logs by calendar date. Each entry's average is the
// date's total divided by the number of contributing logs. Output is sorted
// by date.
func TrendsByDate(logs []database.UtilizationLog) []DateTrend {
	byDate := make(map[string]*DateTrend)
	for _, log := range logs {
		trend, ok := byDate[log.Date]
		if !ok {
			trend = &DateTrend{Date: log.Date}
			byDate[log.Date] = trend
		}
		trend.TotalHours += log.HoursUsed
		trend.DeviceCount++
		trend.Devices = append(trend.Devices, TrendDevice{
			Name:  log.DeviceName,
			Type:  log.DeviceType,
			Hours: log.HoursUsed,
		})
	}

	trends := make([]DateTrend, 0, len(byDate))
	for _, trend := range byDate {
		if trend.DeviceCount > 0 {
			trend.AverageHours = float64(trend.TotalHours) / float64(trend.DeviceCount)
		}
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends
}

// DeviceEfficiencyMetrics groups logs by device and derives usage scores.
// The utilization rate compares total hours against a 24-hour day for every
// distinct day with a log; the efficiency score compares against an 8-hour
// workday. Both are capped at 100. A device with no distinct days scores 0.
func DeviceEfficiencyMetrics(logs []database.UtilizationLog) []DeviceEfficiency {
	type deviceAcc struct {
		efficiency DeviceEfficiency
		days       map[string]struct{}
	}

	byDevice := make(map[string]*deviceAcc)
	for _, log := range logs {
		acc, ok := byDevice[log.DeviceID]
		if !ok {
			acc = &deviceAcc{
				efficiency: DeviceEfficiency{
					DeviceID:   log.DeviceID,
					DeviceName: log.DeviceName,
					Type:       log.DeviceType,
					Status:     log.DeviceStatus,
				},
				days: make(map[string]struct{}),
			}
			byDevice[log.DeviceID] = acc
		}
		acc.efficiency.TotalHours += log.HoursUsed
		acc.days[log.Date] = struct{}{}
	}

	result := make([]DeviceEfficiency, 0, len(byDevice))
	for _, acc := range byDevice {
		e := acc.efficiency
		days := len(acc.days)
		if days > 0 {
			total := float64(e.TotalHours)
			e.AverageDailyHours = total / float64(days)
			e.UtilizationRate = math.Min(total/(float64(days)*24), 1) * 100
			e.EfficiencyScore = math.Min(total/(float64(days)*8), 1) * 100
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DeviceName < result[j].DeviceName })
	return result
}

// PeakUsageByType groups logs by device type, keeping the highest single log
// per type and the running average across that type's logs. Types compare as
// exact strings, no normalization. Output is sorted by type.
func PeakUsageByType(logs []database.UtilizationLog) []TypePeak {
	type peakAcc struct {
		peak  TypePeak
		count int
	}

	byType := make(map[string]*peakAcc)
	for _, log := range logs {
		acc, ok := byType[log.DeviceType]
		if !ok {
			acc = &peakAcc{peak: TypePeak{Type: log.DeviceType}}
			byType[log.DeviceType] = acc
		}
		if log.HoursUsed > acc.peak.PeakHours {
			acc.peak.PeakHours = log.HoursUsed
			acc.peak.PeakDate = log.Date
		}
		acc.peak.TotalUsage += log.HoursUsed
		acc.count++
	}

	result := make([]TypePeak, 0, len(byType))
	for _, acc := range byType {
		if acc.count > 0 {
			acc.peak.AverageUsage = float64(acc.peak.TotalUsage) / float64(acc.count)
		}
		result = append(result, acc.peak)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// Summarize computes the single aggregate over a log window. Every derived
// ratio with a zero denominator is reported as 0 rather than NaN.
func Summarize(logs []database.UtilizationLog, activeDevices int) WindowSummary {
	summary := WindowSummary{ActiveDevices: activeDevices}

	days := make(map[string]struct{})
	for _, log := range logs {
		summary.TotalHours += log.HoursUsed
		days[log.Date] = struct{}{}
	}
	summary.TotalDays = len(days)

	total := float64(summary.TotalHours)
	if summary.TotalDays > 0 {
		summary.AverageDailyUsage = round2(total / float64(summary.TotalDays))
	}
	if activeDevices > 0 {
		summary.AverageDeviceUsage = round2(total / float64(activeDevices))
	}
	if summary.TotalDays > 0 && activeDevices > 0 {
		summary.UtilizationRate = round2(total / (float64(activeDevices) * float64(summary.TotalDays) * 24) * 100)
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
