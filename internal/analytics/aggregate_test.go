package analytics

import (
	"math"
	"testing"

	"assetwatch/internal/database"
)

func TestTrendsByDate(t *testing.T) {
	// 10 logs across 3 distinct dates
	logs := []database.UtilizationLog{
		{DeviceID: "d1", DeviceName: "A", DeviceType: "router", HoursUsed: 5, Date: "2026-08-01"},
		{DeviceID: "d2", DeviceName: "B", DeviceType: "switch", HoursUsed: 10, Date: "2026-08-01"},
		{DeviceID: "d3", DeviceName: "C", DeviceType: "modem", HoursUsed: 15, Date: "2026-08-01"},
		{DeviceID: "d1", DeviceName: "A", DeviceType: "router", HoursUsed: 20, Date: "2026-08-02"},
		{DeviceID: "d2", DeviceName: "B", DeviceType: "switch", HoursUsed: 25, Date: "2026-08-02"},
		{DeviceID: "d3", DeviceName: "C", DeviceType: "modem", HoursUsed: 30, Date: "2026-08-02"},
		{DeviceID: "d4", DeviceName: "D", DeviceType: "server", HoursUsed: 35, Date: "2026-08-02"},
		{DeviceID: "d1", DeviceName: "A", DeviceType: "router", HoursUsed: 40, Date: "2026-08-03"},
		{DeviceID: "d2", DeviceName: "B", DeviceType: "switch", HoursUsed: 45, Date: "2026-08-03"},
		{DeviceID: "d3", DeviceName: "C", DeviceType: "modem", HoursUsed: 50, Date: "2026-08-03"},
	}

	trends := TrendsByDate(logs)
	if len(trends) != 3 {
		t.Fatalf("expected 3 grouped entries, got %d", len(trends))
	}

	wantTotals := map[string]int{
		"2026-08-01": 30,
		"2026-08-02": 110,
		"2026-08-03": 135,
	}
	wantCounts := map[string]int{
		"2026-08-01": 3,
		"2026-08-02": 4,
		"2026-08-03": 3,
	}
	for _, trend := range trends {
		if trend.TotalHours != wantTotals[trend.Date] {
			t.Fatalf("date %s total %d, want %d", trend.Date, trend.TotalHours, wantTotals[trend.Date])
		}
		if trend.DeviceCount != wantCounts[trend.Date] {
			t.Fatalf("date %s count %d, want %d", trend.Date, trend.DeviceCount, wantCounts[trend.Date])
		}
		want := float64(trend.TotalHours) / float64(trend.DeviceCount)
		if trend.AverageHours != want {
			t.Fatalf("date %s average %f, want %f", trend.Date, trend.AverageHours, want)
		}
		if len(trend.Devices) != trend.DeviceCount {
			t.Fatalf("date %s breakdown has %d entries, want %d", trend.Date, len(trend.Devices), trend.DeviceCount)
		}
	}

	// sorted output
	for i := 1; i < len(trends); i++ {
		if trends[i-1].Date >= trends[i].Date {
			t.Fatalf("trends not sorted by date: %s before %s", trends[i-1].Date, trends[i].Date)
		}
	}
}

func TestDeviceEfficiencyMetrics(t *testing.T) {
	logs := []database.UtilizationLog{
		{DeviceID: "d1", DeviceName: "A", DeviceType: "router", DeviceStatus: "Active", HoursUsed: 8, Date: "2026-08-01"},
		{DeviceID: "d1", DeviceName: "A", DeviceType: "router", DeviceStatus: "Active", HoursUsed: 8, Date: "2026-08-02"},
		{DeviceID: "d1", DeviceName: "A", DeviceType: "router", DeviceStatus: "Active", HoursUsed: 4, Date: "2026-08-02"},
	}

	result := DeviceEfficiencyMetrics(logs)
	if len(result) != 1 {
		t.Fatalf("expected 1 device, got %d", len(result))
	}

	e := result[0]
	// 20 hours over 2 distinct days
	if e.TotalHours != 20 {
		t.Fatalf("total hours %d, want 20", e.TotalHours)
	}
	if e.AverageDailyHours != 10 {
		t.Fatalf("average daily hours %f, want 10", e.AverageDailyHours)
	}
	wantRate := 20.0 / 48.0 * 100
	if math.Abs(e.UtilizationRate-wantRate) > 1e-9 {
		t.Fatalf("utilization rate %f, want %f", e.UtilizationRate, wantRate)
	}
	// 20/(2*8) exceeds 1, so the score caps at 100
	if e.EfficiencyScore != 100 {
		t.Fatalf("efficiency score %f, want 100", e.EfficiencyScore)
	}
}

func TestDeviceEfficiencyBounds(t *testing.T) {
	logs := []database.UtilizationLog{
		{DeviceID: "d1", DeviceName: "A", HoursUsed: 1000, Date: "2026-08-01"},
	}
	e := DeviceEfficiencyMetrics(logs)[0]
	if e.UtilizationRate != 100 || e.EfficiencyScore != 100 {
		t.Fatalf("rates must cap at 100: %+v", e)
	}
}

func TestPeakUsageByType(t *testing.T) {
	logs := []database.UtilizationLog{
		{DeviceID: "d1", DeviceType: "router", HoursUsed: 12, Date: "2026-08-01"},
		{DeviceID: "d2", DeviceType: "router", HoursUsed: 20, Date: "2026-08-02"},
		{DeviceID: "d3", DeviceType: "switch", HoursUsed: 6, Date: "2026-08-01"},
		{DeviceID: "d1", DeviceType: "router", HoursUsed: 16, Date: "2026-08-03"},
	}

	peaks := PeakUsageByType(logs)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 types, got %d", len(peaks))
	}

	router := peaks[0]
	if router.Type != "router" {
		t.Fatalf("expected sorted types, got %s first", router.Type)
	}
	if router.PeakHours != 20 || router.PeakDate != "2026-08-02" {
		t.Fatalf("router peak %d@%s, want 20@2026-08-02", router.PeakHours, router.PeakDate)
	}
	if router.TotalUsage != 48 || router.AverageUsage != 16 {
		t.Fatalf("router totals %d/%f, want 48/16", router.TotalUsage, router.AverageUsage)
	}
}

func TestPeakUsageNoNormalization(t *testing.T) {
	logs := []database.UtilizationLog{
		{DeviceID: "d1", DeviceType: "Router", HoursUsed: 5, Date: "2026-08-01"},
		{DeviceID: "d2", DeviceType: "router", HoursUsed: 5, Date: "2026-08-01"},
	}
	if peaks := PeakUsageByType(logs); len(peaks) != 2 {
		t.Fatalf("type strings compare exactly, expected 2 groups, got %d", len(peaks))
	}
}

func TestSummarize(t *testing.T) {
	logs := []database.UtilizationLog{
		{DeviceID: "d1", HoursUsed: 10, Date: "2026-08-01"},
		{DeviceID: "d2", HoursUsed: 14, Date: "2026-08-01"},
		{DeviceID: "d1", HoursUsed: 6, Date: "2026-08-02"},
	}

	summary := Summarize(logs, 3)
	if summary.TotalHours != 30 || summary.TotalDays != 2 || summary.ActiveDevices != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.AverageDailyUsage != 15 {
		t.Fatalf("average daily usage %f, want 15", summary.AverageDailyUsage)
	}
	if summary.AverageDeviceUsage != 10 {
		t.Fatalf("average device usage %f, want 10", summary.AverageDeviceUsage)
	}
	// 30 / (3 devices * 2 days * 24h) * 100 = 20.83
	if summary.UtilizationRate != 20.83 {
		t.Fatalf("utilization rate %f, want 20.83", summary.UtilizationRate)
	}
	if summary.UtilizationRate < 0 || summary.UtilizationRate > 100 {
		t.Fatalf("utilization rate out of range: %f", summary.UtilizationRate)
	}
}

func TestSummarizeZeroDenominators(t *testing.T) {
	summary := Summarize(nil, 0)
	if summary.TotalHours != 0 || summary.TotalDays != 0 || summary.ActiveDevices != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// ratios are defined as zero, never NaN
	for _, v := range []float64{summary.AverageDailyUsage, summary.AverageDeviceUsage, summary.UtilizationRate} {
		if v != 0 || math.IsNaN(v) {
			t.Fatalf("zero-denominator ratio must be 0: %+v", summary)
		}
	}

	// logs but no active devices
	logs := []database.UtilizationLog{{DeviceID: "d1", HoursUsed: 5, Date: "2026-08-01"}}
	summary = Summarize(logs, 0)
	if summary.AverageDeviceUsage != 0 || summary.UtilizationRate != 0 {
		t.Fatalf("zero active devices must not divide: %+v", summary)
	}
	if summary.AverageDailyUsage != 5 {
		t.Fatalf("daily average should still compute: %+v", summary)
	}
}
