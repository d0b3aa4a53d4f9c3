package analytics

import (
	"strings"
	"testing"
	"time"

	"assetwatch/internal/database"
)

func date(v string) time.Time {
	t, err := time.Parse(database.DateLayout, v)
	if err != nil {
		panic(err)
	}
	return t
}

func activeDevice(id, name string, purchase string) database.Device {
	return database.Device{
		ID:           id,
		DeviceName:   name,
		Type:         "router",
		Status:       database.StatusActive,
		Model:        "RX-100",
		PurchaseDate: purchase,
	}
}

func TestUtilizationAverageUsesFixedDivisor(t *testing.T) {
	now := date("2026-08-30")
	device := activeDevice("d1", "Core Router", "2024-01-01")

	// 3 hours over the window: average is 3/30 = 0.1, not 3/1
	logs := []database.UtilizationLog{
		{DeviceID: "d1", HoursUsed: 3, Date: "2026-08-20"},
	}

	alerts := EvaluateUtilization(device, logs, now)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != database.SeverityLow {
		t.Fatalf("expected low severity, got %s", alerts[0].Severity)
	}
	if !strings.Contains(alerts[0].Description, "0.1 hours per day") {
		t.Fatalf("description should report 0.1 hours per day: %s", alerts[0].Description)
	}
}

func TestUtilizationIgnoresLogsOutsideWindow(t *testing.T) {
	now := date("2026-08-30")
	device := activeDevice("d1", "Core Router", "2024-01-01")

	// 70 hours per day, but all before the 30-day cutoff
	var logs []database.UtilizationLog
	for i := 0; i < 10; i++ {
		logs = append(logs, database.UtilizationLog{DeviceID: "d1", HoursUsed: 70, Date: "2026-06-01"})
	}

	alerts := EvaluateUtilization(device, logs, now)
	if len(alerts) != 1 || !strings.HasPrefix(alerts[0].Alert, "Low Utilization") {
		t.Fatalf("stale logs must not count toward the window: %+v", alerts)
	}
}

func TestHighUtilization(t *testing.T) {
	now := date("2026-08-30")
	device := activeDevice("d1", "Edge Switch", "2026-01-01")

	// 30 x 21h = 630 hours, average 21 > 20
	var logs []database.UtilizationLog
	for day := 1; day <= 30; day++ {
		logs = append(logs, database.UtilizationLog{
			DeviceID:  "d1",
			HoursUsed: 21,
			Date:      time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC).Format(database.DateLayout),
		})
	}

	alerts := EvaluateUtilization(device, logs, now)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != database.SeverityHigh {
		t.Fatalf("expected high severity, got %s", alerts[0].Severity)
	}
}

func TestNonActiveDeviceNeverAlerts(t *testing.T) {
	now := date("2026-08-30")
	for _, status := range []string{database.StatusInactive, database.StatusMaintenance, database.StatusDecommissioned} {
		device := database.Device{
			ID:           "d1",
			DeviceName:   "Old Modem",
			Status:       status,
			PurchaseDate: "2015-01-01", // 11 years in service
		}
		if alerts := EvaluateUtilization(device, nil, now); len(alerts) != 0 {
			t.Fatalf("status %s produced utilization alerts", status)
		}
		if alerts := EvaluateMaintenance(device, now); len(alerts) != 0 {
			t.Fatalf("status %s produced maintenance alerts", status)
		}
		if alerts := EvaluateEndOfLife(device, now); len(alerts) != 0 {
			t.Fatalf("status %s produced end-of-life alerts", status)
		}
	}
}

func TestAnnualMaintenanceBoundary(t *testing.T) {
	now := date("2026-08-30")

	// exactly 12 months ago to the day
	onTheDay := activeDevice("d1", "Router A", "2025-08-30")
	alerts := EvaluateMaintenance(onTheDay, now)
	if len(alerts) != 1 || !strings.HasPrefix(alerts[0].Alert, "Annual Maintenance Due") {
		t.Fatalf("device purchased exactly 12 months ago must trigger: %+v", alerts)
	}

	// one day short of 12 months
	oneDayShort := activeDevice("d2", "Router B", "2025-08-31")
	if alerts := EvaluateMaintenance(oneDayShort, now); len(alerts) != 0 {
		t.Fatalf("device at 11 months 30 days must not trigger: %+v", alerts)
	}
}

func TestWarrantyExpired(t *testing.T) {
	now := date("2026-08-30")

	// 50 months in service: annual maintenance and warranty, but under 5 years
	device := activeDevice("d1", "D1", "2022-06-15")
	alerts := EvaluateMaintenance(device, now)
	if len(alerts) != 2 {
		t.Fatalf("expected annual + warranty alerts, got %d", len(alerts))
	}
	if !strings.HasPrefix(alerts[1].Alert, "Warranty Expired") {
		t.Fatalf("expected warranty alert, got %s", alerts[1].Alert)
	}
	if alerts[1].Type != database.AlertTypeEndOfLife || alerts[1].Severity != database.SeverityHigh {
		t.Fatalf("warranty alert has wrong type/severity: %+v", alerts[1])
	}

	if eol := EvaluateEndOfLife(device, now); len(eol) != 0 {
		t.Fatalf("device under 5 years must not trigger end of life: %+v", eol)
	}
}

func TestEndOfLifeTiers(t *testing.T) {
	now := date("2026-08-30")

	fiveYears := activeDevice("d1", "Old Router", "2021-03-01")
	alerts := EvaluateEndOfLife(fiveYears, now)
	if len(alerts) != 1 || !strings.HasPrefix(alerts[0].Alert, "End of Life") {
		t.Fatalf("5-year device should trigger one alert: %+v", alerts)
	}

	sevenYears := activeDevice("d2", "Ancient Switch", "2019-03-01")
	alerts = EvaluateEndOfLife(sevenYears, now)
	if len(alerts) != 2 {
		t.Fatalf("7-year device should trigger both tiers, got %d", len(alerts))
	}
	if !strings.HasPrefix(alerts[1].Alert, "Critical End of Life") {
		t.Fatalf("expected critical tier, got %s", alerts[1].Alert)
	}
	for _, alert := range alerts {
		if alert.Severity != database.SeverityCritical {
			t.Fatalf("end-of-life alerts must be critical: %+v", alert)
		}
	}
}

func TestMalformedPurchaseDateSkipsDateRules(t *testing.T) {
	now := date("2026-08-30")

	device := activeDevice("d1", "Mystery Box", "not-a-date")
	if alerts := EvaluateMaintenance(device, now); len(alerts) != 0 {
		t.Fatalf("malformed purchase date must skip maintenance rules: %+v", alerts)
	}
	if alerts := EvaluateEndOfLife(device, now); len(alerts) != 0 {
		t.Fatalf("malformed purchase date must skip end-of-life rules: %+v", alerts)
	}

	// utilization rules do not depend on the purchase date
	if alerts := EvaluateUtilization(device, nil, now); len(alerts) != 1 {
		t.Fatalf("utilization rule should still evaluate: %+v", alerts)
	}
}

func TestRulesAreIndependent(t *testing.T) {
	now := date("2026-08-30")

	// low utilization + warranty expired in one pass, per device D1
	device := activeDevice("d1", "D1", "2022-06-15")
	logs := []database.UtilizationLog{{DeviceID: "d1", HoursUsed: 3, Date: "2026-08-25"}}

	var all []database.SystemAlert
	all = append(all, EvaluateUtilization(device, logs, now)...)
	all = append(all, EvaluateMaintenance(device, now)...)
	all = append(all, EvaluateEndOfLife(device, now)...)

	var low, warranty int
	seen := make(map[string]int)
	for _, alert := range all {
		seen[alert.Alert]++
		if strings.HasPrefix(alert.Alert, "Low Utilization") {
			low++
		}
		if strings.HasPrefix(alert.Alert, "Warranty Expired") {
			warranty++
		}
	}
	if low != 1 || warranty != 1 {
		t.Fatalf("expected exactly one low-utilization and one warranty alert: %+v", seen)
	}
	for title, count := range seen {
		if count > 1 {
			t.Fatalf("duplicate alert %q in one pass", title)
		}
	}
}

func TestMonthsInService(t *testing.T) {
	now := date("2026-08-30")

	cases := []struct {
		purchase string
		want     int
		ok       bool
	}{
		{"2026-08-30", 0, true},
		{"2026-07-31", 0, true}, // day not yet reached
		{"2026-07-30", 1, true},
		{"2025-08-30", 12, true},
		{"2020-01-01", 79, true},
		{"", 0, false},
		{"2026/08/30", 0, false},
	}
	for _, tc := range cases {
		got, ok := monthsInService(tc.purchase, now)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("monthsInService(%q) = %d,%v want %d,%v", tc.purchase, got, ok, tc.want, tc.ok)
		}
	}
}
