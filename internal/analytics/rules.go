// internal/analytics/rules.go - Alert rule evaluation
package analytics

import (
	"fmt"
	"time"

	"assetwatch/internal/database"
)

// Threshold constants for the fixed rule set.
const (
	utilizationWindowDays = 30
	lowUtilizationAvg     = 2.0  // hours per day
	highUtilizationAvg    = 20.0 // hours per day
	maintenanceDueMonths  = 12
	warrantyMonths        = 36
	endOfLifeYears        = 5
	criticalEndOfLifeYears = 7
)

// EvaluateUtilization applies the trailing-window utilization rules to one
// device. Average daily hours divides the window total by the full window
// length, not by the number of days that have logs.
func EvaluateUtilization(device database.Device, logs []database.UtilizationLog, now time.Time) []database.SystemAlert {
	if device.Status != database.StatusActive {
		return nil
	}

	cutoff := now.AddDate(0, 0, -utilizationWindowDays).Format(database.DateLayout)
	totalHours := 0
	for _, log := range logs {
		if log.HoursUsed < 0 {
			continue
		}
		if log.Date >= cutoff {
			totalHours += log.HoursUsed
		}
	}
	averageDaily := float64(totalHours) / float64(utilizationWindowDays)

	var alerts []database.SystemAlert

	if averageDaily < lowUtilizationAvg {
		alerts = append(alerts, database.SystemAlert{
			DeviceID: device.ID,
			Alert:    fmt.Sprintf("Low Utilization - %s", device.DeviceName),
			Description: fmt.Sprintf("%s has been underutilized with an average of %.1f hours per day over the last 30 days.",
				device.DeviceName, averageDaily),
			Type:     database.AlertTypeMaintenance,
			Severity: database.SeverityLow,
			Status:   database.AlertStatusActive,
		})
	}

	if averageDaily > highUtilizationAvg {
		alerts = append(alerts, database.SystemAlert{
			DeviceID: device.ID,
			Alert:    fmt.Sprintf("High Utilization - %s", device.DeviceName),
			Description: fmt.Sprintf("%s has been heavily utilized with an average of %.1f hours per day over the last 30 days. Consider maintenance.",
				device.DeviceName, averageDaily),
			Type:     database.AlertTypeMaintenance,
			Severity: database.SeverityHigh,
			Status:   database.AlertStatusActive,
		})
	}

	return alerts
}

// EvaluateMaintenance applies the service-age maintenance rules. A device
// whose purchase date is missing or unparseable is skipped, never aborted on.
func EvaluateMaintenance(device database.Device, now time.Time) []database.SystemAlert {
	if device.Status != database.StatusActive {
		return nil
	}

	months, ok := monthsInService(device.PurchaseDate, now)
	if !ok {
		return nil
	}

	var alerts []database.SystemAlert

	if months >= maintenanceDueMonths {
		alerts = append(alerts, database.SystemAlert{
			DeviceID: device.ID,
			Alert:    fmt.Sprintf("Annual Maintenance Due - %s", device.DeviceName),
			Description: fmt.Sprintf("%s has been in service for %d months and is due for annual maintenance.",
				device.DeviceName, months),
			Type:     database.AlertTypeMaintenance,
			Severity: database.SeverityMedium,
			Status:   database.AlertStatusActive,
		})
	}

	if months >= warrantyMonths {
		alerts = append(alerts, database.SystemAlert{
			DeviceID: device.ID,
			Alert:    fmt.Sprintf("Warranty Expired - %s", device.DeviceName),
			Description: fmt.Sprintf("%s warranty has expired. Consider replacement or extended support.",
				device.DeviceName),
			Type:     database.AlertTypeEndOfLife,
			Severity: database.SeverityHigh,
			Status:   database.AlertStatusActive,
		})
	}

	return alerts
}

// EvaluateEndOfLife applies the end-of-life rules based on full years in
// service.
func EvaluateEndOfLife(device database.Device, now time.Time) []database.SystemAlert {
	if device.Status != database.StatusActive {
		return nil
	}

	months, ok := monthsInService(device.PurchaseDate, now)
	if !ok {
		return nil
	}
	years := months / 12

	var alerts []database.SystemAlert

	if years >= endOfLifeYears {
		alerts = append(alerts, database.SystemAlert{
			DeviceID: device.ID,
			Alert:    fmt.Sprintf("End of Life - %s", device.DeviceName),
			Description: fmt.Sprintf("%s (%s) has been in service for %d years and may be approaching end of life. Consider replacement planning.",
				device.DeviceName, device.Model, years),
			Type:     database.AlertTypeEndOfLife,
			Severity: database.SeverityCritical,
			Status:   database.AlertStatusActive,
		})
	}

	if years >= criticalEndOfLifeYears {
		alerts = append(alerts, database.SystemAlert{
			DeviceID: device.ID,
			Alert:    fmt.Sprintf("Critical End of Life - %s", device.DeviceName),
			Description: fmt.Sprintf("%s (%s) has been in service for %d years and should be replaced immediately.",
				device.DeviceName, device.Model, years),
			Type:     database.AlertTypeEndOfLife,
			Severity: database.SeverityCritical,
			Status:   database.AlertStatusActive,
		})
	}

	return alerts
}

// monthsInService returns the whole calendar months elapsed since the purchase
// date. A device purchased exactly N months ago to the day counts N; one day
// short of that counts N-1.
func monthsInService(purchaseDate string, now time.Time) (int, bool) {
	if purchaseDate == "" {
		return 0, false
	}
	purchased, err := time.Parse(database.DateLayout, purchaseDate)
	if err != nil {
		return 0, false
	}
	if purchased.After(now) {
		return 0, true
	}

	months := (now.Year()-purchased.Year())*12 + int(now.Month()) - int(purchased.Month())
	if now.Day() < purchased.Day() {
		months--
	}
	return months, true
}
