// internal/database/sqlitestore.go - SQLite implementation of Store
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (Store, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// modernc sqlite is not safe for concurrent writers on one file
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: path}

	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	statements := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			role TEXT NOT NULL DEFAULT 'technician',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS locations (
			id TEXT PRIMARY KEY,
			location_name TEXT NOT NULL,
			address TEXT,
			city TEXT,
			country TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			device_name TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			serial_number TEXT,
			model TEXT,
			purchase_date TEXT,
			location_id TEXT REFERENCES locations(id) ON DELETE SET NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS utilization_logs (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
			hours_used INTEGER NOT NULL CHECK (hours_used >= 0),
			date TEXT NOT NULL,
			notes TEXT,
			logged_by TEXT REFERENCES users(id),
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS system_alerts (
			id TEXT PRIMARY KEY,
			device_id TEXT REFERENCES devices(id) ON DELETE CASCADE,
			alert TEXT NOT NULL,
			description TEXT,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_logs_device ON utilization_logs(device_id);`,
		`CREATE INDEX IF NOT EXISTS idx_logs_date ON utilization_logs(date);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_status ON system_alerts(status);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}
	return nil
}

const deviceColumns = `d.id, d.device_name, d.type, d.status, d.serial_number, d.model,
	d.purchase_date, d.location_id, l.location_name, l.city, l.country,
	d.created_at, d.updated_at`

func (s *SQLiteStore) GetDevices(ctx context.Context, filters DeviceFilters) ([]Device, error) {
	query := `SELECT ` + deviceColumns + `
		FROM devices d
		LEFT JOIN locations l ON d.location_id = l.id`
	var args []any
	var where []string
	if filters.Status != "" {
		where = append(where, "d.status = ?")
		args = append(args, filters.Status)
	}
	if filters.Type != "" {
		where = append(where, "d.type = ?")
		args = append(args, filters.Type)
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY d.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}
	return devices, rows.Err()
}

func (s *SQLiteStore) GetDevice(ctx context.Context, id string) (*Device, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+`
		FROM devices d
		LEFT JOIN locations l ON d.location_id = l.id
		WHERE d.id = ?`, id)
	device, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return device, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*Device, error) {
	var d Device
	var serial, model, purchase, locID, locName, city, country sql.NullString
	var created, updated string
	if err := row.Scan(&d.ID, &d.DeviceName, &d.Type, &d.Status, &serial, &model,
		&purchase, &locID, &locName, &city, &country, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan device: %w", err)
	}
	d.SerialNumber = serial.String
	d.Model = model.String
	d.PurchaseDate = purchase.String
	d.LocationID = locID.String
	d.LocationName = locName.String
	d.City = city.String
	d.Country = country.String
	d.CreatedAt = parseTimestamp(created)
	d.UpdatedAt = parseTimestamp(updated)
	return &d, nil
}

func (s *SQLiteStore) CreateDevice(ctx context.Context, device *Device) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	device.CreatedAt = time.Now()
	device.UpdatedAt = device.CreatedAt

	_, err := s.db.ExecContext(ctx, `INSERT INTO devices
		(id, device_name, type, status, serial_number, model, purchase_date, location_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID, device.DeviceName, device.Type, device.Status,
		nullable(device.SerialNumber), nullable(device.Model), nullable(device.PurchaseDate),
		nullable(device.LocationID), formatTimestamp(device.CreatedAt), formatTimestamp(device.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateDevice(ctx context.Context, device *Device) error {
	device.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `UPDATE devices
		SET device_name = ?, type = ?, status = ?, serial_number = ?, model = ?,
		    purchase_date = ?, location_id = ?, updated_at = ?
		WHERE id = ?`,
		device.DeviceName, device.Type, device.Status,
		nullable(device.SerialNumber), nullable(device.Model), nullable(device.PurchaseDate),
		nullable(device.LocationID), formatTimestamp(device.UpdatedAt), device.ID)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteDevice(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) GetLocations(ctx context.Context) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, location_name, address, city, country, created_at, updated_at
		FROM locations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		var address, city, country sql.NullString
		var created, updated string
		if err := rows.Scan(&l.ID, &l.LocationName, &address, &city, &country, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		l.Address = address.String
		l.City = city.String
		l.Country = country.String
		l.CreatedAt = parseTimestamp(created)
		l.UpdatedAt = parseTimestamp(updated)
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *SQLiteStore) CreateLocation(ctx context.Context, location *Location) error {
	if location.ID == "" {
		location.ID = uuid.New().String()
	}
	location.CreatedAt = time.Now()
	location.UpdatedAt = location.CreatedAt

	_, err := s.db.ExecContext(ctx, `INSERT INTO locations
		(id, location_name, address, city, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		location.ID, location.LocationName, nullable(location.Address),
		nullable(location.City), nullable(location.Country),
		formatTimestamp(location.CreatedAt), formatTimestamp(location.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateLocation(ctx context.Context, location *Location) error {
	location.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `UPDATE locations
		SET location_name = ?, address = ?, city = ?, country = ?, updated_at = ?
		WHERE id = ?`,
		location.LocationName, nullable(location.Address), nullable(location.City),
		nullable(location.Country), formatTimestamp(location.UpdatedAt), location.ID)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteLocation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) GetLogs(ctx context.Context, filters LogFilters) ([]UtilizationLog, error) {
	query := `SELECT ul.id, ul.device_id, d.device_name, d.type, d.status, ul.hours_used, ul.date,
			ul.notes, ul.logged_by, ul.created_at, ul.updated_at
		FROM utilization_logs ul
		LEFT JOIN devices d ON ul.device_id = d.id`
	var args []any
	var where []string
	if filters.DeviceID != "" {
		where = append(where, "ul.device_id = ?")
		args = append(args, filters.DeviceID)
	}
	if filters.Since != "" {
		where = append(where, "ul.date >= ?")
		args = append(args, filters.Since)
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	if filters.ByHours {
		query += " ORDER BY ul.hours_used DESC"
	} else {
		query += " ORDER BY ul.date ASC"
	}
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filters.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query utilization logs: %w", err)
	}
	defer rows.Close()

	var logs []UtilizationLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

func scanLog(row rowScanner) (*UtilizationLog, error) {
	var l UtilizationLog
	var deviceName, deviceType, deviceStatus, notes, loggedBy sql.NullString
	var created, updated string
	if err := row.Scan(&l.ID, &l.DeviceID, &deviceName, &deviceType, &deviceStatus, &l.HoursUsed,
		&l.Date, &notes, &loggedBy, &created, &updated); err != nil {
		return nil, fmt.Errorf("failed to scan utilization log: %w", err)
	}
	l.DeviceName = deviceName.String
	l.DeviceType = deviceType.String
	l.DeviceStatus = deviceStatus.String
	l.Notes = notes.String
	l.LoggedBy = loggedBy.String
	l.CreatedAt = parseTimestamp(created)
	l.UpdatedAt = parseTimestamp(updated)
	return &l, nil
}

func (s *SQLiteStore) CreateLog(ctx context.Context, log *UtilizationLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	log.CreatedAt = time.Now()
	log.UpdatedAt = log.CreatedAt

	_, err := s.db.ExecContext(ctx, `INSERT INTO utilization_logs
		(id, device_id, hours_used, date, notes, logged_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.DeviceID, log.HoursUsed, log.Date, nullable(log.Notes),
		nullable(log.LoggedBy), formatTimestamp(log.CreatedAt), formatTimestamp(log.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create utilization log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateLog(ctx context.Context, log *UtilizationLog) error {
	log.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `UPDATE utilization_logs
		SET device_id = ?, hours_used = ?, date = ?, notes = ?, logged_by = ?, updated_at = ?
		WHERE id = ?`,
		log.DeviceID, log.HoursUsed, log.Date, nullable(log.Notes),
		nullable(log.LoggedBy), formatTimestamp(log.UpdatedAt), log.ID)
	if err != nil {
		return fmt.Errorf("failed to update utilization log: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteLog(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM utilization_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete utilization log: %w", err)
	}
	return requireRow(res)
}

// GetActiveDevicesWithLogs fetches every Active device together with its full
// utilization history in two queries, for a single evaluation pass.
func (s *SQLiteStore) GetActiveDevicesWithLogs(ctx context.Context) ([]DeviceWithLogs, error) {
	devices, err := s.GetDevices(ctx, DeviceFilters{Status: StatusActive})
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT ul.id, ul.device_id, d.device_name, d.type, d.status,
			ul.hours_used, ul.date, ul.notes, ul.logged_by, ul.created_at, ul.updated_at
		FROM utilization_logs ul
		JOIN devices d ON ul.device_id = d.id
		WHERE d.status = ?
		ORDER BY ul.date ASC`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs for active devices: %w", err)
	}
	defer rows.Close()

	logsByDevice := make(map[string][]UtilizationLog)
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logsByDevice[log.DeviceID] = append(logsByDevice[log.DeviceID], *log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]DeviceWithLogs, 0, len(devices))
	for _, device := range devices {
		result = append(result, DeviceWithLogs{
			Device: device,
			Logs:   logsByDevice[device.ID],
		})
	}
	return result, nil
}

func (s *SQLiteStore) GetAlerts(ctx context.Context, filters AlertFilters) ([]SystemAlert, error) {
	query := `SELECT sa.id, sa.device_id, d.device_name, d.type, sa.alert, sa.description,
			sa.type, sa.severity, sa.status, sa.created_at, sa.updated_at
		FROM system_alerts sa
		LEFT JOIN devices d ON sa.device_id = d.id`
	var args []any
	var where []string
	if filters.DeviceID != "" {
		where = append(where, "sa.device_id = ?")
		args = append(args, filters.DeviceID)
	}
	if filters.Status != "" {
		where = append(where, "sa.status = ?")
		args = append(args, filters.Status)
	}
	if filters.Type != "" {
		where = append(where, "sa.type = ?")
		args = append(args, filters.Type)
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY sa.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []SystemAlert
	for rows.Next() {
		var a SystemAlert
		var deviceID, deviceName, deviceType, description sql.NullString
		var created, updated string
		if err := rows.Scan(&a.ID, &deviceID, &deviceName, &deviceType, &a.Alert, &description,
			&a.Type, &a.Severity, &a.Status, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.DeviceID = deviceID.String
		a.DeviceName = deviceName.String
		a.DeviceType = deviceType.String
		a.Description = description.String
		a.CreatedAt = parseTimestamp(created)
		a.UpdatedAt = parseTimestamp(updated)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// InsertAlerts writes a batch of alert drafts in one transaction. Either every
// alert is committed or none are.
func (s *SQLiteStore) InsertAlerts(ctx context.Context, alerts []SystemAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin alert insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO system_alerts
		(id, device_id, alert, description, type, severity, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare alert insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := range alerts {
		if alerts[i].ID == "" {
			alerts[i].ID = uuid.New().String()
		}
		alerts[i].CreatedAt = now
		alerts[i].UpdatedAt = now
		if _, err := stmt.ExecContext(ctx, alerts[i].ID, nullable(alerts[i].DeviceID),
			alerts[i].Alert, nullable(alerts[i].Description), alerts[i].Type,
			alerts[i].Severity, alerts[i].Status, formatTimestamp(now), formatTimestamp(now)); err != nil {
			return fmt.Errorf("failed to insert alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ResolveAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE system_alerts SET status = ?, updated_at = ? WHERE id = ?`,
		AlertStatusResolved, formatTimestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT id, email, role, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Role, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.CreatedAt = parseTimestamp(created)
	return &u, nil
}

// EnsureUser returns the user with the given email, creating it if missing.
func (s *SQLiteStore) EnsureUser(ctx context.Context, email, role string) (*User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	user = &User{
		ID:        uuid.New().String(),
		Email:     email,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO users (id, email, role, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.Role, formatTimestamp(user.CreatedAt)); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats

	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'Active' THEN 1 END),
			COUNT(CASE WHEN status = 'Inactive' THEN 1 END),
			COUNT(CASE WHEN status = 'Maintenance' THEN 1 END),
			COUNT(CASE WHEN status = 'Decommissioned' THEN 1 END)
		FROM devices`).
		Scan(&stats.TotalDevices, &stats.AvailableDevices, &stats.InUseDevices,
			&stats.MaintenanceDevices, &stats.DecommissionedDevices)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM system_alerts WHERE status = ?`,
		AlertStatusActive).Scan(&stats.ActiveAlerts); err != nil {
		return nil, fmt.Errorf("failed to count active alerts: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`).Scan(&stats.Locations); err != nil {
		return nil, fmt.Errorf("failed to count locations: %w", err)
	}

	return &stats, nil
}

func (s *SQLiteStore) GetDeviceTypeCounts(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) as count
		FROM devices GROUP BY type ORDER BY count DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to count device types: %w", err)
	}
	defer rows.Close()

	var counts []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) GetMonthlyUsage(ctx context.Context, since string) ([]MonthlyUsage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT strftime('%Y-%m', date) AS ym, SUM(hours_used)
		FROM utilization_logs
		WHERE date >= ?
		GROUP BY ym
		ORDER BY ym ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly usage: %w", err)
	}
	defer rows.Close()

	var usage []MonthlyUsage
	for rows.Next() {
		var ym string
		var hours int
		if err := rows.Scan(&ym, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan monthly usage: %w", err)
		}
		month := ym
		if t, err := time.Parse("2006-01", ym); err == nil {
			month = t.Format("Jan")
		}
		usage = append(usage, MonthlyUsage{Month: month, UsageHours: hours})
	}
	return usage, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
