// Package store persists detections and scanner state to SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"raydar-sim/internal/telemetry"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a SQLite sink implementing the detection and state writers.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it to the
// latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// MigrateUp runs all pending migrations. No pending migrations is not an error.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// m.Close would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current schema version and dirty state.
func (s *Store) MigrateVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf("[migrate] "+format, v...))
}

func (migrateLogger) Verbose() bool { return false }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// WriteDetection implements the detection writer.
func (s *Store) WriteDetection(d telemetry.DetectionRow) error {
	return s.WriteDetections([]telemetry.DetectionRow{d})
}

// WriteDetections inserts rows in one transaction.
func (s *Store) WriteDetections(rows []telemetry.DetectionRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO detections
		(site_id, target_id, callsign, x, y, target_range, bearing_deg, heading_deg, speed, sim_time_s, ts_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, d := range rows {
		if _, err := stmt.Exec(d.SiteID, d.TargetID, d.Callsign, d.X, d.Y, d.Range, d.Bearing,
			d.Heading, d.Speed, d.SimTime, d.Timestamp.UnixMilli()); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert detection %s: %w", d.TargetID, err)
		}
	}
	return tx.Commit()
}

// WriteState implements the state writer.
func (s *Store) WriteState(r telemetry.ScannerStateRow) error {
	_, err := s.db.Exec(`INSERT INTO scanner_state
		(site_id, angle_deg, radius, center_x, center_y, rpm, targets, visible, detections, sim_time_s, ts_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SiteID, r.AngleDeg, r.Radius, r.CenterX, r.CenterY, r.RPM, r.Targets, r.Visible,
		r.Detections, r.SimTime, r.Timestamp.UnixMilli())
	return err
}

// Detections returns stored detections in time order. An empty callsign
// matches every target; limit <= 0 means no limit.
func (s *Store) Detections(ctx context.Context, callsign string, limit int) ([]telemetry.DetectionRow, error) {
	q := `SELECT site_id, target_id, callsign, x, y, target_range, bearing_deg, heading_deg, speed, sim_time_s, ts_ms
		FROM detections WHERE (? = '' OR callsign = ?) ORDER BY ts_ms, sim_time_s`
	args := []any{callsign, callsign}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []telemetry.DetectionRow
	for rows.Next() {
		var (
			d  telemetry.DetectionRow
			ms int64
		)
		if err := rows.Scan(&d.SiteID, &d.TargetID, &d.Callsign, &d.X, &d.Y, &d.Range, &d.Bearing,
			&d.Heading, &d.Speed, &d.SimTime, &ms); err != nil {
			return nil, err
		}
		d.Timestamp = time.UnixMilli(ms).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// StateCount returns the number of stored scanner state rows.
func (s *Store) StateCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scanner_state`).Scan(&n)
	return n, err
}
