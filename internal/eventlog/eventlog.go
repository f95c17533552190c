// Package eventlog records obstacle alert events in a local SQLite
// database so a service technician can review when and how close the
// system alerted. It stores events only, never configuration.
package eventlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Event is one recorded obstacle alert.
type Event struct {
	ID          string
	Timestamp   time.Time
	ProximityCm float64
	ThresholdCm float64
	Mode        string
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the event database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event database: %w", err)
	}

	// WAL keeps tick-path writes from blocking on readers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS alert_events (
			id TEXT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			proximity_cm REAL NOT NULL,
			threshold_cm REAL NOT NULL,
			mode TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_events_time ON alert_events(timestamp DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Record stores one alert event. A missing ID or timestamp is filled in.
func (s *Store) Record(e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO alert_events (id, timestamp, proximity_cm, threshold_cm, mode)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.ProximityCm, e.ThresholdCm, e.Mode,
	)
	if err != nil {
		return fmt.Errorf("failed to record alert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, timestamp, proximity_cm, threshold_cm, mode
		 FROM alert_events ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ProximityCm, &e.ThresholdCm, &e.Mode); err != nil {
			return nil, fmt.Errorf("failed to scan alert event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
