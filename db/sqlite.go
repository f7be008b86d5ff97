package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"drone-activity-classifier/drone"
	"drone-activity-classifier/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// SQLiteClient stores labeled telemetry rows used as training data.
type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createTelemetryTable := `
    CREATE TABLE IF NOT EXISTS telemetry (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        lat REAL NOT NULL,
        lon REAL NOT NULL,
        altitude REAL NOT NULL,
        speed REAL NOT NULL,
        distance_to_restricted REAL NOT NULL,
        label TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_telemetry_label ON telemetry(label);
    `

	if _, err := db.Exec(createTelemetryTable); err != nil {
		return fmt.Errorf("error creating telemetry table: %w", err)
	}
	return nil
}

func (db *SQLiteClient) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// StoreLabeledSamples appends rows in a single transaction.
func (db *SQLiteClient) StoreLabeledSamples(samples []drone.LabeledSample) error {
	return db.storeLabeledSamples(samples, false)
}

// ReplaceLabeledSamples clears the table and inserts samples in one
// transaction, so a reader sees either the old rows or the new ones.
func (db *SQLiteClient) ReplaceLabeledSamples(samples []drone.LabeledSample) error {
	return db.storeLabeledSamples(samples, true)
}

func (db *SQLiteClient) storeLabeledSamples(samples []drone.LabeledSample, replace bool) error {
	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if replace {
		if _, err := tx.Exec("DELETE FROM telemetry"); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear telemetry: %w", err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO telemetry (lat, lon, altitude, speed, distance_to_restricted, label)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.Exec(
			s.Sample.Latitude,
			s.Sample.Longitude,
			s.Sample.Altitude,
			s.Sample.Speed,
			s.Sample.DistanceToRestricted,
			s.Label,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("error executing statement: %w", err)
		}
	}

	return tx.Commit()
}

// GetLabeledSamples returns every row in insertion order.
func (db *SQLiteClient) GetLabeledSamples() ([]drone.LabeledSample, error) {
	rows, err := db.db.Query(`
		SELECT lat, lon, altitude, speed, distance_to_restricted, label
		FROM telemetry
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying telemetry: %w", err)
	}
	defer rows.Close()

	var samples []drone.LabeledSample
	for rows.Next() {
		var s drone.LabeledSample
		if err := rows.Scan(
			&s.Sample.Latitude,
			&s.Sample.Longitude,
			&s.Sample.Altitude,
			&s.Sample.Speed,
			&s.Sample.DistanceToRestricted,
			&s.Label,
		); err != nil {
			return nil, fmt.Errorf("error scanning telemetry row: %w", err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating telemetry rows: %w", err)
	}
	return samples, nil
}
