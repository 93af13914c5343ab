// Package sqlite appends each run's observations to a SQLite history table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
  run_id       TEXT    NOT NULL,
  observed_at  TEXT    NOT NULL,
  city         TEXT    NOT NULL,
  temperature  REAL    NOT NULL,
  humidity     INTEGER NOT NULL,
  pressure     INTEGER NOT NULL,
  weather      TEXT    NOT NULL,
  wind_speed   REAL    NOT NULL,
  cloudiness   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_run ON observations(run_id);
CREATE INDEX IF NOT EXISTS idx_observations_city_ts ON observations(city, observed_at);
`

const insertObservation = `
INSERT INTO observations
  (run_id, observed_at, city, temperature, humidity, pressure, weather, wind_speed, cloudiness)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Archive stores observations across runs.
// It implements pipeline.Archiver.
type Archive struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path and ensures the schema.
func Open(path string) (*Archive, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// A single writer; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Archive inserts records in one transaction, tagged with runID and at.
func (a *Archive) Archive(ctx context.Context, runID string, at time.Time, records []domain.WeatherRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertObservation)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := at.UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, runID, ts, r.City, r.Temperature, r.Humidity,
			r.Pressure, r.Weather, r.WindSpeed, r.Cloudiness); err != nil {
			return fmt.Errorf("insert %q: %w", r.City, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// History returns every archived observation of city, oldest first.
func (a *Archive) History(ctx context.Context, city string) ([]domain.WeatherRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
SELECT city, temperature, humidity, pressure, weather, wind_speed, cloudiness
FROM observations WHERE city = ? ORDER BY observed_at, rowid`, city)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.WeatherRecord
	for rows.Next() {
		var r domain.WeatherRecord
		if err := rows.Scan(&r.City, &r.Temperature, &r.Humidity, &r.Pressure,
			&r.Weather, &r.WindSpeed, &r.Cloudiness); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs returns the number of distinct runs archived.
func (a *Archive) Runs(ctx context.Context) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT run_id) FROM observations`).Scan(&n)
	return n, err
}

// Close releases the underlying database handle. The Archive must not be
// used afterwards. Closing a nil Archive is a no-op.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path), nil
}
