package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ev-route-service/internal/platform/db"
)

var sqliteSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS charging_stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		connectors TEXT NOT NULL DEFAULT '[]',
		max_kw REAL NOT NULL,
		operational INTEGER NOT NULL DEFAULT 1
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_charging_stations_lat_lon
	ON charging_stations(lat, lon);
	`,
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon REAL NOT NULL,
		lat REAL NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS route_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_km REAL NOT NULL,
		drive_minutes REAL NOT NULL,
		points TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`,
}

var postgresSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS charging_stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		connectors TEXT NOT NULL DEFAULT '[]',
		max_kw DOUBLE PRECISION NOT NULL,
		operational BOOLEAN NOT NULL DEFAULT TRUE
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_charging_stations_lat_lon
	ON charging_stations(lat, lon);
	`,
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS route_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		drive_minutes DOUBLE PRECISION NOT NULL,
		points TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (origin, destination)
	);
	`,
}

// InitSchema creates the station and cache tables for the given dialect.
func InitSchema(ctx context.Context, conn *sql.DB, dialect string) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	var statements []string
	switch dialect {
	case db.DialectSQLite:
		statements = sqliteSchema
	case db.DialectPostgres:
		statements = postgresSchema
	default:
		return fmt.Errorf("init schema: unsupported dialect %q", dialect)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
