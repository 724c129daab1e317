package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
)

// SQLStationRepository is a Postgres-backed StationRepository.
type SQLStationRepository struct{ DB *sql.DB }

func NewSQLStationRepository(db *sql.DB) *SQLStationRepository {
	return &SQLStationRepository{DB: db}
}

// Return stations within radiusKm of position, ordered by distance.
func (s *SQLStationRepository) StationsNear(
	ctx context.Context,
	position domain.Coordinates,
	radiusKm float64,
) (_ []domain.ChargingStation, err error) {
	defer obs.Time(ctx, "stations.sql.StationsNear")(&err)

	if s.DB == nil {
		return nil, errors.New("sql station repository: DB is nil")
	}
	if err := validateQuery("stations near", position, radiusKm); err != nil {
		return nil, err
	}

	box := boxAround(position, radiusKm)
	q := `
	SELECT id, name, lat, lon, connectors, max_kw, operational
    FROM charging_stations
    WHERE lat BETWEEN $1 AND $2
        AND lon BETWEEN $3 AND $4
    ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, q, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("stations near: query charging_stations table: %w", err)
	}
	defer rows.Close()

	found := make([]domain.ChargingStation, 0, 64)
	for rows.Next() {
		var (
			st         domain.ChargingStation
			connectors string
		)
		if err := rows.Scan(&st.ID, &st.Name, &st.Position.Lat, &st.Position.Lon, &connectors, &st.MaxKw, &st.Operational); err != nil {
			return nil, fmt.Errorf("stations near: scan row: %w", err)
		}
		if st.Connectors, err = decodeConnectors(connectors); err != nil {
			return nil, fmt.Errorf("stations near: station %q connectors: %w", st.ID, err)
		}
		found = append(found, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stations near: row iteration: %w", err)
	}

	return withinRadius(found, position, radiusKm), nil
}

// Insert or update stations by id.
func (s *SQLStationRepository) UpsertStations(ctx context.Context, stations []domain.ChargingStation) error {
	if s.DB == nil {
		return errors.New("sql station repository: DB is nil")
	}
	if len(stations) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert stations: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO charging_stations (id, name, lat, lon, connectors, max_kw, operational)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		connectors = EXCLUDED.connectors,
		max_kw = EXCLUDED.max_kw,
		operational = EXCLUDED.operational;
	`)
	if err != nil {
		return fmt.Errorf("upsert stations: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, st := range stations {
		connectors, err := encodeConnectors(st.Connectors)
		if err != nil {
			return fmt.Errorf("upsert stations: station %q connectors: %w", st.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, st.ID, st.Name, st.Position.Lat, st.Position.Lon, connectors, st.MaxKw, st.Operational); err != nil {
			return fmt.Errorf("upsert stations id=%q: %w", st.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert stations commit: %w", err)
	}

	return nil
}
