package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
)

// SQLite-backed implementation of the StationRepository port.
type SqliteStationRepository struct{ DB *sql.DB }

func NewSqliteStationRepository(db *sql.DB) *SqliteStationRepository {
	return &SqliteStationRepository{DB: db}
}

// Return stations within radiusKm of position, ordered by distance.
func (s *SqliteStationRepository) StationsNear(
	ctx context.Context,
	position domain.Coordinates,
	radiusKm float64,
) (_ []domain.ChargingStation, err error) {
	defer obs.Time(ctx, "stations.sqlite.StationsNear")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite station repository: DB is nil")
	}
	if err := validateQuery("stations near", position, radiusKm); err != nil {
		return nil, err
	}

	box := boxAround(position, radiusKm)
	query := `
	SELECT
		id,
		name,
		lat,
		lon,
		connectors,
		max_kw,
		operational
	FROM charging_stations
	WHERE lat BETWEEN ? AND ?
		AND lon BETWEEN ? AND ?
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("stations near: query charging_stations table: %w", err)
	}
	defer rows.Close()

	found := make([]domain.ChargingStation, 0, 64)
	for rows.Next() {
		var (
			st          domain.ChargingStation
			connectors  string
			operational int
		)
		if err := rows.Scan(&st.ID, &st.Name, &st.Position.Lat, &st.Position.Lon, &connectors, &st.MaxKw, &operational); err != nil {
			return nil, fmt.Errorf("stations near: scan row: %w", err)
		}
		if st.Connectors, err = decodeConnectors(connectors); err != nil {
			return nil, fmt.Errorf("stations near: station %q connectors: %w", st.ID, err)
		}
		st.Operational = operational != 0
		found = append(found, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stations near: row iteration: %w", err)
	}

	return withinRadius(found, position, radiusKm), nil
}

// Insert or replace stations by id.
func (s *SqliteStationRepository) UpsertStations(ctx context.Context, stations []domain.ChargingStation) error {
	if s.DB == nil {
		return errors.New("sqlite station repository: DB is nil")
	}
	if len(stations) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert stations: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO charging_stations (
		id,
		name,
		lat,
		lon,
		connectors,
		max_kw,
		operational
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("upsert stations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stations {
		connectors, err := encodeConnectors(st.Connectors)
		if err != nil {
			return fmt.Errorf("upsert stations: station %q connectors: %w", st.ID, err)
		}
		operational := 0
		if st.Operational {
			operational = 1
		}
		if _, err := stmt.ExecContext(ctx, st.ID, st.Name, st.Position.Lat, st.Position.Lon, connectors, st.MaxKw, operational); err != nil {
			return fmt.Errorf("upsert stations: insert id=%q: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert stations: commit tx: %w", err)
	}

	return nil
}
