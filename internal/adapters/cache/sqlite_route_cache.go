package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
)

// SQLite backed cache for origin->destination route geometries.
// Keys are expected to be consistent (e.g., already normalized)
// by the caller. Entries older than MaxAge are treated as misses;
// a zero MaxAge keeps entries forever.
type SqliteRouteCache struct {
	DB     *sql.DB
	MaxAge time.Duration
	now    func() time.Time
}

func NewSqliteRouteCache(db *sql.DB, maxAge time.Duration) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db, MaxAge: maxAge, now: time.Now}
}

// Fetch the cached geometry for origin -> destination.
func (s *SqliteRouteCache) GetRoute(
	ctx context.Context,
	origin string,
	destination string,
) (_ domain.RouteGeometry, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.sqlite.GetRoute")(&err)

	if s.DB == nil {
		return domain.RouteGeometry{}, false, errors.New("route cache: db is nil")
	}
	if _, err := routeKey(origin, destination); err != nil {
		return domain.RouteGeometry{}, false, err
	}

	q := `
	SELECT
        distance_km,
        drive_minutes,
        points,
        created_at
    FROM route_cache
    WHERE origin = ?
        AND destination = ?;
	`

	var (
		g       domain.RouteGeometry
		points  string
		created int64
	)
	err = s.DB.QueryRowContext(ctx, q, origin, destination).Scan(&g.DistanceKm, &g.DriveMinutes, &points, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteGeometry{}, false, nil
	}
	if err != nil {
		return domain.RouteGeometry{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	if s.MaxAge > 0 && s.now().Sub(time.Unix(created, 0)) > s.MaxAge {
		return domain.RouteGeometry{}, false, nil
	}

	if g.Points, err = decodePoints(points); err != nil {
		return domain.RouteGeometry{}, false, fmt.Errorf("get route cache: decode points: %w", err)
	}

	return g, true, nil
}

// Store the geometry for origin -> destination.
func (s *SqliteRouteCache) PutRoute(
	ctx context.Context,
	origin string,
	destination string,
	g domain.RouteGeometry,
) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}
	if _, err := routeKey(origin, destination); err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}

	points, err := encodePoints(g.Points)
	if err != nil {
		return fmt.Errorf("insert route cache: encode points: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_cache (
        origin,
        destination,
        distance_km,
        drive_minutes,
        points,
        created_at
    )
    VALUES (?, ?, ?, ?, ?, ?);
	`, origin, destination, g.DistanceKm, g.DriveMinutes, points, s.now().Unix())
	if err != nil {
		return fmt.Errorf("insert route cache %q -> %q: %w", origin, destination, err)
	}

	return nil
}
