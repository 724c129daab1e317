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

// SQLRouteCache is a Postgres-backed cache for origin->destination route geometries.
type SQLRouteCache struct {
	DB     *sql.DB
	MaxAge time.Duration
}

func NewSQLRouteCache(db *sql.DB, maxAge time.Duration) *SQLRouteCache {
	return &SQLRouteCache{DB: db, MaxAge: maxAge}
}

// Fetch the cached geometry for origin -> destination.
func (s *SQLRouteCache) GetRoute(
	ctx context.Context,
	origin string,
	destination string,
) (_ domain.RouteGeometry, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.GetRoute")(&err)

	if s.DB == nil {
		return domain.RouteGeometry{}, false, errors.New("route cache: db is nil")
	}
	if _, err := routeKey(origin, destination); err != nil {
		return domain.RouteGeometry{}, false, err
	}

	q := `
	SELECT distance_km, drive_minutes, points
    FROM route_cache
    WHERE origin = $1
        AND destination = $2
        AND ($3::bigint = 0 OR created_at > now() - ($3::bigint * interval '1 second'));
	`

	var (
		g      domain.RouteGeometry
		points string
	)
	err = s.DB.QueryRowContext(ctx, q, origin, destination, int64(s.MaxAge.Seconds())).Scan(&g.DistanceKm, &g.DriveMinutes, &points)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteGeometry{}, false, nil
	}
	if err != nil {
		return domain.RouteGeometry{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	if g.Points, err = decodePoints(points); err != nil {
		return domain.RouteGeometry{}, false, fmt.Errorf("get route cache: decode points: %w", err)
	}

	return g, true, nil
}

// Store the geometry for origin -> destination.
func (s *SQLRouteCache) PutRoute(
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
	INSERT INTO route_cache (origin, destination, distance_km, drive_minutes, points, created_at)
    VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_km = EXCLUDED.distance_km,
		drive_minutes = EXCLUDED.drive_minutes,
		points = EXCLUDED.points,
		created_at = EXCLUDED.created_at;
	`, origin, destination, g.DistanceKm, g.DriveMinutes, points)
	if err != nil {
		return fmt.Errorf("insert route cache %q -> %q: %w", origin, destination, err)
	}

	return nil
}
