package ports

import (
	"context"

	"ev-route-service/internal/domain"
)

// Cache mapping normalized place names to coordinates.
type GeocodeCache interface {
	GetMany(ctx context.Context, queries []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

// Cache of base route geometries keyed by normalized origin and destination.
type RouteCache interface {
	// Return the cached geometry and whether it was found.
	GetRoute(ctx context.Context, origin string, destination string) (domain.RouteGeometry, bool, error)
	PutRoute(ctx context.Context, origin string, destination string, geom domain.RouteGeometry) error
}
