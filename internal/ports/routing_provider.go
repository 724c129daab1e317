package ports

import (
	"context"

	"ev-route-service/internal/domain"
)

// Contract for resolving a driving route between two free-text locations.
//
// Implementations fail with domain.ErrUnreachableOrigin,
// domain.ErrUnreachableDestination or domain.ErrProviderUnavailable.
type RoutingProvider interface {
	// Return the base route geometry from origin to destination.
	Route(ctx context.Context, origin string, destination string) (domain.RouteGeometry, error)
}
