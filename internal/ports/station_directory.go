package ports

import (
	"context"

	"ev-route-service/internal/domain"
)

// Contract for discovering charging stations around a position.
// Empty results are not an error; only transport failures are.
type StationDirectory interface {
	// Return stations within radiusKm of position, ordered by distance.
	StationsNear(ctx context.Context, position domain.Coordinates, radiusKm float64) ([]domain.ChargingStation, error)
}

// Port: a writable station store backing a StationDirectory.
type StationRepository interface {
	StationDirectory
	// Insert or replace stations by id.
	UpsertStations(ctx context.Context, stations []domain.ChargingStation) error
}
