package repositories

import (
	"context"
	"sort"
	"sync"

	"ev-route-service/internal/domain"
)

// MemoryStationRepository keeps stations in process memory.
// It backs the "file" station provider and tests.
type MemoryStationRepository struct {
	mu       sync.RWMutex
	stations map[string]domain.ChargingStation
}

func NewMemoryStationRepository(stations []domain.ChargingStation) *MemoryStationRepository {
	r := &MemoryStationRepository{stations: make(map[string]domain.ChargingStation, len(stations))}
	for _, s := range stations {
		r.stations[s.ID] = s
	}
	return r
}

// NewMemoryStationRepositoryFromFile loads a station seed file.
func NewMemoryStationRepositoryFromFile(jsonPath string) (*MemoryStationRepository, error) {
	stations, err := LoadStationSeeds(jsonPath)
	if err != nil {
		return nil, err
	}
	return NewMemoryStationRepository(stations), nil
}

func (r *MemoryStationRepository) StationsNear(
	ctx context.Context,
	position domain.Coordinates,
	radiusKm float64,
) ([]domain.ChargingStation, error) {
	if err := validateQuery("stations near", position, radiusKm); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	all := make([]domain.ChargingStation, 0, len(r.stations))
	for _, s := range r.stations {
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return withinRadius(all, position, radiusKm), nil
}

func (r *MemoryStationRepository) UpsertStations(ctx context.Context, stations []domain.ChargingStation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stations {
		r.stations[s.ID] = s
	}
	return nil
}

// Len reports how many stations are stored.
func (r *MemoryStationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stations)
}
