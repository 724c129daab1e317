package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
)

// StationSeed is the on-disk station record, shared with the API wire format.
type StationSeed struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Connectors  []string `json:"connectors"`
	MaxKw       float64  `json:"maxKw"`
	Operational *bool    `json:"operational"`
}

// LoadStationSeeds reads and validates stations from a JSON file.
// A missing operational flag defaults to true.
func LoadStationSeeds(jsonPath string) ([]domain.ChargingStation, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load stations: read %q: %w", jsonPath, err)
	}

	var data []StationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("load stations: parse json: %w", err)
	}

	seen := make(map[string]struct{}, len(data))
	out := make([]domain.ChargingStation, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("load stations: item at index %d: id cannot be empty", i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("load stations: duplicate id %q", id)
		}
		seen[id] = struct{}{}

		pos := domain.Coordinates{Lat: item.Lat, Lon: item.Lng}
		if !pos.Valid() {
			return nil, fmt.Errorf("load stations: station %q: invalid position", id)
		}
		if !domain.IsFinite(item.MaxKw) || item.MaxKw <= 0 {
			return nil, fmt.Errorf("load stations: station %q: maxKw must be positive", id)
		}

		operational := true
		if item.Operational != nil {
			operational = *item.Operational
		}
		connectors := item.Connectors
		if connectors == nil {
			connectors = []string{}
		}

		out = append(out, domain.ChargingStation{
			ID:          id,
			Name:        strings.TrimSpace(item.Name),
			Position:    pos,
			Connectors:  connectors,
			MaxKw:       item.MaxKw,
			Operational: operational,
		})
	}

	return out, nil
}

// SeedStations loads jsonPath into repo and returns the number of stations written.
func SeedStations(ctx context.Context, repo ports.StationRepository, jsonPath string) (int, error) {
	stations, err := LoadStationSeeds(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed stations: %w", err)
	}
	if err := repo.UpsertStations(ctx, stations); err != nil {
		return 0, fmt.Errorf("seed stations: %w", err)
	}
	return len(stations), nil
}
