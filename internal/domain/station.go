package domain

import "sort"

// ChargingStation is a read-only record sourced from a station directory.
type ChargingStation struct {
	ID          string
	Name        string
	Position    Coordinates
	Connectors  []string
	MaxKw       float64
	Operational bool
}

// StationIndex resolves the weak station reference held by a PlannedStop.
type StationIndex map[string]ChargingStation

func NewStationIndex(stations []ChargingStation) StationIndex {
	idx := make(StationIndex, len(stations))
	for _, s := range stations {
		idx[s.ID] = s
	}
	return idx
}

// Lookup returns the station for id, if known.
func (idx StationIndex) Lookup(id string) (ChargingStation, bool) {
	s, ok := idx[id]
	return s, ok
}

// Sorted returns the indexed stations ordered by id.
func (idx StationIndex) Sorted() []ChargingStation {
	out := make([]ChargingStation, 0, len(idx))
	for _, s := range idx {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortByDistance orders stations by great-circle distance from origin,
// breaking ties by id so results are stable across calls.
func SortByDistance(stations []ChargingStation, origin Coordinates) {
	sort.SliceStable(stations, func(i, j int) bool {
		di := HaversineKm(origin, stations[i].Position)
		dj := HaversineKm(origin, stations[j].Position)
		if di != dj {
			return di < dj
		}
		return stations[i].ID < stations[j].ID
	})
}
