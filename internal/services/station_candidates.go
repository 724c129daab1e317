package services

import (
	"math"
	"sort"

	"ev-route-service/internal/domain"
)

// progressEpsKm is the minimum forward progress for a station to count as ahead.
const progressEpsKm = 1e-6

// Candidate is a charging station projected onto the route corridor.
type Candidate struct {
	Station    domain.ChargingStation
	AlongKm    float64
	OffsetKm   float64
	RoutePoint domain.Coordinates
}

// CandidateFinder returns ranked stations ahead of a route position.
type CandidateFinder interface {
	CandidatesWithinReach(fromKm, maxReachKm float64) []Candidate
}

// CorridorFinder ranks operational stations inside a buffer around the route.
//
// Stations are projected once at construction; lookups filter the pre-ranked
// list, so every call returns candidates in the same global order:
// offset ascending, then MaxKw descending, then ID ascending.
type CorridorFinder struct {
	corridorKm float64
	ranked     []Candidate
}

func NewCorridorFinder(line *domain.Polyline, stations []domain.ChargingStation, corridorKm float64) *CorridorFinder {
	byID := make([]domain.ChargingStation, len(stations))
	copy(byID, stations)
	sort.SliceStable(byID, func(i, j int) bool { return byID[i].ID < byID[j].ID })

	seen := make(map[string]struct{}, len(byID))
	ranked := make([]Candidate, 0, len(byID))
	for _, s := range byID {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}

		if !s.Operational || s.MaxKw <= 0 || !s.Position.Valid() {
			continue
		}

		p := line.Project(s.Position)
		// Stations outside the buffer are excluded regardless of straight-line distance.
		if p.OffsetKm > corridorKm {
			continue
		}

		ranked = append(ranked, Candidate{
			Station:    s,
			AlongKm:    p.AlongKm,
			OffsetKm:   p.OffsetKm,
			RoutePoint: p.Point,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return candidateLess(ranked[i], ranked[j])
	})

	return &CorridorFinder{corridorKm: corridorKm, ranked: ranked}
}

func candidateLess(a, b Candidate) bool {
	if a.OffsetKm != b.OffsetKm {
		return a.OffsetKm < b.OffsetKm
	}
	if a.Station.MaxKw != b.Station.MaxKw {
		return a.Station.MaxKw > b.Station.MaxKw
	}
	return a.Station.ID < b.Station.ID
}

// CandidatesWithinReach returns stations strictly ahead of fromKm and no further
// than maxReachKm along the route. It never returns stations behind fromKm.
func (f *CorridorFinder) CandidatesWithinReach(fromKm, maxReachKm float64) []Candidate {
	out := []Candidate{}
	if maxReachKm <= 0 {
		return out
	}
	limit := fromKm + maxReachKm
	for _, c := range f.ranked {
		if c.AlongKm <= fromKm+progressEpsKm || c.AlongKm > limit {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FarthestWindow keeps the candidates within windowKm of the farthest one,
// preserving their rank order. The planner picks from this window so each stop
// makes the most progress the current reach allows.
func FarthestWindow(candidates []Candidate, windowKm float64) []Candidate {
	if len(candidates) == 0 {
		return candidates
	}
	farthest := candidates[0].AlongKm
	for _, c := range candidates[1:] {
		farthest = math.Max(farthest, c.AlongKm)
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AlongKm >= farthest-windowKm {
			out = append(out, c)
		}
	}
	return out
}

// Len reports how many stations survived corridor and status filtering.
func (f *CorridorFinder) Len() int { return len(f.ranked) }
