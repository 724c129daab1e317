package services

import (
	"context"
	"fmt"
	"math"
	"sync"

	"ev-route-service/internal/domain"
)

// kmPerDeg is the length of one degree of longitude on the equator.
const kmPerDeg = domain.EarthRadiusKm * math.Pi / 180

// straightRoute returns an equator route from lon 0 eastwards with a point every km.
func straightRoute(totalKm int, driveMinutes float64) domain.RouteGeometry {
	return sparseRoute(totalKm, 1, driveMinutes)
}

// sparseRoute is straightRoute with a point every stepKm; totalKm must be a multiple of stepKm.
func sparseRoute(totalKm, stepKm int, driveMinutes float64) domain.RouteGeometry {
	pts := make([]domain.Coordinates, totalKm/stepKm+1)
	for i := range pts {
		pts[i] = domain.Coordinates{Lat: 0, Lon: float64(i*stepKm) / kmPerDeg}
	}
	return domain.RouteGeometry{Points: pts, DistanceKm: float64(totalKm), DriveMinutes: driveMinutes}
}

// denseCorridor places an on-route 150 kW station every stepKm up to totalKm.
func denseCorridor(totalKm, stepKm int) []domain.ChargingStation {
	var out []domain.ChargingStation
	for km := stepKm; km < totalKm; km += stepKm {
		out = append(out, stationAt(fmt.Sprintf("S-%03d", km), float64(km), 0, 150))
	}
	return out
}

// stationAt places a station alongKm east of the origin, offsetKm north of the route.
func stationAt(id string, alongKm, offsetKm, kw float64) domain.ChargingStation {
	return domain.ChargingStation{
		ID:          id,
		Name:        "Station " + id,
		Position:    domain.Coordinates{Lat: offsetKm / kmPerDeg, Lon: alongKm / kmPerDeg},
		Connectors:  []string{"CCS1"},
		MaxKw:       kw,
		Operational: true,
	}
}

func vehicleA() domain.VehicleSpec {
	return domain.VehicleSpec{
		BatteryCapacityKwh: 75,
		UsableFraction:     0.9,
		ConsumptionWhPerKm: 160,
		MaxChargeKw:        150,
		StartSoC:           0.8,
		ReserveSoC:         0.1,
	}
}

// fakeDirectory answers StationsNear by haversine radius and counts calls.
type fakeDirectory struct {
	mu       sync.Mutex
	stations []domain.ChargingStation
	err      error
	calls    int
}

func (d *fakeDirectory) StationsNear(ctx context.Context, p domain.Coordinates, radiusKm float64) ([]domain.ChargingStation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	var out []domain.ChargingStation
	for _, s := range d.stations {
		if domain.HaversineKm(p, s.Position) <= radiusKm {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *fakeDirectory) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.PlanComputed
	err    error
}

func (p *recordingPublisher) PublishPlan(ctx context.Context, ev domain.PlanComputed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// fixedFinder always returns the same candidates.
type fixedFinder []Candidate

func (f fixedFinder) CandidatesWithinReach(fromKm, maxReachKm float64) []Candidate {
	return f
}

func feasibilityInput(geom domain.RouteGeometry, stations []domain.ChargingStation) FeasibilityInput {
	policy := DefaultPlanPolicy()
	line := domain.NewPolyline(geom)
	return FeasibilityInput{
		Line:    line,
		Vehicle: vehicleA(),
		Prefs:   policy.DefaultPrefs(),
		Finder:  NewCorridorFinder(line, stations, policy.CorridorKm),
		Policy:  policy,
	}
}
