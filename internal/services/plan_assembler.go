package services

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"ev-route-service/internal/domain"
)

// AssembleInput is the planner output plus the context needed to summarise it.
type AssembleInput struct {
	Line            *domain.Polyline
	Trajectory      *Trajectory
	Vehicle         domain.VehicleSpec
	Prefs           domain.RoutePrefs
	SnapToleranceKm float64
}

// AssemblePlan splits the base geometry at each stop and aggregates totals.
//
// Each stop is associated with the geometry point nearest its route distance
// after the previous split, so legs partition the points with no gaps or
// overlaps. Totals are
// always sums over legs and stops.
func AssemblePlan(in AssembleInput) (*domain.RoutePlan, error) {
	if in.Line == nil || in.Line.Len() == 0 {
		return nil, errors.New("assemble plan: route geometry is empty")
	}
	if in.Trajectory == nil {
		return nil, errors.New("assemble plan: trajectory is nil")
	}

	geom := in.Line.Geometry()
	stops := in.Trajectory.Stops

	bounds, err := splitPoints(in.Line, stops, in.SnapToleranceKm)
	if err != nil {
		return nil, fmt.Errorf("assemble plan: %w", err)
	}

	legs := make([]domain.LegSummary, 0, len(stops)+1)
	for i := 0; i+1 < len(bounds); i++ {
		from, to := bounds[i], bounds[i+1]

		var dist float64
		if to == in.Line.Len() {
			dist = in.Line.TotalKm() - in.Line.CumulativeKm(from)
		} else {
			dist = in.Line.CumulativeKm(to) - in.Line.CumulativeKm(from)
		}

		energy, err := EnergyForDistance(dist, in.Vehicle)
		if err != nil {
			return nil, fmt.Errorf("assemble plan: leg %d: %w", i, err)
		}

		legs = append(legs, domain.LegSummary{
			Points:       slices.Clone(geom.Points[from:to]),
			DistanceKm:   dist,
			DriveMinutes: legMinutes(dist, geom, in.Prefs),
			EnergyKwh:    energy,
		})
	}

	legDist := make([]float64, len(legs))
	legMin := make([]float64, len(legs))
	legKwh := make([]float64, len(legs))
	for i, l := range legs {
		legDist[i] = l.DistanceKm
		legMin[i] = l.DriveMinutes
		legKwh[i] = l.EnergyKwh
	}
	chargeMin := make([]float64, len(stops))
	for i, s := range stops {
		chargeMin[i] = s.ChargeMinutes
	}

	plan := &domain.RoutePlan{
		Overall: domain.LegSummary{
			Points:       slices.Clone(geom.Points),
			DistanceKm:   floats.Sum(legDist),
			DriveMinutes: floats.Sum(legMin),
			EnergyKwh:    floats.Sum(legKwh),
		},
		Legs:               legs,
		Stops:              slices.Clone(stops),
		TotalEnergyKwh:     floats.Sum(legKwh),
		TotalDriveMinutes:  floats.Sum(legMin),
		TotalChargeMinutes: floats.Sum(chargeMin),
		ArrivalSoC:         in.Trajectory.ArrivalSoC,
	}

	return plan, nil
}

// splitPoints returns leg boundaries [0, b1, ..., bn, len(points)].
//
// A stop must lie within toleranceKm of the route point at its AlongKm. Its
// boundary is the vertex nearest to AlongKm after the previous boundary.
func splitPoints(line *domain.Polyline, stops []domain.PlannedStop, toleranceKm float64) ([]int, error) {
	bounds := make([]int, 0, len(stops)+2)
	bounds = append(bounds, 0)

	prev := 0
	for i, s := range stops {
		if d := domain.HaversineKm(s.Position, line.PointAt(s.AlongKm)); d > toleranceKm {
			return nil, fmt.Errorf(
				"%w: stop %d (%s) is %.3f km from the route at %.3f km, tolerance %.3f km",
				domain.ErrGeometryMismatch, i, s.StationID, d, s.AlongKm, toleranceKm,
			)
		}
		idx := line.VertexNearKm(s.AlongKm, prev+1)
		if idx < 0 {
			return nil, fmt.Errorf(
				"%w: stop %d (%s) has no geometry point after index %d",
				domain.ErrGeometryMismatch, i, s.StationID, prev,
			)
		}
		bounds = append(bounds, idx)
		prev = idx
	}

	return append(bounds, line.Len()), nil
}

// legMinutes apportions provider drive time by distance share, falling back
// to the planning speed when the provider reported no duration.
func legMinutes(distKm float64, geom domain.RouteGeometry, prefs domain.RoutePrefs) float64 {
	if distKm <= 0 {
		return 0
	}
	if geom.DriveMinutes > 0 && geom.DistanceKm > 0 {
		return geom.DriveMinutes * distKm / geom.DistanceKm
	}
	if prefs.PlanningSpeedKph > 0 {
		return distKm / prefs.PlanningSpeedKph * 60
	}
	return 0
}
