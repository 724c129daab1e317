package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"ev-route-service/internal/domain"
)

func assemble(t *testing.T, geom domain.RouteGeometry, stations []domain.ChargingStation) *domain.RoutePlan {
	t.Helper()
	in := feasibilityInput(geom, stations)
	traj, err := PlanFeasibility(context.Background(), in)
	require.NoError(t, err)

	plan, err := AssemblePlan(AssembleInput{
		Line:            in.Line,
		Trajectory:      traj,
		Vehicle:         in.Vehicle,
		Prefs:           in.Prefs,
		SnapToleranceKm: in.Policy.SnapToleranceKm,
	})
	require.NoError(t, err)
	return plan
}

func TestAssemblePlanSingleStop(t *testing.T) {
	plan := assemble(t, straightRoute(500, 300), singleStopStations())

	require.Len(t, plan.Legs, 2)
	require.Len(t, plan.Stops, 1)

	assert.Len(t, plan.Legs[0].Points, 294)
	assert.Len(t, plan.Legs[1].Points, 207)
	assert.InDelta(t, 294, plan.Legs[0].DistanceKm, 1e-6)
	assert.InDelta(t, 206, plan.Legs[1].DistanceKm, 1e-6)
	assert.InDelta(t, 176.4, plan.Legs[0].DriveMinutes, 1e-6)
	assert.InDelta(t, 123.6, plan.Legs[1].DriveMinutes, 1e-6)
	assert.InDelta(t, 47.04, plan.Legs[0].EnergyKwh, 1e-6)

	assert.InDelta(t, 500, plan.Overall.DistanceKm, 1e-9)
	assert.InDelta(t, 80, plan.TotalEnergyKwh, 1e-9)
	assert.InDelta(t, 300, plan.TotalDriveMinutes, 1e-9)
	assert.InDelta(t, 14.45, plan.TotalChargeMinutes, 1e-6)
	assert.InDelta(t, 0.15, plan.ArrivalSoC, 1e-9)
	assert.Len(t, plan.Overall.Points, 501)
}

func TestAssemblePlanSparseGeometry(t *testing.T) {
	plan := assemble(t, sparseRoute(500, 10, 300), singleStopStations())

	require.Len(t, plan.Stops, 1)
	require.Len(t, plan.Legs, 2)
	assert.Equal(t, "S-294", plan.Stops[0].StationID)

	// The stop at 294 km splits at the 290 km vertex.
	assert.Len(t, plan.Legs[0].Points, 29)
	assert.Len(t, plan.Legs[1].Points, 22)
	assert.InDelta(t, 290, plan.Legs[0].DistanceKm, 1e-6)
	assert.InDelta(t, 210, plan.Legs[1].DistanceKm, 1e-6)
	assert.InDelta(t, 80, plan.TotalEnergyKwh, 1e-9)
}

func TestAssemblePlanNoStops(t *testing.T) {
	plan := assemble(t, straightRoute(200, 120), nil)

	require.Len(t, plan.Legs, 1)
	assert.Empty(t, plan.Stops)
	assert.Len(t, plan.Legs[0].Points, 201)
	assert.Equal(t, plan.Overall.DistanceKm, plan.Legs[0].DistanceKm)
	assert.Zero(t, plan.TotalChargeMinutes)
}

func TestAssemblePlanTotalsAreSums(t *testing.T) {
	plan := assemble(t, straightRoute(1000, 600), []domain.ChargingStation{
		stationAt("S-250", 250, 0, 150),
		stationAt("S-500", 500, 0, 150),
		stationAt("S-750", 750, 0, 50),
	})
	require.Len(t, plan.Legs, len(plan.Stops)+1)

	var dist, minutes, energy, charge []float64
	points := 0
	for _, l := range plan.Legs {
		dist = append(dist, l.DistanceKm)
		minutes = append(minutes, l.DriveMinutes)
		energy = append(energy, l.EnergyKwh)
		points += len(l.Points)
	}
	for _, s := range plan.Stops {
		charge = append(charge, s.ChargeMinutes)
		assert.InDelta(t, (s.DepartSoC-s.ArriveSoC)*vehicleA().UsableKwh(), s.EnergyAddedKwh, 1e-9)
	}

	assert.Equal(t, len(plan.Overall.Points), points)
	assert.InDelta(t, 1000, floats.Sum(dist), 1e-9)
	assert.Equal(t, floats.Sum(minutes), plan.TotalDriveMinutes)
	assert.Equal(t, floats.Sum(energy), plan.TotalEnergyKwh)
	assert.Equal(t, floats.Sum(charge), plan.TotalChargeMinutes)
	assert.InDelta(t, 160, plan.TotalEnergyKwh, 1e-9)

	// 50 kW charging takes three times as long as 150 kW for a similar top-up.
	assert.Greater(t, plan.Stops[2].ChargeMinutes, plan.Stops[1].ChargeMinutes)
}

func TestAssemblePlanFallsBackToPlanningSpeed(t *testing.T) {
	plan := assemble(t, straightRoute(200, 0), nil)
	assert.InDelta(t, 120, plan.TotalDriveMinutes, 1e-9)
}

func TestAssemblePlanGeometryMismatch(t *testing.T) {
	line := domain.NewPolyline(straightRoute(500, 300))
	traj := &Trajectory{
		Stops: []domain.PlannedStop{{
			StationID: "off-route",
			Position:  stationAt("off-route", 250, 50, 150).Position,
			AlongKm:   250,
			ArriveSoC: 0.3,
			DepartSoC: 0.8,
		}},
		ArrivalSoC: 0.2,
	}

	_, err := AssemblePlan(AssembleInput{
		Line:            line,
		Trajectory:      traj,
		Vehicle:         vehicleA(),
		Prefs:           DefaultPlanPolicy().DefaultPrefs(),
		SnapToleranceKm: 2,
	})
	assert.ErrorIs(t, err, domain.ErrGeometryMismatch)
}

func TestAssemblePlanStopAtLastPointHasNoRoomForLeg(t *testing.T) {
	line := domain.NewPolyline(straightRoute(10, 6))
	last := line.Geometry().Points[10]
	traj := &Trajectory{
		Stops: []domain.PlannedStop{
			{StationID: "a", Position: last, AlongKm: 10},
			{StationID: "b", Position: last, AlongKm: 10},
		},
	}

	_, err := AssemblePlan(AssembleInput{
		Line:            line,
		Trajectory:      traj,
		Vehicle:         vehicleA(),
		Prefs:           DefaultPlanPolicy().DefaultPrefs(),
		SnapToleranceKm: 2,
	})
	assert.ErrorIs(t, err, domain.ErrGeometryMismatch)
}
