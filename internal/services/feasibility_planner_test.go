package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ev-route-service/internal/domain"
)

func singleStopStations() []domain.ChargingStation {
	return []domain.ChargingStation{
		stationAt("S-294", 294, 0, 150),
		stationAt("S-200", 200, 0, 150),
		stationAt("S-250", 250, 0, 350),
	}
}

func TestPlanFeasibilitySingleStop(t *testing.T) {
	in := feasibilityInput(straightRoute(500, 300), singleStopStations())

	traj, err := PlanFeasibility(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, traj.Stops, 1)

	stop := traj.Stops[0]
	assert.Equal(t, "S-294", stop.StationID)
	assert.InDelta(t, 294, stop.AlongKm, 1e-6)
	assert.InDelta(t, 0.103111, stop.ArriveSoC, 1e-6)
	assert.InDelta(t, 0.638296, stop.DepartSoC, 1e-6)
	assert.InDelta(t, 36.125, stop.EnergyAddedKwh, 1e-6)
	assert.InDelta(t, 14.45, stop.ChargeMinutes, 1e-6)
	assert.Equal(t, 150.0, stop.EffectiveKw)
	assert.InDelta(t, 0.15, traj.ArrivalSoC, 1e-9)
}

func TestPlanFeasibilityDenseCorridor(t *testing.T) {
	in := feasibilityInput(straightRoute(1000, 600), denseCorridor(1000, 10))

	traj, err := PlanFeasibility(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, traj.Stops, 3)

	wantID := []string{"S-270", "S-520", "S-770"}
	wantArrive := []float64{0.16, 0.167407, 0.167407}
	wantDepart := []float64{0.76, 0.76, 0.695185}
	for i, s := range traj.Stops {
		assert.Equal(t, wantID[i], s.StationID, "stop %d", i)
		assert.InDelta(t, wantArrive[i], s.ArriveSoC, 1e-6, "stop %d", i)
		assert.InDelta(t, wantDepart[i], s.DepartSoC, 1e-6, "stop %d", i)
	}
	assert.InDelta(t, 0.15, traj.ArrivalSoC, 1e-9)
}

func TestPlanFeasibilityPrefersProgressOverCorridorOffset(t *testing.T) {
	in := feasibilityInput(straightRoute(500, 300), []domain.ChargingStation{
		stationAt("S-050", 50, 0, 150),
		stationAt("S-290", 290, 0.5, 150),
	})

	traj, err := PlanFeasibility(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, traj.Stops, 1)
	assert.Equal(t, "S-290", traj.Stops[0].StationID)
	assert.InDelta(t, 0.112593, traj.Stops[0].ArriveSoC, 1e-3)
	assert.InDelta(t, 0.15, traj.ArrivalSoC, 1e-9)
}

func TestPlanFeasibilityNoStopNeeded(t *testing.T) {
	in := feasibilityInput(straightRoute(200, 120), nil)

	traj, err := PlanFeasibility(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, traj.Stops)
	assert.NotNil(t, traj.Stops)
	assert.InDelta(t, 0.325926, traj.ArrivalSoC, 1e-6)
}

func TestPlanFeasibilityMultiStop(t *testing.T) {
	in := feasibilityInput(straightRoute(1000, 600), []domain.ChargingStation{
		stationAt("S-250", 250, 0, 150),
		stationAt("S-500", 500, 0, 150),
		stationAt("S-750", 750, 0, 150),
	})

	traj, err := PlanFeasibility(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, traj.Stops, 3)

	wantDepart := []float64{0.712593, 0.712593, 0.742593}
	for i, s := range traj.Stops {
		assert.InDelta(t, wantDepart[i], s.DepartSoC, 1e-6, "stop %d", i)
		assert.GreaterOrEqual(t, s.ArriveSoC, in.Vehicle.ReserveSoC-1e-9, "stop %d", i)
		assert.LessOrEqual(t, s.DepartSoC, 1.0)
		if i > 0 {
			assert.Greater(t, s.AlongKm, traj.Stops[i-1].AlongKm)
		}
	}
	assert.InDelta(t, 0.207407, traj.Stops[0].ArriveSoC, 1e-6)
	assert.InDelta(t, 0.12, traj.Stops[1].ArriveSoC, 1e-6)
	assert.InDelta(t, 0.15, traj.ArrivalSoC, 1e-9)
}

func TestPlanFeasibilityNoStationInReach(t *testing.T) {
	in := feasibilityInput(straightRoute(500, 300), []domain.ChargingStation{
		stationAt("S-400", 400, 0, 150),
	})

	_, err := PlanFeasibility(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInfeasible)

	var ie *domain.InfeasibleError
	require.True(t, errors.As(err, &ie))
	assert.Zero(t, ie.AtKm)
	assert.InDelta(t, 295.3125, ie.BlockingDistanceKm(), 1e-9)
	assert.InDelta(t, 295.3125, ie.ExhaustedAtKm(), 1e-9)
}

func TestPlanFeasibilityStrandedAfterStop(t *testing.T) {
	in := feasibilityInput(straightRoute(800, 480), []domain.ChargingStation{
		stationAt("S-294", 294, 0, 150),
	})

	_, err := PlanFeasibility(context.Background(), in)
	var ie *domain.InfeasibleError
	require.True(t, errors.As(err, &ie))
	assert.InDelta(t, 294, ie.AtKm, 1e-6)
	assert.InDelta(t, 379.6875, ie.ReachKm, 1e-9)
	assert.InDelta(t, 673.6875, ie.ExhaustedAtKm(), 1e-6)
}

func TestPlanFeasibilityMaxStops(t *testing.T) {
	in := feasibilityInput(straightRoute(1000, 600), []domain.ChargingStation{
		stationAt("S-250", 250, 0, 150),
		stationAt("S-500", 500, 0, 150),
		stationAt("S-750", 750, 0, 150),
	})
	in.Policy.MaxStops = 1

	_, err := PlanFeasibility(context.Background(), in)
	var ie *domain.InfeasibleError
	require.True(t, errors.As(err, &ie))
	assert.InDelta(t, 250, ie.AtKm, 1e-6)
	assert.Contains(t, ie.Reason, "stop limit")
}

func TestPlanFeasibilityProgressGuard(t *testing.T) {
	in := feasibilityInput(straightRoute(500, 300), nil)
	in.Finder = fixedFinder{{Station: stationAt("behind", 0, 0, 150), AlongKm: 0}}

	_, err := PlanFeasibility(context.Background(), in)
	var ie *domain.InfeasibleError
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, ie.Reason, "no forward progress")
}

func TestPlanFeasibilityCancelled(t *testing.T) {
	in := feasibilityInput(straightRoute(500, 300), singleStopStations())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PlanFeasibility(ctx, in)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlanFeasibilityRejectsInvalidVehicle(t *testing.T) {
	in := feasibilityInput(straightRoute(100, 60), nil)
	in.Vehicle.ReserveSoC = in.Vehicle.StartSoC

	_, err := PlanFeasibility(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSimulationTransitions(t *testing.T) {
	sim, err := newSimulation(feasibilityInput(straightRoute(500, 300), singleStopStations()))
	require.NoError(t, err)

	want := []PlannerState{
		StateNeedsStop,
		StateStopPlanned,
		StateCruising,
		StateReached,
	}
	ctx := context.Background()
	for i, next := range want {
		require.NoError(t, sim.step(ctx))
		assert.Equal(t, next, sim.state, "step %d", i)
	}
	assert.True(t, sim.state.terminal())
	assert.Error(t, sim.step(ctx))

	assert.Equal(t, "needs_stop", StateNeedsStop.String())
	assert.Equal(t, "state(9)", PlannerState(9).String())
}

func TestPlanFeasibilityIsDeterministic(t *testing.T) {
	stations := []domain.ChargingStation{
		stationAt("S-240", 240, 1, 150),
		stationAt("S-260", 260, 1, 150),
		stationAt("S-280", 280, 1, 150),
		stationAt("S-500", 500, 0, 150),
		stationAt("S-520", 520, 3, 50),
	}
	first, err := PlanFeasibility(context.Background(), feasibilityInput(straightRoute(800, 480), stations))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		got, err := PlanFeasibility(context.Background(), feasibilityInput(straightRoute(800, 480), stations))
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestClampDepart(t *testing.T) {
	assert.Equal(t, 0.6, clampDepart(0.2, 0.6, 0.8))
	assert.Equal(t, 0.8, clampDepart(0.2, 0.95, 0.8))
	assert.Equal(t, 0.5, clampDepart(0.5, 0.3, 0.8))
	assert.Equal(t, 1.0, clampDepart(0.2, 1.4, 1.2))
}
