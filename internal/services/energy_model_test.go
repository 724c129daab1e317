package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate"

	"ev-route-service/internal/domain"
)

func TestEnergyForDistance(t *testing.T) {
	v := vehicleA()

	kwh, err := EnergyForDistance(100, v)
	require.NoError(t, err)
	assert.InDelta(t, 16.0, kwh, 1e-12)

	kwh, err = EnergyForDistance(0, v)
	require.NoError(t, err)
	assert.Zero(t, kwh)

	for _, d := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := EnergyForDistance(d, v)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "distance %v", d)
	}
}

func TestReachAndSoC(t *testing.T) {
	v := vehicleA()

	assert.InDelta(t, 295.3125, ReachKm(v.StartSoC, v), 1e-9)
	assert.InDelta(t, 379.6875, ReachKm(1, v), 1e-9)
	assert.Zero(t, ReachKm(v.ReserveSoC, v))
	assert.Zero(t, ReachKm(0.05, v))

	soc, err := socAfter(0.8, 200, v)
	require.NoError(t, err)
	assert.InDelta(t, 0.325926, soc, 1e-6)

	// Driving past empty clamps at zero rather than going negative.
	soc, err = socAfter(0.2, 1000, v)
	require.NoError(t, err)
	assert.Zero(t, soc)

	assert.Equal(t, 1.0, ApplySoC(0.9, 0.5))
	assert.InDelta(t, 0.5, ApplySoC(0.3, SocDelta(13.5, v)), 1e-12)
}

func TestChargeTimeFlatSegment(t *testing.T) {
	v := vehicleA()
	c := DefaultChargeCurve()

	// 0.2 -> 0.6 adds 27 kWh at a constant 150 kW.
	got, err := c.ChargeTimeMinutes(0.2, 0.6, 150, v)
	require.NoError(t, err)
	assert.InDelta(t, 27.0/150*60, got, 1e-9)

	got, err = c.ChargeTimeMinutes(0.4, 0.4, 150, v)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestChargeTimeMatchesNumericIntegral(t *testing.T) {
	v := vehicleA()
	c := DefaultChargeCurve()
	const effKw = 100.0

	cases := []struct{ from, to float64 }{
		{0.1, 0.8},
		{0.5, 0.95},
		{0.82, 1.0},
		{0.05, 1.0},
	}
	for _, tc := range cases {
		const n = 20001
		x := make([]float64, n)
		f := make([]float64, n)
		for i := range x {
			s := tc.from + (tc.to-tc.from)*float64(i)/float64(n-1)
			x[i] = s
			f[i] = v.UsableKwh() / c.RateKw(s, effKw) * 60
		}
		want := integrate.Simpsons(x, f)

		got, err := c.ChargeTimeMinutes(tc.from, tc.to, effKw, v)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-3, "charge %.2f -> %.2f", tc.from, tc.to)
	}
}

func TestChargeTimeTaperIsSlower(t *testing.T) {
	v := vehicleA()
	c := DefaultChargeCurve()

	below, err := c.ChargeTimeMinutes(0.6, 0.7, 150, v)
	require.NoError(t, err)
	above, err := c.ChargeTimeMinutes(0.85, 0.95, 150, v)
	require.NoError(t, err)

	assert.Greater(t, above, below)
	assert.InDelta(t, 150*0.2, c.RateKw(1, 150), 1e-9)
}

func TestChargeTimeRejectsBadInput(t *testing.T) {
	v := vehicleA()
	c := DefaultChargeCurve()

	bad := []struct{ from, to, kw float64 }{
		{0.7, 0.5, 150},
		{-0.1, 0.5, 150},
		{0.2, 1.1, 150},
		{0.2, 0.5, 0},
		{math.NaN(), 0.5, 150},
	}
	for _, b := range bad {
		_, err := c.ChargeTimeMinutes(b.from, b.to, b.kw, v)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", b)
	}
}

func TestChargeCurveValidate(t *testing.T) {
	assert.NoError(t, DefaultChargeCurve().Validate())
	assert.Error(t, ChargeCurve{TaperStartSoC: 1, TaperEndFraction: 0.2}.Validate())
	assert.Error(t, ChargeCurve{TaperStartSoC: 0.8, TaperEndFraction: 0}.Validate())
}

func TestEffectiveKw(t *testing.T) {
	v := vehicleA()
	assert.Equal(t, 50.0, EffectiveKw(stationAt("A", 0, 0, 50), v))
	assert.Equal(t, 150.0, EffectiveKw(stationAt("B", 0, 0, 350), v))
}

func TestPlanPolicyDefaultsAndValidate(t *testing.T) {
	p := DefaultPlanPolicy()
	require.NoError(t, p.Validate())
	assert.Equal(t, 0.8, p.DefaultTargetSoC)
	assert.Equal(t, 32, p.MaxStops)
	assert.Equal(t, DefaultChargeCurve(), p.ChargeCurve)

	p.CorridorKm = -1
	assert.Error(t, p.Validate())

	p = DefaultPlanPolicy()
	p.TargetArrivalSoC = 1.2
	assert.Error(t, p.Validate())
}
