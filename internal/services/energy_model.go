package services

import (
	"fmt"
	"math"

	"ev-route-service/internal/domain"
)

// EnergyForDistance returns the energy in kWh needed to drive distanceKm.
func EnergyForDistance(distanceKm float64, v domain.VehicleSpec) (float64, error) {
	if !domain.IsFinite(distanceKm) {
		return 0, fmt.Errorf("energy for distance: %w: distance must be finite", domain.ErrInvalidInput)
	}
	if distanceKm < 0 {
		return 0, fmt.Errorf("energy for distance: %w: distance must be non-negative", domain.ErrInvalidInput)
	}
	return distanceKm * v.ConsumptionWhPerKm / 1000, nil
}

// SocDelta converts an energy amount into a fraction of usable capacity.
// Callers negate it for consumption.
func SocDelta(energyKwh float64, v domain.VehicleSpec) float64 {
	return energyKwh / v.UsableKwh()
}

// ApplySoC adds delta to soc and clamps the result to [0,1].
func ApplySoC(soc, delta float64) float64 {
	return math.Max(0, math.Min(1, soc+delta))
}

// ReachKm is the distance drivable from soc before falling to the reserve.
func ReachKm(soc float64, v domain.VehicleSpec) float64 {
	if soc <= v.ReserveSoC {
		return 0
	}
	return (soc - v.ReserveSoC) * v.UsableKwh() * 1000 / v.ConsumptionWhPerKm
}

// socAfter returns the SoC remaining after driving distanceKm from soc.
func socAfter(soc, distanceKm float64, v domain.VehicleSpec) (float64, error) {
	kwh, err := EnergyForDistance(distanceKm, v)
	if err != nil {
		return 0, err
	}
	return ApplySoC(soc, -SocDelta(kwh, v)), nil
}

// socFor returns the SoC drop for driving distanceKm, unclamped.
func socFor(distanceKm float64, v domain.VehicleSpec) (float64, error) {
	kwh, err := EnergyForDistance(distanceKm, v)
	if err != nil {
		return 0, err
	}
	return SocDelta(kwh, v), nil
}
