package domain

import "fmt"

// VehicleSpec describes the energy characteristics of an electric vehicle for
// a single planning request.
type VehicleSpec struct {
	BatteryCapacityKwh float64
	UsableFraction     float64 // share of nominal capacity available to the driver, (0,1]
	ConsumptionWhPerKm float64
	MaxChargeKw        float64
	StartSoC           float64 // [0,1]
	ReserveSoC         float64 // [0,1), must be below StartSoC
}

// UsableKwh is the energy between 0 and 1 SoC.
func (v VehicleSpec) UsableKwh() float64 {
	return v.BatteryCapacityKwh * v.UsableFraction
}

// Validate rejects malformed specs before any simulation or lookup happens.
func (v VehicleSpec) Validate() error {
	fields := []struct {
		name string
		val  float64
	}{
		{"batteryKwh", v.BatteryCapacityKwh},
		{"usableSoCFraction", v.UsableFraction},
		{"consumptionWhPerKm", v.ConsumptionWhPerKm},
		{"maxChargeKw", v.MaxChargeKw},
		{"startSoC", v.StartSoC},
		{"reserveSoC", v.ReserveSoC},
	}
	for _, f := range fields {
		if !IsFinite(f.val) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, f.name)
		}
	}

	if v.BatteryCapacityKwh <= 0 {
		return fmt.Errorf("%w: batteryKwh must be positive", ErrInvalidInput)
	}
	if v.UsableFraction <= 0 || v.UsableFraction > 1 {
		return fmt.Errorf("%w: usableSoCFraction must be in (0, 1]", ErrInvalidInput)
	}
	if v.ConsumptionWhPerKm <= 0 {
		return fmt.Errorf("%w: consumptionWhPerKm must be positive", ErrInvalidInput)
	}
	if v.MaxChargeKw <= 0 {
		return fmt.Errorf("%w: maxChargeKw must be positive", ErrInvalidInput)
	}
	if v.StartSoC < 0 || v.StartSoC > 1 {
		return fmt.Errorf("%w: startSoC must be in [0, 1]", ErrInvalidInput)
	}
	if v.ReserveSoC < 0 || v.ReserveSoC >= 1 {
		return fmt.Errorf("%w: reserveSoC must be in [0, 1)", ErrInvalidInput)
	}
	if v.ReserveSoC >= v.StartSoC {
		return fmt.Errorf(
			"%w: reserveSoC (%.3f) must be below startSoC (%.3f)",
			ErrInvalidInput, v.ReserveSoC, v.StartSoC,
		)
	}

	return nil
}

// RoutePrefs are per-request planning preferences.
type RoutePrefs struct {
	// TargetArrivalSoC is the SoC the driver wants left at the destination.
	TargetArrivalSoC float64
	// PlanningSpeedKph estimates drive time when the provider reports none.
	PlanningSpeedKph float64
}

func (p RoutePrefs) Validate() error {
	if !IsFinite(p.TargetArrivalSoC) || p.TargetArrivalSoC < 0 || p.TargetArrivalSoC >= 1 {
		return fmt.Errorf("%w: targetArrivalSoC must be in [0, 1)", ErrInvalidInput)
	}
	if !IsFinite(p.PlanningSpeedKph) || p.PlanningSpeedKph <= 0 {
		return fmt.Errorf("%w: planningSpeedKph must be positive", ErrInvalidInput)
	}
	return nil
}

// VehiclePreset is a named VehicleSpec offered to clients.
type VehiclePreset struct {
	Name    string
	Vehicle VehicleSpec
}
