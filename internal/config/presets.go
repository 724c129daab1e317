package config

import (
	"fmt"

	"ev-route-service/internal/domain"
)

// PresetConfig is a named vehicle offered by GET /ev/presets.
type PresetConfig struct {
	Name               string  `json:"name"`
	BatteryKwh         float64 `json:"battery_kwh"`
	UsableSoCFraction  float64 `json:"usable_soc_fraction"`
	ConsumptionWhPerKm float64 `json:"consumption_wh_per_km"`
	MaxChargeKw        float64 `json:"max_charge_kw"`
	StartSoC           float64 `json:"start_soc"`
	ReserveSoC         float64 `json:"reserve_soc"`
}

func DefaultPresets() []PresetConfig {
	preset := func(name string, battery, whPerKm, kw float64) PresetConfig {
		return PresetConfig{
			Name:               name,
			BatteryKwh:         battery,
			UsableSoCFraction:  0.9,
			ConsumptionWhPerKm: whPerKm,
			MaxChargeKw:        kw,
			StartSoC:           0.8,
			ReserveSoC:         0.1,
		}
	}
	return []PresetConfig{
		preset("Tesla Model 3 Long Range", 75, 160, 250),
		preset("Tesla Model Y Long Range", 75, 170, 250),
		preset("Tesla Model S Long Range", 100, 180, 250),
		preset("Tesla Model X Long Range", 100, 200, 250),
		preset("Ford Mustang Mach-E", 88, 175, 150),
		preset("Chevrolet Bolt EV", 66, 150, 55),
		preset("Nissan Leaf Plus", 62, 160, 100),
	}
}

func (p PresetConfig) Vehicle() domain.VehicleSpec {
	return domain.VehicleSpec{
		BatteryCapacityKwh: p.BatteryKwh,
		UsableFraction:     p.UsableSoCFraction,
		ConsumptionWhPerKm: p.ConsumptionWhPerKm,
		MaxChargeKw:        p.MaxChargeKw,
		StartSoC:           p.StartSoC,
		ReserveSoC:         p.ReserveSoC,
	}
}

func (p PresetConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: preset name is required", domain.ErrInvalidInput)
	}
	return p.Vehicle().Validate()
}

// VehiclePresets converts the configured presets to domain values.
func (c Config) VehiclePresets() []domain.VehiclePreset {
	out := make([]domain.VehiclePreset, 0, len(c.Presets))
	for _, p := range c.Presets {
		out = append(out, domain.VehiclePreset{Name: p.Name, Vehicle: p.Vehicle()})
	}
	return out
}
