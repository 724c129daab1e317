package services

import (
	"fmt"
	"math"

	"ev-route-service/internal/domain"
)

// ChargeCurve models the charging-power taper of a typical lithium-ion pack.
//
// Power is flat at the effective kW below TaperStartSoC and decays linearly to
// TaperEndFraction × effective kW at SoC 1.0. Both values are tunable policy.
type ChargeCurve struct {
	TaperStartSoC    float64 `json:"taper_start_soc"`
	TaperEndFraction float64 `json:"taper_end_fraction"`
}

func DefaultChargeCurve() ChargeCurve {
	return ChargeCurve{TaperStartSoC: 0.8, TaperEndFraction: 0.2}
}

func (c ChargeCurve) Validate() error {
	if !domain.IsFinite(c.TaperStartSoC) || c.TaperStartSoC <= 0 || c.TaperStartSoC >= 1 {
		return fmt.Errorf("charge curve: taper_start_soc must be in (0, 1)")
	}
	if !domain.IsFinite(c.TaperEndFraction) || c.TaperEndFraction <= 0 || c.TaperEndFraction > 1 {
		return fmt.Errorf("charge curve: taper_end_fraction must be in (0, 1]")
	}
	return nil
}

// EffectiveKw is the power a vehicle can draw at a station.
func EffectiveKw(station domain.ChargingStation, v domain.VehicleSpec) float64 {
	return math.Min(station.MaxKw, v.MaxChargeKw)
}

// RateKw returns the charging power at soc for the given effective kW.
func (c ChargeCurve) RateKw(soc, effectiveKw float64) float64 {
	if soc < c.TaperStartSoC {
		return effectiveKw
	}
	return effectiveKw * (1 - c.slope()*(soc-c.TaperStartSoC))
}

// slope is the fractional power lost per unit SoC inside the taper.
func (c ChargeCurve) slope() float64 {
	return (1 - c.TaperEndFraction) / (1 - c.TaperStartSoC)
}

// ChargeTimeMinutes integrates 1/rate over [fromSoC, toSoC].
func (c ChargeCurve) ChargeTimeMinutes(fromSoC, toSoC, effectiveKw float64, v domain.VehicleSpec) (float64, error) {
	if !domain.IsFinite(fromSoC) || !domain.IsFinite(toSoC) || !domain.IsFinite(effectiveKw) {
		return 0, fmt.Errorf("charge time: %w: arguments must be finite", domain.ErrInvalidInput)
	}
	if fromSoC < 0 || toSoC > 1 {
		return 0, fmt.Errorf("charge time: %w: SoC must be within [0, 1]", domain.ErrInvalidInput)
	}
	if fromSoC > toSoC {
		return 0, fmt.Errorf(
			"charge time: %w: fromSoC %.4f exceeds toSoC %.4f",
			domain.ErrInvalidInput, fromSoC, toSoC,
		)
	}
	if fromSoC == toSoC {
		return 0, nil
	}
	if effectiveKw <= 0 {
		return 0, fmt.Errorf("charge time: %w: effective power must be positive", domain.ErrInvalidInput)
	}

	usable := v.UsableKwh()
	hours := 0.0

	// Flat piece: [fromSoC, min(toSoC, knee)).
	if fromSoC < c.TaperStartSoC {
		end := math.Min(toSoC, c.TaperStartSoC)
		hours += usable * (end - fromSoC) / effectiveKw
	}

	// Taper piece: ∫ ds / (P·(1 − m(s−k))) = ln((1 − m(a−k)) / (1 − m(b−k))) / (P·m).
	if toSoC > c.TaperStartSoC {
		a := math.Max(fromSoC, c.TaperStartSoC)
		m := c.slope()
		num := 1 - m*(a-c.TaperStartSoC)
		den := 1 - m*(toSoC-c.TaperStartSoC)
		hours += usable * math.Log(num/den) / (effectiveKw * m)
	}

	return hours * 60, nil
}
