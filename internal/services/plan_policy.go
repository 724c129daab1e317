package services

import (
	"fmt"

	"ev-route-service/internal/domain"
)

// PlanPolicy carries the tunable planning parameters. It is passed by value
// into every planning call so concurrent requests never share mutable defaults.
type PlanPolicy struct {
	// DefaultTargetSoC caps charging at intermediate stops to stay off the taper.
	DefaultTargetSoC float64 `json:"default_target_soc"`
	// ReachMarginSoC is added on top of the minimum SoC needed to reach the next station.
	ReachMarginSoC float64 `json:"reach_margin_soc"`
	// CorridorKm is the buffer around the route inside which stations are considered.
	CorridorKm float64 `json:"corridor_km"`
	// SnapToleranceKm bounds the distance between a stop and its geometry split point.
	SnapToleranceKm float64 `json:"snap_tolerance_km"`
	// ProgressWindowKm bounds stop selection to candidates this close to the
	// farthest reachable one; inside the window the corridor ranking applies.
	ProgressWindowKm float64 `json:"progress_window_km"`
	// SpeculativeCandidates is how many ranked candidates are evaluated concurrently per stop.
	SpeculativeCandidates int `json:"speculative_candidates"`
	MaxStops              int `json:"max_stops"`
	// StationSampleKm is the spacing of station-directory queries along the route.
	StationSampleKm float64 `json:"station_sample_km"`
	// StationFetchConcurrency bounds parallel station-directory queries.
	StationFetchConcurrency int `json:"station_fetch_concurrency"`

	TargetArrivalSoC float64     `json:"target_arrival_soc"`
	PlanningSpeedKph float64     `json:"planning_speed_kph"`
	ChargeCurve      ChargeCurve `json:"charge_curve"`
}

func DefaultPlanPolicy() PlanPolicy {
	p := PlanPolicy{}
	p.SetDefaults()
	return p
}

// SetDefaults fills zero values with the built-in defaults.
func (p *PlanPolicy) SetDefaults() {
	if p.DefaultTargetSoC == 0 {
		p.DefaultTargetSoC = 0.8
	}
	if p.ReachMarginSoC == 0 {
		p.ReachMarginSoC = 0.02
	}
	if p.CorridorKm == 0 {
		p.CorridorKm = 15
	}
	if p.SnapToleranceKm == 0 {
		p.SnapToleranceKm = 2
	}
	if p.ProgressWindowKm == 0 {
		p.ProgressWindowKm = 25
	}
	if p.SpeculativeCandidates == 0 {
		p.SpeculativeCandidates = 3
	}
	if p.MaxStops == 0 {
		p.MaxStops = 32
	}
	if p.StationSampleKm == 0 {
		p.StationSampleKm = 50
	}
	if p.StationFetchConcurrency == 0 {
		p.StationFetchConcurrency = 4
	}
	if p.TargetArrivalSoC == 0 {
		p.TargetArrivalSoC = 0.15
	}
	if p.PlanningSpeedKph == 0 {
		p.PlanningSpeedKph = 100
	}
	if p.ChargeCurve == (ChargeCurve{}) {
		p.ChargeCurve = DefaultChargeCurve()
	}
}

// Validate checks that the policy values are usable.
func (p PlanPolicy) Validate() error {
	if p.DefaultTargetSoC <= 0 || p.DefaultTargetSoC > 1 {
		return fmt.Errorf("planner: default_target_soc must be in (0, 1]")
	}
	if p.ReachMarginSoC < 0 || p.ReachMarginSoC >= 1 {
		return fmt.Errorf("planner: reach_margin_soc must be in [0, 1)")
	}
	if p.CorridorKm <= 0 {
		return fmt.Errorf("planner: corridor_km must be positive")
	}
	if p.SnapToleranceKm <= 0 {
		return fmt.Errorf("planner: snap_tolerance_km must be positive")
	}
	if p.ProgressWindowKm < 0 {
		return fmt.Errorf("planner: progress_window_km must not be negative")
	}
	if p.SpeculativeCandidates < 1 {
		return fmt.Errorf("planner: speculative_candidates must be at least 1")
	}
	if p.MaxStops < 1 {
		return fmt.Errorf("planner: max_stops must be at least 1")
	}
	if p.StationSampleKm <= 0 {
		return fmt.Errorf("planner: station_sample_km must be positive")
	}
	if p.StationFetchConcurrency < 1 {
		return fmt.Errorf("planner: station_fetch_concurrency must be at least 1")
	}
	if err := p.DefaultPrefs().Validate(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	return p.ChargeCurve.Validate()
}

// DefaultPrefs returns the preferences applied when a request omits them.
func (p PlanPolicy) DefaultPrefs() domain.RoutePrefs {
	return domain.RoutePrefs{
		TargetArrivalSoC: p.TargetArrivalSoC,
		PlanningSpeedKph: p.PlanningSpeedKph,
	}
}
