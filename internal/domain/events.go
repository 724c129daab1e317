package domain

import "time"

// PlanComputed summarises a successfully planned trip for downstream consumers.
type PlanComputed struct {
	ID                 string    `json:"id"`
	Origin             string    `json:"origin"`
	Destination        string    `json:"destination"`
	DistanceKm         float64   `json:"distance_km"`
	TotalDriveMinutes  float64   `json:"total_drive_minutes"`
	TotalChargeMinutes float64   `json:"total_charge_minutes"`
	TotalEnergyKwh     float64   `json:"total_energy_kwh"`
	ArrivalSoC         float64   `json:"arrival_soc"`
	StationIDs         []string  `json:"station_ids"`
	ComputedAt         time.Time `json:"computed_at"`
}

// NewPlanComputed builds the event for a plan.
func NewPlanComputed(id, origin, destination string, plan *RoutePlan, at time.Time) PlanComputed {
	ids := make([]string, 0, len(plan.Stops))
	for _, s := range plan.Stops {
		ids = append(ids, s.StationID)
	}
	return PlanComputed{
		ID:                 id,
		Origin:             origin,
		Destination:        destination,
		DistanceKm:         plan.Overall.DistanceKm,
		TotalDriveMinutes:  plan.TotalDriveMinutes,
		TotalChargeMinutes: plan.TotalChargeMinutes,
		TotalEnergyKwh:     plan.TotalEnergyKwh,
		ArrivalSoC:         plan.ArrivalSoC,
		StationIDs:         ids,
		ComputedAt:         at.UTC(),
	}
}
