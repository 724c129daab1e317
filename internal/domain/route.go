package domain

// Represents a charging stop inserted into a route.
// The station is referenced by id only; callers resolve it through a StationIndex.
// Position and AlongKm locate the stop on the base route geometry.
type PlannedStop struct {
	StationID      string
	Position       Coordinates
	AlongKm        float64
	ArriveSoC      float64
	DepartSoC      float64
	ChargeMinutes  float64
	EnergyAddedKwh float64
	EffectiveKw    float64
}

// Represents a contiguous slice of the route geometry between two stops
// (or a stop and an endpoint).
type LegSummary struct {
	Points       []Coordinates
	DistanceKm   float64
	DriveMinutes float64
	EnergyKwh    float64
}

// Represents the final energy-feasible plan for a trip.
// A RoutePlan is produced by the plan assembler; its totals are sums over
// Legs and Stops and are never assigned independently.
// It is immutable planning data and contains no side effects.
type RoutePlan struct {
	Overall            LegSummary
	Legs               []LegSummary
	Stops              []PlannedStop
	TotalEnergyKwh     float64
	TotalDriveMinutes  float64
	TotalChargeMinutes float64
	ArrivalSoC         float64
}
