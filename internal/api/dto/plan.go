package dto

// PlanRequest is the body of POST /route/plan. Field names follow the web client.
type PlanRequest struct {
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	EV          *EVSpec     `json:"ev"`
	Prefs       *RoutePrefs `json:"prefs,omitempty"`
}

// EVSpec doubles as the preset wire format. Name is informational.
type EVSpec struct {
	Name               string  `json:"name,omitempty"`
	BatteryKwh         float64 `json:"batteryKwh"`
	UsableSoCFraction  float64 `json:"usableSoCFraction"`
	ConsumptionWhPerKm float64 `json:"consumptionWhPerKm"`
	MaxChargeKw        float64 `json:"maxChargeKw"`
	StartSoC           float64 `json:"startSoC"`
	ReserveSoC         float64 `json:"reserveSoC"`
}

type RoutePrefs struct {
	TargetArrivalSoC float64 `json:"targetArrivalSoC"`
	PlanningSpeedKph float64 `json:"planningSpeedKph"`
}

// LatLng is a [lat, lng] pair.
type LatLng [2]float64

type LegSummaryResponse struct {
	Polyline     []LatLng `json:"polyline"`
	DistanceKm   float64  `json:"distanceKm"`
	DriveMinutes float64  `json:"driveMinutes"`
	EnergyKwh    float64  `json:"energyKwh"`
}

type PlannedStopResponse struct {
	Station        StationResponse `json:"station"`
	AlongKm        float64         `json:"alongKm"`
	ArriveSoC      float64         `json:"arriveSoC"`
	DepartSoC      float64         `json:"departSoC"`
	ChargeMinutes  float64         `json:"chargeMinutes"`
	EnergyAddedKwh float64         `json:"energyAddedKwh"`
	EffectiveKw    float64         `json:"effectiveKw"`
}

type RoutePlanResponse struct {
	Overall            LegSummaryResponse    `json:"overall"`
	Legs               []LegSummaryResponse  `json:"legs"`
	Stops              []PlannedStopResponse `json:"stops"`
	TotalEnergyKwh     float64               `json:"totalEnergyKwh"`
	TotalDriveMinutes  float64               `json:"totalDriveMinutes"`
	TotalChargeMinutes float64               `json:"totalChargeMinutes"`
	ArrivalSoC         float64               `json:"arrivalSoC"`
}

type ErrorResponse struct {
	Code               string   `json:"code"`
	Message            string   `json:"message"`
	BlockingDistanceKm *float64 `json:"blockingDistanceKm,omitempty"`
	ExhaustedAtKm      *float64 `json:"exhaustedAtKm,omitempty"`
}
