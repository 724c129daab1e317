package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/services"
)

// TripPlanner is the planning use case consumed by PlanHandler.
type TripPlanner interface {
	PlanTrip(ctx context.Context, req services.TripRequest, policy services.PlanPolicy) (*services.TripPlan, error)
}

// PlanIDHeader carries the server-assigned plan id.
const PlanIDHeader = "X-Plan-Id"

type PlanHandler struct {
	Planner TripPlanner
	Policy  services.PlanPolicy
}

// Plan computes an energy-feasible route with charging stops.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, domain.CodeInvalidInput, err.Error())
		return
	}
	if req.EV == nil {
		writeError(w, r, http.StatusBadRequest, domain.CodeInvalidInput, "ev is required")
		return
	}

	svcReq := services.TripRequest{
		Origin:      req.Origin,
		Destination: req.Destination,
		Vehicle:     vehicleFromDTO(*req.EV),
	}
	if req.Prefs != nil {
		svcReq.Prefs = &domain.RoutePrefs{
			TargetArrivalSoC: req.Prefs.TargetArrivalSoC,
			PlanningSpeedKph: req.Prefs.PlanningSpeedKph,
		}
	}

	trip, err := h.Planner.PlanTrip(r.Context(), svcReq, h.Policy)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := planResponse(trip)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set(PlanIDHeader, trip.ID)
	zerolog.Ctx(r.Context()).Info().
		Str("plan_id", trip.ID).
		Int("stops", len(trip.Plan.Stops)).
		Float64("distance_km", trip.Plan.Overall.DistanceKm).
		Msg("route planned")

	writeJSON(w, r, http.StatusOK, res)
}

func vehicleFromDTO(ev dto.EVSpec) domain.VehicleSpec {
	return domain.VehicleSpec{
		BatteryCapacityKwh: ev.BatteryKwh,
		UsableFraction:     ev.UsableSoCFraction,
		ConsumptionWhPerKm: ev.ConsumptionWhPerKm,
		MaxChargeKw:        ev.MaxChargeKw,
		StartSoC:           ev.StartSoC,
		ReserveSoC:         ev.ReserveSoC,
	}
}

func planResponse(trip *services.TripPlan) (dto.RoutePlanResponse, error) {
	p := trip.Plan

	legs := make([]dto.LegSummaryResponse, 0, len(p.Legs))
	for _, l := range p.Legs {
		legs = append(legs, legResponse(l))
	}

	stops := make([]dto.PlannedStopResponse, 0, len(p.Stops))
	for _, s := range p.Stops {
		st, ok := trip.Stations.Lookup(s.StationID)
		if !ok {
			return dto.RoutePlanResponse{}, fmt.Errorf("plan references unknown station %q", s.StationID)
		}
		stops = append(stops, dto.PlannedStopResponse{
			Station:        stationResponse(st),
			AlongKm:        s.AlongKm,
			ArriveSoC:      s.ArriveSoC,
			DepartSoC:      s.DepartSoC,
			ChargeMinutes:  s.ChargeMinutes,
			EnergyAddedKwh: s.EnergyAddedKwh,
			EffectiveKw:    s.EffectiveKw,
		})
	}

	return dto.RoutePlanResponse{
		Overall:            legResponse(p.Overall),
		Legs:               legs,
		Stops:              stops,
		TotalEnergyKwh:     p.TotalEnergyKwh,
		TotalDriveMinutes:  p.TotalDriveMinutes,
		TotalChargeMinutes: p.TotalChargeMinutes,
		ArrivalSoC:         p.ArrivalSoC,
	}, nil
}

func legResponse(l domain.LegSummary) dto.LegSummaryResponse {
	line := make([]dto.LatLng, len(l.Points))
	for i, c := range l.Points {
		line[i] = dto.LatLng{c.Lat, c.Lon}
	}
	return dto.LegSummaryResponse{
		Polyline:     line,
		DistanceKm:   l.DistanceKm,
		DriveMinutes: l.DriveMinutes,
		EnergyKwh:    l.EnergyKwh,
	}
}
