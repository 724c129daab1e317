package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
)

const defaultNearRadiusKm = 10.0

type StationHandler struct {
	Directory ports.StationDirectory
}

// Near lists stations within radiusKm of (lat, lng), nearest first.
func (h *StationHandler) Near(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := floatParam(q.Get("lat"), 0, true)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, domain.CodeInvalidInput, "lat: "+err.Error())
		return
	}
	lng, err := floatParam(q.Get("lng"), 0, true)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, domain.CodeInvalidInput, "lng: "+err.Error())
		return
	}
	radius, err := floatParam(q.Get("radiusKm"), defaultNearRadiusKm, false)
	if err != nil || radius <= 0 {
		writeError(w, r, http.StatusBadRequest, domain.CodeInvalidInput, "radiusKm must be a positive number")
		return
	}

	pos := domain.Coordinates{Lat: lat, Lon: lng}
	if !pos.Valid() {
		writeError(w, r, http.StatusBadRequest, domain.CodeInvalidInput, "lat/lng out of range")
		return
	}

	found, err := h.Directory.StationsNear(r.Context(), pos, radius)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	domain.SortByDistance(found, pos)

	res := make([]dto.StationResponse, 0, len(found))
	for _, s := range found {
		res = append(res, stationResponse(s))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func floatParam(raw string, fallback float64, required bool) (float64, error) {
	if raw == "" {
		if required {
			return 0, errMissing
		}
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !domain.IsFinite(v) {
		return 0, errNotNumber
	}
	return v, nil
}

var (
	errMissing   = errors.New("is required")
	errNotNumber = errors.New("must be a number")
)

func stationResponse(s domain.ChargingStation) dto.StationResponse {
	connectors := s.Connectors
	if connectors == nil {
		connectors = []string{}
	}
	return dto.StationResponse{
		ID:          s.ID,
		Name:        s.Name,
		Lat:         s.Position.Lat,
		Lng:         s.Position.Lon,
		Connectors:  connectors,
		MaxKw:       s.MaxKw,
		Operational: s.Operational,
	}
}
