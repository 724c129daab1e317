package handlers

import (
	"net/http"

	"ev-route-service/internal/api/dto"
)

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.HealthResponse{
		Status:  "OK",
		Message: "EV route planner is running",
	})
}
