package handlers

import (
	"net/http"

	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/domain"
)

type PresetHandler struct {
	Presets []domain.VehiclePreset
}

func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	res := make([]dto.EVSpec, 0, len(h.Presets))
	for _, p := range h.Presets {
		v := p.Vehicle
		res = append(res, dto.EVSpec{
			Name:               p.Name,
			BatteryKwh:         v.BatteryCapacityKwh,
			UsableSoCFraction:  v.UsableFraction,
			ConsumptionWhPerKm: v.ConsumptionWhPerKm,
			MaxChargeKw:        v.MaxChargeKw,
			StartSoC:           v.StartSoC,
			ReserveSoC:         v.ReserveSoC,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}
