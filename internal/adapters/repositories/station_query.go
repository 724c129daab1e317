package repositories

import (
	"encoding/json"
	"fmt"
	"math"

	"ev-route-service/internal/domain"
)

// boundingBox is a lat/lon window enclosing a circle, used as an index
// prefilter before the exact haversine check.
type boundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func boxAround(c domain.Coordinates, radiusKm float64) boundingBox {
	kmPerDeg := domain.EarthRadiusKm * math.Pi / 180
	dLat := radiusKm / kmPerDeg

	b := boundingBox{
		MinLat: math.Max(-90, c.Lat-dLat),
		MaxLat: math.Min(90, c.Lat+dLat),
		MinLon: -180,
		MaxLon: 180,
	}

	cosLat := math.Cos(c.Lat * math.Pi / 180)
	if cosLat < 1e-6 {
		return b
	}
	dLon := radiusKm / (kmPerDeg * cosLat)
	// Windows crossing the antimeridian fall back to the full longitude range.
	if c.Lon-dLon >= -180 && c.Lon+dLon <= 180 {
		b.MinLon = c.Lon - dLon
		b.MaxLon = c.Lon + dLon
	}
	return b
}

// withinRadius keeps stations inside the circle and orders them by distance.
func withinRadius(stations []domain.ChargingStation, c domain.Coordinates, radiusKm float64) []domain.ChargingStation {
	out := make([]domain.ChargingStation, 0, len(stations))
	for _, s := range stations {
		if domain.HaversineKm(c, s.Position) <= radiusKm {
			out = append(out, s)
		}
	}
	domain.SortByDistance(out, c)
	return out
}

func validateQuery(op string, c domain.Coordinates, radiusKm float64) error {
	if !c.Valid() {
		return fmt.Errorf("%s: %w: invalid position", op, domain.ErrInvalidInput)
	}
	if !domain.IsFinite(radiusKm) || radiusKm <= 0 {
		return fmt.Errorf("%s: %w: radius must be positive", op, domain.ErrInvalidInput)
	}
	return nil
}

func encodeConnectors(c []string) (string, error) {
	if c == nil {
		c = []string{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeConnectors(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}
