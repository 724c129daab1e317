package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"ev-route-service/internal/domain"
)

// routeRecord is the serialized form of a RouteGeometry.
type routeRecord struct {
	Points       [][2]float64 `json:"points"` // [lat, lon]
	DistanceKm   float64      `json:"distance_km"`
	DriveMinutes float64      `json:"drive_minutes"`
}

func routeKey(origin, destination string) (string, error) {
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return "", fmt.Errorf("route cache: origin and destination must not be empty")
	}
	return origin + "|" + destination, nil
}

func encodePoints(points []domain.Coordinates) (string, error) {
	out := make([][2]float64, len(points))
	for i, p := range points {
		out[i] = [2]float64{p.Lat, p.Lon}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodePoints(s string) ([]domain.Coordinates, error) {
	var raw [][2]float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Coordinates, len(raw))
	for i, p := range raw {
		out[i] = domain.Coordinates{Lat: p[0], Lon: p[1]}
	}
	return out, nil
}

func encodeRoute(g domain.RouteGeometry) ([]byte, error) {
	rec := routeRecord{
		Points:       make([][2]float64, len(g.Points)),
		DistanceKm:   g.DistanceKm,
		DriveMinutes: g.DriveMinutes,
	}
	for i, p := range g.Points {
		rec.Points[i] = [2]float64{p.Lat, p.Lon}
	}
	return json.Marshal(rec)
}

func decodeRoute(b []byte) (domain.RouteGeometry, error) {
	var rec routeRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.RouteGeometry{}, err
	}
	g := domain.RouteGeometry{
		Points:       make([]domain.Coordinates, len(rec.Points)),
		DistanceKm:   rec.DistanceKm,
		DriveMinutes: rec.DriveMinutes,
	}
	for i, p := range rec.Points {
		g.Points[i] = domain.Coordinates{Lat: p[0], Lon: p[1]}
	}
	return g, nil
}
