package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/httpx"
	"ev-route-service/internal/platform/obs"
)

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Elevation    bool        `json:"elevation"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"` // meters
				Duration float64 `json:"duration"` // seconds
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// fetchDirections retrieves the driving geometry between two coordinates
// using the OpenRouteService GeoJSON directions endpoint.
func (o *ORSRoutingProvider) fetchDirections(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ domain.RouteGeometry, err error) {
	defer obs.Time(ctx, "ors.fetchDirections")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	body, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{from.CoordsToList(), to.CoordsToList()},
	})
	if err != nil {
		return domain.RouteGeometry{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, body)
	})
	o.metrics.ObserveUpstream("ors_directions", err)
	if err != nil {
		return domain.RouteGeometry{}, directionsError(err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.RouteGeometry{}, fmt.Errorf("directions: %w: decode response: %v", domain.ErrProviderUnavailable, err)
	}

	if len(decoded.Features) == 0 {
		return domain.RouteGeometry{}, fmt.Errorf("directions: %w: no route found", domain.ErrUnreachableDestination)
	}

	f := decoded.Features[0]
	points := make([]domain.Coordinates, 0, len(f.Geometry.Coordinates))
	for i, c := range f.Geometry.Coordinates {
		if len(c) < 2 {
			return domain.RouteGeometry{}, fmt.Errorf("directions: %w: invalid coordinate at index %d", domain.ErrProviderUnavailable, i)
		}
		points = append(points, domain.Coordinates{Lon: c[0], Lat: c[1]})
	}
	if len(points) == 0 {
		return domain.RouteGeometry{}, fmt.Errorf("directions: %w: empty route geometry", domain.ErrProviderUnavailable)
	}

	return domain.RouteGeometry{
		Points:       points,
		DistanceKm:   f.Properties.Summary.Distance / 1000,
		DriveMinutes: f.Properties.Summary.Duration / 60,
	}, nil
}

// directionsError classifies ORS failures. ORS reports unroutable endpoints
// as 404 with "... coordinate N" in the message, N being the waypoint index.
func directionsError(err error) error {
	var se *httpx.StatusError
	if !errors.As(err, &se) {
		return upstreamError("directions", err)
	}

	if se.Code == http.StatusNotFound || se.Code == http.StatusBadRequest {
		msg := strings.ToLower(se.Body)
		switch {
		case strings.Contains(msg, "coordinate 0"):
			return fmt.Errorf("directions: %w: %s", domain.ErrUnreachableOrigin, se.Body)
		case strings.Contains(msg, "coordinate 1"):
			return fmt.Errorf("directions: %w: %s", domain.ErrUnreachableDestination, se.Body)
		case se.Code == http.StatusNotFound:
			return fmt.Errorf("directions: %w: %s", domain.ErrUnreachableDestination, se.Body)
		}
	}

	return upstreamError("directions", err)
}
