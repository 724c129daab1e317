package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// geocodeMany resolves place names individually using OpenRouteService (/geocode/search).
// Names with no result are omitted from the returned map.
func (o *ORSRoutingProvider) geocodeMany(
	ctx context.Context,
	names []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.geocodeMany")(&err)

	endpoint := o.baseURL + "/geocode/search"

	seen := make(map[string]struct{}, len(names))
	out := make(map[string]domain.Coordinates)
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}

		c, found, err := o.geocodeOne(ctx, endpoint, n)
		if err != nil {
			return nil, err
		}
		if found {
			out[n] = c
		}
	}

	return out, nil
}

func (o *ORSRoutingProvider) geocodeOne(ctx context.Context, endpoint, name string) (domain.Coordinates, bool, error) {
	resp, err := o.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", name)
		q.Set("size", "1")
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	o.metrics.ObserveUpstream("ors_geocode", err)
	if err != nil {
		return domain.Coordinates{}, false, upstreamError(fmt.Sprintf("geocode %q", name), err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode %q: %w: decode response: %v", name, domain.ErrProviderUnavailable, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, false, nil
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, false, fmt.Errorf("geocode %q: %w: invalid coordinate format", name, domain.ErrProviderUnavailable)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, true, nil
}
