package routing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/httpx"
	"ev-route-service/internal/platform/obs"
	"ev-route-service/internal/ports"
)

const DefaultORSBaseURL = "https://api.openrouteservice.org"

type ORSOptions struct {
	APIKey  string
	BaseURL string
	Profile string
	// Country restricts geocoding to an ISO country code when set.
	Country      string
	Timeout      time.Duration
	RetryBackoff time.Duration
	GeocodeCache ports.GeocodeCache
	RouteCache   ports.RouteCache
	Metrics      *obs.Metrics
}

// ORSRoutingProvider implements RoutingProvider using OpenRouteService.
//
// It coordinates:
//   - Place name normalization
//   - Geocode and route caching
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRoutingProvider struct {
	client       *httpx.Client
	apiKey       string
	baseURL      string
	profile      string
	country      string
	geocodeCache ports.GeocodeCache
	routeCache   ports.RouteCache
	metrics      *obs.Metrics
}

func NewORSRoutingProvider(opts ORSOptions) (*ORSRoutingProvider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultORSBaseURL
	}
	profile := opts.Profile
	if profile == "" {
		profile = "driving-car"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := httpx.NewClient(timeout)
	if opts.RetryBackoff > 0 {
		client.Backoff = opts.RetryBackoff
	}

	return &ORSRoutingProvider{
		client:       client,
		apiKey:       opts.APIKey,
		baseURL:      baseURL,
		profile:      profile,
		country:      opts.Country,
		geocodeCache: opts.GeocodeCache,
		routeCache:   opts.RouteCache,
		metrics:      opts.Metrics,
	}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Route geocodes both endpoints and fetches the driving geometry between them.
func (o *ORSRoutingProvider) Route(
	ctx context.Context,
	origin string,
	destination string,
) (_ domain.RouteGeometry, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	normOrigin := normalize(origin)
	if normOrigin == "" {
		return domain.RouteGeometry{}, fmt.Errorf("%w: origin must be non-empty", domain.ErrInvalidInput)
	}
	normDestination := normalize(destination)
	if normDestination == "" {
		return domain.RouteGeometry{}, fmt.Errorf("%w: destination must be non-empty", domain.ErrInvalidInput)
	}

	log := zerolog.Ctx(ctx)

	// Check the route cache before issuing external API calls.
	if o.routeCache != nil {
		geom, ok, err := o.routeCache.GetRoute(ctx, normOrigin, normDestination)
		if err != nil {
			log.Warn().Err(err).Msg("route cache read failed")
		} else if ok {
			return geom, nil
		}
	}

	coords, err := o.resolve(ctx, []string{normOrigin, normDestination})
	if err != nil {
		return domain.RouteGeometry{}, err
	}

	originCoord, ok := coords[normOrigin]
	if !ok {
		return domain.RouteGeometry{}, fmt.Errorf("%w: no geocode result for %q", domain.ErrUnreachableOrigin, normOrigin)
	}
	destinationCoord, ok := coords[normDestination]
	if !ok {
		return domain.RouteGeometry{}, fmt.Errorf("%w: no geocode result for %q", domain.ErrUnreachableDestination, normDestination)
	}

	geom, err := o.fetchDirections(ctx, originCoord, destinationCoord)
	if err != nil {
		return domain.RouteGeometry{}, err
	}

	if o.routeCache != nil {
		if err := o.routeCache.PutRoute(ctx, normOrigin, normDestination, geom); err != nil {
			log.Warn().Err(err).Msg("route cache write failed")
		}
	}

	return geom, nil
}

// resolve returns coordinates for normalized place names, consulting the
// geocode cache first. Names without a geocode result are absent from the map.
func (o *ORSRoutingProvider) resolve(ctx context.Context, names []string) (map[string]domain.Coordinates, error) {
	log := zerolog.Ctx(ctx)

	hits := make(map[string]domain.Coordinates)
	if o.geocodeCache != nil {
		cached, err := o.geocodeCache.GetMany(ctx, names)
		if err != nil {
			log.Warn().Err(err).Msg("geocode cache read failed")
		} else {
			hits = cached
		}
	}

	misses := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := hits[n]; !ok {
			misses = append(misses, n)
		}
	}
	if len(misses) == 0 {
		return hits, nil
	}

	fresh, err := o.geocodeMany(ctx, misses)
	if err != nil {
		return nil, err
	}

	if o.geocodeCache != nil && len(fresh) > 0 {
		if err := o.geocodeCache.PutMany(ctx, fresh); err != nil {
			log.Warn().Err(err).Msg("geocode cache write failed")
		}
	}

	out := make(map[string]domain.Coordinates, len(hits)+len(fresh))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}
	return out, nil
}

func (o *ORSRoutingProvider) newRequest(
	ctx context.Context,
	method string,
	url string,
	body []byte,
) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// upstreamError maps transport failures to ErrProviderUnavailable, leaving
// cancellation untouched.
func upstreamError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrProviderUnavailable, err)
}
