package stations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/httpx"
	"ev-route-service/internal/platform/obs"
)

const DefaultOCMBaseURL = "https://api.openchargemap.io/v3"

type OCMOptions struct {
	APIKey       string
	BaseURL      string
	MaxResults   int
	Timeout      time.Duration
	RetryBackoff time.Duration
	Metrics      *obs.Metrics
}

// OCMDirectory implements StationDirectory using the OpenChargeMap POI API.
// It is safe for concurrent use.
type OCMDirectory struct {
	client     *httpx.Client
	apiKey     string
	baseURL    string
	maxResults int
	metrics    *obs.Metrics
}

func NewOCMDirectory(opts OCMOptions) *OCMDirectory {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOCMBaseURL
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := httpx.NewClient(timeout)
	if opts.RetryBackoff > 0 {
		client.Backoff = opts.RetryBackoff
	}

	return &OCMDirectory{
		client:     client,
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		maxResults: maxResults,
		metrics:    opts.Metrics,
	}
}

// Compact POI payload; reference data is returned as ids only.
type ocmPOI struct {
	ID           int  `json:"ID"`
	StatusTypeID *int `json:"StatusTypeID"`
	StatusType   *struct {
		IsOperational *bool `json:"IsOperational"`
	} `json:"StatusType"`
	AddressInfo struct {
		Title     string  `json:"Title"`
		Latitude  float64 `json:"Latitude"`
		Longitude float64 `json:"Longitude"`
	} `json:"AddressInfo"`
	Connections []struct {
		ConnectionTypeID int      `json:"ConnectionTypeID"`
		PowerKW          *float64 `json:"PowerKW"`
	} `json:"Connections"`
}

// connectorNames maps OpenChargeMap connection type ids to connector labels.
var connectorNames = map[int]string{
	1:    "J1772",
	2:    "CHAdeMO",
	25:   "Type2",
	27:   "Tesla",
	30:   "Tesla",
	32:   "CCS1",
	33:   "CCS2",
	1036: "Type2",
}

// StationsNear returns stations within radiusKm of position ordered by distance.
func (d *OCMDirectory) StationsNear(
	ctx context.Context,
	position domain.Coordinates,
	radiusKm float64,
) (_ []domain.ChargingStation, err error) {
	defer obs.Time(ctx, "ocm.StationsNear")(&err)

	if !position.Valid() {
		return nil, fmt.Errorf("ocm stations near: %w: invalid position", domain.ErrInvalidInput)
	}
	if !domain.IsFinite(radiusKm) || radiusKm <= 0 {
		return nil, fmt.Errorf("ocm stations near: %w: radius must be positive", domain.ErrInvalidInput)
	}

	endpoint := d.baseURL + "/poi"
	resp, err := d.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if d.apiKey != "" {
			req.Header.Set("X-API-Key", d.apiKey)
		}

		q := req.URL.Query()
		q.Set("latitude", strconv.FormatFloat(position.Lat, 'f', 6, 64))
		q.Set("longitude", strconv.FormatFloat(position.Lon, 'f', 6, 64))
		q.Set("distance", strconv.FormatFloat(radiusKm, 'f', 3, 64))
		q.Set("distanceunit", "KM")
		q.Set("maxresults", strconv.Itoa(d.maxResults))
		q.Set("compact", "true")
		q.Set("verbose", "false")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	d.metrics.ObserveUpstream("ocm", err)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("ocm stations near: %w", err)
		}
		return nil, fmt.Errorf("ocm stations near: %w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var pois []ocmPOI
	if err := json.NewDecoder(resp.Body).Decode(&pois); err != nil {
		return nil, fmt.Errorf("ocm stations near: %w: decode response: %v", domain.ErrProviderUnavailable, err)
	}

	out := make([]domain.ChargingStation, 0, len(pois))
	for _, p := range pois {
		s, ok := p.toStation()
		if !ok {
			continue
		}
		if domain.HaversineKm(position, s.Position) > radiusKm {
			continue
		}
		out = append(out, s)
	}
	domain.SortByDistance(out, position)

	return out, nil
}

// toStation converts a POI, rejecting entries with unknown power or position.
func (p ocmPOI) toStation() (domain.ChargingStation, bool) {
	pos := domain.Coordinates{Lat: p.AddressInfo.Latitude, Lon: p.AddressInfo.Longitude}
	if p.ID <= 0 || !pos.Valid() {
		return domain.ChargingStation{}, false
	}

	maxKw := 0.0
	seen := map[string]struct{}{}
	connectors := []string{}
	for _, c := range p.Connections {
		if c.PowerKW != nil && *c.PowerKW > maxKw {
			maxKw = *c.PowerKW
		}
		name, ok := connectorNames[c.ConnectionTypeID]
		if !ok {
			name = "Other"
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			connectors = append(connectors, name)
		}
	}
	if maxKw <= 0 {
		return domain.ChargingStation{}, false
	}
	sort.Strings(connectors)

	name := strings.TrimSpace(p.AddressInfo.Title)
	if name == "" {
		name = fmt.Sprintf("OCM station %d", p.ID)
	}

	return domain.ChargingStation{
		ID:          fmt.Sprintf("OCM-%d", p.ID),
		Name:        name,
		Position:    pos,
		Connectors:  connectors,
		MaxKw:       maxKw,
		Operational: p.operational(),
	}, true
}

// operational prefers the expanded status; otherwise status ids 0 (unknown),
// 50 (operational) and 75 (partly operational) count as usable.
func (p ocmPOI) operational() bool {
	if p.StatusType != nil && p.StatusType.IsOperational != nil {
		return *p.StatusType.IsOperational
	}
	if p.StatusTypeID == nil {
		return true
	}
	switch *p.StatusTypeID {
	case 0, 50, 75:
		return true
	default:
		return false
	}
}
