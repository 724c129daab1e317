package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
	"ev-route-service/internal/ports"
)

type TripRequest struct {
	Origin      string
	Destination string
	Vehicle     domain.VehicleSpec
	// Prefs falls back to the policy defaults when nil.
	Prefs *domain.RoutePrefs
}

// TripPlan is a RoutePlan plus the stations its stops reference.
type TripPlan struct {
	ID       string
	Plan     *domain.RoutePlan
	Stations domain.StationIndex
}

// TripPlanner wires the routing provider and station directory into the
// planning core. It holds no per-request state and is safe for concurrent use.
type TripPlanner struct {
	routing   ports.RoutingProvider
	stations  ports.StationDirectory
	publisher ports.PlanPublisher
	metrics   *obs.Metrics
	now       func() time.Time
	newID     func() string
}

type TripPlannerOption func(*TripPlanner)

func WithPublisher(p ports.PlanPublisher) TripPlannerOption {
	return func(t *TripPlanner) { t.publisher = p }
}

func WithMetrics(m *obs.Metrics) TripPlannerOption {
	return func(t *TripPlanner) { t.metrics = m }
}

func WithClock(now func() time.Time) TripPlannerOption {
	return func(t *TripPlanner) { t.now = now }
}

func WithIDGenerator(newID func() string) TripPlannerOption {
	return func(t *TripPlanner) { t.newID = newID }
}

func NewTripPlanner(routing ports.RoutingProvider, stations ports.StationDirectory, opts ...TripPlannerOption) *TripPlanner {
	t := &TripPlanner{
		routing:  routing,
		stations: stations,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PlanTrip validates the request, fetches the base route and nearby stations,
// and runs the planner and assembler.
//
// Validation failures return before any provider lookup.
func (t *TripPlanner) PlanTrip(ctx context.Context, req TripRequest, policy PlanPolicy) (_ *TripPlan, err error) {
	defer obs.Time(ctx, "services.PlanTrip")(&err)

	start := time.Now()
	trip, err := t.planTrip(ctx, req, policy)

	stops := 0
	if trip != nil {
		stops = len(trip.Plan.Stops)
	}
	t.metrics.ObservePlan(planOutcome(err), time.Since(start), stops)

	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (t *TripPlanner) planTrip(ctx context.Context, req TripRequest, policy PlanPolicy) (*TripPlan, error) {
	log := zerolog.Ctx(ctx)

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("plan trip: policy: %w", err)
	}

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" {
		return nil, fmt.Errorf("plan trip: %w: origin must be non-empty", domain.ErrInvalidInput)
	}
	if destination == "" {
		return nil, fmt.Errorf("plan trip: %w: destination must be non-empty", domain.ErrInvalidInput)
	}

	prefs := policy.DefaultPrefs()
	if req.Prefs != nil {
		prefs = *req.Prefs
	}
	if err := req.Vehicle.Validate(); err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	geom, err := t.routing.Route(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("plan trip: route %q -> %q: %w", origin, destination, err)
	}
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("plan trip: %w: provider returned invalid geometry: %v", domain.ErrProviderUnavailable, err)
	}

	line := domain.NewPolyline(geom)

	var stations []domain.ChargingStation
	// Skip station lookups entirely when the start SoC already covers the trip.
	if ReachKm(req.Vehicle.StartSoC, req.Vehicle)+reachEpsKm < line.TotalKm() {
		stations, err = FetchCorridorStations(ctx, t.stations, line, policy)
		if err != nil {
			return nil, fmt.Errorf("plan trip: %w", err)
		}
	}

	finder := NewCorridorFinder(line, stations, policy.CorridorKm)
	log.Debug().
		Float64("distance_km", line.TotalKm()).
		Int("stations", len(stations)).
		Int("corridor_candidates", finder.Len()).
		Msg("planning trip")

	traj, err := PlanFeasibility(ctx, FeasibilityInput{
		Line:    line,
		Vehicle: req.Vehicle,
		Prefs:   prefs,
		Finder:  finder,
		Policy:  policy,
	})
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	plan, err := AssemblePlan(AssembleInput{
		Line:            line,
		Trajectory:      traj,
		Vehicle:         req.Vehicle,
		Prefs:           prefs,
		SnapToleranceKm: policy.SnapToleranceKm,
	})
	if err != nil {
		if errors.Is(err, domain.ErrGeometryMismatch) {
			log.Error().Err(err).Str("origin", origin).Str("destination", destination).Msg("planner and route geometry disagree")
		}
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	all := domain.NewStationIndex(stations)
	used := make(domain.StationIndex, len(plan.Stops))
	for _, s := range plan.Stops {
		st, ok := all.Lookup(s.StationID)
		if !ok {
			return nil, fmt.Errorf("plan trip: stop references unknown station %q", s.StationID)
		}
		used[s.StationID] = st
	}

	trip := &TripPlan{ID: t.newID(), Plan: plan, Stations: used}
	t.publish(ctx, trip, origin, destination)

	return trip, nil
}

func (t *TripPlanner) publish(ctx context.Context, trip *TripPlan, origin, destination string) {
	if t.publisher == nil {
		return
	}
	ev := domain.NewPlanComputed(trip.ID, origin, destination, trip.Plan, t.now())
	if err := t.publisher.PublishPlan(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("plan_id", trip.ID).Msg("publish plan event failed")
	}
}

func planOutcome(err error) string {
	switch {
	case err == nil:
		return obs.OutcomeOK
	case errors.Is(err, domain.ErrInvalidInput):
		return obs.OutcomeInvalid
	case errors.Is(err, domain.ErrInfeasible):
		return obs.OutcomeInfeasible
	default:
		return obs.OutcomeError
	}
}

// FetchCorridorStations queries the directory at points spaced
// policy.StationSampleKm along the route. The query radius covers every point
// within policy.CorridorKm of the route between samples. Results are
// deduplicated and sorted by id.
func FetchCorridorStations(
	ctx context.Context,
	dir ports.StationDirectory,
	line *domain.Polyline,
	policy PlanPolicy,
) ([]domain.ChargingStation, error) {
	if dir == nil {
		return nil, errors.New("fetch corridor stations: station directory is nil")
	}

	samples := sampleRoute(line, policy.StationSampleKm)
	radius := policy.StationSampleKm/2 + policy.CorridorKm

	results := make([][]domain.ChargingStation, len(samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(policy.StationFetchConcurrency)
	for i, p := range samples {
		g.Go(func() error {
			found, err := dir.StationsNear(gctx, p, radius)
			if err != nil {
				return fmt.Errorf("fetch corridor stations: sample %d: %w", i, err)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.ChargingStation)
	for _, found := range results {
		for _, s := range found {
			if _, ok := byID[s.ID]; !ok {
				byID[s.ID] = s
			}
		}
	}

	out := make([]domain.ChargingStation, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// sampleRoute returns points every stepKm along the route, always including
// both endpoints.
func sampleRoute(line *domain.Polyline, stepKm float64) []domain.Coordinates {
	total := line.TotalKm()
	if total <= 0 || stepKm <= 0 {
		return []domain.Coordinates{line.PointAt(0)}
	}

	n := int(math.Ceil(total / stepKm))
	out := make([]domain.Coordinates, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, line.PointAt(float64(i)*stepKm))
	}
	return append(out, line.PointAt(total))
}
