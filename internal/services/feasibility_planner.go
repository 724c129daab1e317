package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ev-route-service/internal/domain"
)

// reachEpsKm absorbs floating-point noise when comparing reach to remaining distance.
const reachEpsKm = 1e-9

// PlannerState is a node of the feasibility state machine.
type PlannerState int

const (
	StateCruising PlannerState = iota
	StateNeedsStop
	StateStopPlanned
	StateReached
	StateInfeasible
)

func (s PlannerState) String() string {
	switch s {
	case StateCruising:
		return "cruising"
	case StateNeedsStop:
		return "needs_stop"
	case StateStopPlanned:
		return "stop_planned"
	case StateReached:
		return "reached"
	case StateInfeasible:
		return "infeasible"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s PlannerState) terminal() bool {
	return s == StateReached || s == StateInfeasible
}

// FeasibilityInput bundles everything a planning run reads. None of it is mutated.
type FeasibilityInput struct {
	Line    *domain.Polyline
	Vehicle domain.VehicleSpec
	Prefs   domain.RoutePrefs
	Finder  CandidateFinder
	Policy  PlanPolicy
}

// Trajectory is the planner output consumed by the plan assembler.
type Trajectory struct {
	Stops      []domain.PlannedStop
	ArrivalSoC float64
}

type stopProposal struct {
	candidate     Candidate
	arriveSoC     float64
	departSoC     float64
	chargeMinutes float64
	effectiveKw   float64
}

// simulation is the in-progress state of one planning run.
// It is owned by a single goroutine and discarded once the trajectory is built.
type simulation struct {
	in    FeasibilityInput
	state PlannerState

	soc   float64
	km    float64
	reach float64

	stops      []domain.PlannedStop
	pending    *stopProposal
	arrivalSoC float64
	err        error
}

func newSimulation(in FeasibilityInput) (*simulation, error) {
	if err := in.Vehicle.Validate(); err != nil {
		return nil, err
	}
	if err := in.Prefs.Validate(); err != nil {
		return nil, err
	}
	if in.Line == nil || in.Line.Len() == 0 {
		return nil, fmt.Errorf("%w: route geometry is empty", domain.ErrInvalidInput)
	}
	if in.Finder == nil {
		return nil, errors.New("feasibility planner: candidate finder is nil")
	}

	return &simulation{
		in:    in,
		state: StateCruising,
		soc:   in.Vehicle.StartSoC,
		stops: []domain.PlannedStop{},
	}, nil
}

// PlanFeasibility runs the greedy forward simulation to a terminal state.
//
// The planner minimises stop count under a myopic reachability rule; it does
// not search for the globally fastest trip. Steps run strictly in order, and
// cancellation is honoured between steps.
func PlanFeasibility(ctx context.Context, in FeasibilityInput) (*Trajectory, error) {
	sim, err := newSimulation(in)
	if err != nil {
		return nil, fmt.Errorf("feasibility planner: %w", err)
	}

	for !sim.state.terminal() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("feasibility planner: %w", err)
		}
		if err := sim.step(ctx); err != nil {
			return nil, fmt.Errorf("feasibility planner: %w", err)
		}
	}

	if sim.state == StateInfeasible {
		return nil, fmt.Errorf("feasibility planner: %w", sim.err)
	}

	return &Trajectory{Stops: sim.stops, ArrivalSoC: sim.arrivalSoC}, nil
}

// step performs exactly one state transition. Planning failures move the
// machine to StateInfeasible; the returned error is reserved for faults such
// as cancellation or invalid arithmetic input.
func (s *simulation) step(ctx context.Context) error {
	log := zerolog.Ctx(ctx)
	v := s.in.Vehicle

	switch s.state {
	case StateCruising:
		total := s.in.Line.TotalKm()
		remaining := math.Max(0, total-s.km)
		s.reach = ReachKm(s.soc, v)

		if s.reach+reachEpsKm >= remaining {
			final, err := socAfter(s.soc, remaining, v)
			if err != nil {
				return err
			}
			s.arrivalSoC = final
			s.transition(log, StateReached)
			return nil
		}

		if len(s.stops) >= s.in.Policy.MaxStops {
			s.fail(log, &domain.InfeasibleError{
				AtKm:    s.km,
				ReachKm: s.reach,
				Reason:  fmt.Sprintf("stop limit of %d reached", s.in.Policy.MaxStops),
			})
			return nil
		}
		s.transition(log, StateNeedsStop)

	case StateNeedsStop:
		candidates := FarthestWindow(s.in.Finder.CandidatesWithinReach(s.km, s.reach), s.in.Policy.ProgressWindowKm)
		if len(candidates) == 0 {
			s.fail(log, &domain.InfeasibleError{
				AtKm:    s.km,
				ReachKm: s.reach,
				Reason:  "no operational charging station within reach",
			})
			return nil
		}

		proposals, err := s.evaluate(ctx, candidates)
		if err != nil {
			return err
		}

		top := proposals[0]
		// A station at or behind the current position would loop forever.
		if top.candidate.AlongKm <= s.km {
			s.fail(log, &domain.InfeasibleError{
				AtKm:    s.km,
				ReachKm: s.reach,
				Reason:  fmt.Sprintf("station %s makes no forward progress", top.candidate.Station.ID),
			})
			return nil
		}

		for _, alt := range proposals[1:] {
			log.Debug().
				Str("station_id", alt.candidate.Station.ID).
				Float64("along_km", alt.candidate.AlongKm).
				Float64("charge_minutes", alt.chargeMinutes).
				Msg("planner alternative not selected")
		}

		s.pending = &top
		s.transition(log, StateStopPlanned)

	case StateStopPlanned:
		p := s.pending
		if p == nil {
			return errors.New("stop planned without a pending proposal")
		}

		s.stops = append(s.stops, domain.PlannedStop{
			StationID:      p.candidate.Station.ID,
			Position:       p.candidate.RoutePoint,
			AlongKm:        p.candidate.AlongKm,
			ArriveSoC:      p.arriveSoC,
			DepartSoC:      p.departSoC,
			ChargeMinutes:  p.chargeMinutes,
			EnergyAddedKwh: (p.departSoC - p.arriveSoC) * v.UsableKwh(),
			EffectiveKw:    p.effectiveKw,
		})
		s.km = p.candidate.AlongKm
		s.soc = p.departSoC
		s.pending = nil
		s.transition(log, StateCruising)

	default:
		return fmt.Errorf("step called in terminal state %s", s.state)
	}

	return nil
}

func (s *simulation) transition(log *zerolog.Logger, next PlannerState) {
	log.Debug().
		Str("from", s.state.String()).
		Str("to", next.String()).
		Float64("km", s.km).
		Float64("soc", s.soc).
		Float64("reach_km", s.reach).
		Msg("planner transition")
	s.state = next
}

func (s *simulation) fail(log *zerolog.Logger, err *domain.InfeasibleError) {
	s.err = err
	s.transition(log, StateInfeasible)
}

// evaluate builds stop proposals for the leading candidates concurrently.
// Proposals are pure functions of immutable inputs; only index 0 is committed.
func (s *simulation) evaluate(ctx context.Context, candidates []Candidate) ([]stopProposal, error) {
	n := min(s.in.Policy.SpeculativeCandidates, len(candidates))
	if n < 1 {
		n = 1
	}

	proposals := make([]stopProposal, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := s.propose(candidates[i])
			if err != nil {
				return fmt.Errorf("propose stop at %s: %w", candidates[i].Station.ID, err)
			}
			proposals[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return proposals, nil
}

func (s *simulation) propose(c Candidate) (stopProposal, error) {
	v := s.in.Vehicle

	arrive, err := socAfter(s.soc, c.AlongKm-s.km, v)
	if err != nil {
		return stopProposal{}, err
	}

	depart, err := s.departSoC(c, arrive)
	if err != nil {
		return stopProposal{}, err
	}

	effKw := EffectiveKw(c.Station, v)
	minutes, err := s.in.Policy.ChargeCurve.ChargeTimeMinutes(arrive, depart, effKw, v)
	if err != nil {
		return stopProposal{}, err
	}

	return stopProposal{
		candidate:     c,
		arriveSoC:     arrive,
		departSoC:     depart,
		chargeMinutes: minutes,
		effectiveKw:   effKw,
	}, nil
}

// departSoC picks the smallest SoC that carries the vehicle onward.
//
// When the destination is within a full battery from c, charge for the target
// arrival SoC (capped at 1.0). Otherwise look ahead to the station the next step would
// pick from c, first with the default target cap and then with a full battery,
// and charge just enough to reach it plus the margin.
func (s *simulation) departSoC(c Candidate, arrive float64) (float64, error) {
	v := s.in.Vehicle
	pol := s.in.Policy

	remaining := math.Max(0, s.in.Line.TotalKm()-c.AlongKm)
	need, err := socFor(remaining, v)
	if err != nil {
		return 0, err
	}

	if v.ReserveSoC+need <= 1 {
		target := math.Max(s.in.Prefs.TargetArrivalSoC, v.ReserveSoC)
		return clampDepart(arrive, target+need, 1), nil
	}

	for _, limit := range []float64{pol.DefaultTargetSoC, 1} {
		if limit <= v.ReserveSoC {
			continue
		}
		next := FarthestWindow(s.in.Finder.CandidatesWithinReach(c.AlongKm, ReachKm(limit, v)), pol.ProgressWindowKm)
		if len(next) == 0 {
			continue
		}
		hop, err := socFor(next[0].AlongKm-c.AlongKm, v)
		if err != nil {
			return 0, err
		}
		return clampDepart(arrive, v.ReserveSoC+hop+pol.ReachMarginSoC, limit), nil
	}

	// Nothing reachable onward; leave full and let the next step report the gap.
	return math.Max(arrive, 1), nil
}

func clampDepart(arrive, want, limit float64) float64 {
	d := math.Min(want, limit)
	d = math.Max(d, arrive)
	return math.Min(d, 1)
}
