package obs

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Plan outcomes recorded in plans_total.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeInfeasible = "infeasible"
	OutcomeError      = "error"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	plans        *prometheus.CounterVec
	planDuration prometheus.Histogram
	planStops    prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	upstream     *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. If reg is nil, the default
// registerer is used. Collectors that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plans_total",
			Help: "Trip planning requests by outcome",
		}, []string{"outcome"}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plan_duration_seconds",
			Help:    "End-to-end trip planning latency",
			Buckets: prometheus.DefBuckets,
		}),
		planStops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plan_stops",
			Help:    "Charging stops per successful plan",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12, 16, 32},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Calls to external providers by outcome",
		}, []string{"provider", "outcome"}),
	}

	var err error
	if m.plans, err = register(reg, m.plans); err != nil {
		return nil, err
	}
	if m.planDuration, err = register(reg, m.planDuration); err != nil {
		return nil, err
	}
	if m.planStops, err = register(reg, m.planStops); err != nil {
		return nil, err
	}
	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}
	if m.upstream, err = register(reg, m.upstream); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObservePlan records one planning attempt. stops is ignored unless outcome is OutcomeOK.
// A nil receiver is a no-op so callers may run without metrics.
func (m *Metrics) ObservePlan(outcome string, dur time.Duration, stops int) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(outcome).Inc()
	m.planDuration.Observe(dur.Seconds())
	if outcome == OutcomeOK {
		m.planStops.Observe(float64(stops))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(dur.Seconds())
}

// ObserveUpstream records one call to an external provider.
func (m *Metrics) ObserveUpstream(provider string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.upstream.WithLabelValues(provider, outcome).Inc()
}
