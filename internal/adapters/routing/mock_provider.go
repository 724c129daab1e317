package routing

import (
	"context"
	"fmt"
	"sync"

	"ev-route-service/internal/domain"
)

// MockRoutingProvider serves canned geometries keyed by "origin|destination".
type MockRoutingProvider struct {
	mu     sync.Mutex
	routes map[string]domain.RouteGeometry
	errs   map[string]error
	calls  int
}

func NewMockRoutingProvider() *MockRoutingProvider {
	return &MockRoutingProvider{
		routes: make(map[string]domain.RouteGeometry),
		errs:   make(map[string]error),
	}
}

// Add registers the geometry returned for origin -> destination.
func (p *MockRoutingProvider) Add(origin, destination string, geom domain.RouteGeometry) *MockRoutingProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[origin+"|"+destination] = geom
	return p
}

// Fail registers the error returned for origin -> destination.
func (p *MockRoutingProvider) Fail(origin, destination string, err error) *MockRoutingProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[origin+"|"+destination] = err
	return p
}

func (p *MockRoutingProvider) Route(ctx context.Context, origin, destination string) (domain.RouteGeometry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	key := origin + "|" + destination
	if err, ok := p.errs[key]; ok {
		return domain.RouteGeometry{}, err
	}
	g, ok := p.routes[key]
	if !ok {
		return domain.RouteGeometry{}, fmt.Errorf("%w: missing route %q -> %q", domain.ErrUnreachableDestination, origin, destination)
	}
	return g, nil
}

// Calls reports how many times Route was invoked.
func (p *MockRoutingProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
