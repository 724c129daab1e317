package domain

import (
	"fmt"
	"math"
)

// RouteGeometry is the base driving route returned by a routing provider.
// It is treated as immutable once obtained; planners never modify Points.
type RouteGeometry struct {
	Points       []Coordinates
	DistanceKm   float64
	DriveMinutes float64
}

// Validate checks the geometry invariants required by the planner.
func (g RouteGeometry) Validate() error {
	if len(g.Points) == 0 {
		return fmt.Errorf("%w: route geometry must contain at least one point", ErrInvalidInput)
	}
	if !IsFinite(g.DistanceKm) || g.DistanceKm < 0 {
		return fmt.Errorf("%w: route distance must be a finite non-negative number", ErrInvalidInput)
	}
	if !IsFinite(g.DriveMinutes) || g.DriveMinutes < 0 {
		return fmt.Errorf("%w: route drive minutes must be a finite non-negative number", ErrInvalidInput)
	}
	for i, p := range g.Points {
		if !p.Valid() {
			return fmt.Errorf("%w: route point %d has invalid coordinates", ErrInvalidInput, i)
		}
	}
	return nil
}

// Projection locates a point relative to a polyline.
type Projection struct {
	// AlongKm is the route distance from the first point to the projected point.
	AlongKm float64
	// OffsetKm is the perpendicular distance between the point and the route.
	OffsetKm float64
	// Point is the projected location on the route.
	Point Coordinates
}

// Polyline is a RouteGeometry with its cumulative distance table precomputed.
//
// Cumulative distances are haversine sums scaled so that the last entry equals
// the provider-reported DistanceKm; the provider's figure is the source of truth
// for road distance while the points only describe shape.
type Polyline struct {
	geom RouteGeometry
	cum  []float64
}

func NewPolyline(g RouteGeometry) *Polyline {
	n := len(g.Points)
	cum := make([]float64, n)
	if n == 0 {
		return &Polyline{geom: g, cum: cum}
	}

	raw := 0.0
	for i := 1; i < n; i++ {
		raw += HaversineKm(g.Points[i-1], g.Points[i])
		cum[i] = raw
	}

	switch {
	case raw > 0 && g.DistanceKm > 0:
		scale := g.DistanceKm / raw
		for i := range cum {
			cum[i] *= scale
		}
		cum[n-1] = g.DistanceKm
	case raw == 0 && g.DistanceKm > 0 && n > 1:
		// Degenerate shape (coincident points): spread distance evenly by index.
		for i := range cum {
			cum[i] = g.DistanceKm * float64(i) / float64(n-1)
		}
	case g.DistanceKm == 0:
		for i := range cum {
			cum[i] = 0
		}
	}

	return &Polyline{geom: g, cum: cum}
}

func (p *Polyline) Geometry() RouteGeometry { return p.geom }

func (p *Polyline) Len() int { return len(p.geom.Points) }

func (p *Polyline) TotalKm() float64 { return p.geom.DistanceKm }

// CumulativeKm returns the route distance at point i.
func (p *Polyline) CumulativeKm(i int) float64 { return p.cum[i] }

// Project returns the closest location on the polyline to c.
//
// Segments are treated as straight lines in a local equirectangular frame
// centred on c, which is accurate for the short segments routing providers emit.
// Ties resolve to the earliest segment.
func (p *Polyline) Project(c Coordinates) Projection {
	pts := p.geom.Points
	if len(pts) == 0 {
		return Projection{}
	}
	if len(pts) == 1 {
		return Projection{AlongKm: 0, OffsetKm: HaversineKm(c, pts[0]), Point: pts[0]}
	}

	kmPerDegLat := EarthRadiusKm * math.Pi / 180
	kmPerDegLon := kmPerDegLat * math.Cos(degToRad(c.Lat))

	best := Projection{OffsetKm: math.Inf(1)}
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		ax := (a.Lon - c.Lon) * kmPerDegLon
		ay := (a.Lat - c.Lat) * kmPerDegLat
		bx := (b.Lon - c.Lon) * kmPerDegLon
		by := (b.Lat - c.Lat) * kmPerDegLat

		dx, dy := bx-ax, by-ay
		segLen2 := dx*dx + dy*dy

		t := 0.0
		if segLen2 > 0 {
			t = -(ax*dx + ay*dy) / segLen2
			t = math.Max(0, math.Min(1, t))
		}

		cx, cy := ax+t*dx, ay+t*dy
		offset := math.Hypot(cx, cy)
		if offset < best.OffsetKm {
			best = Projection{
				AlongKm:  p.cum[i] + t*(p.cum[i+1]-p.cum[i]),
				OffsetKm: offset,
				Point: Coordinates{
					Lat: a.Lat + t*(b.Lat-a.Lat),
					Lon: a.Lon + t*(b.Lon-a.Lon),
				},
			}
		}
	}

	return best
}

// PointAt interpolates the location at route distance km.
func (p *Polyline) PointAt(km float64) Coordinates {
	pts := p.geom.Points
	if len(pts) == 0 {
		return Coordinates{}
	}
	if km <= 0 {
		return pts[0]
	}
	last := len(pts) - 1
	if km >= p.cum[last] {
		return pts[last]
	}

	for i := 0; i < last; i++ {
		if km > p.cum[i+1] {
			continue
		}
		span := p.cum[i+1] - p.cum[i]
		if span <= 0 {
			return pts[i+1]
		}
		t := (km - p.cum[i]) / span
		return Coordinates{
			Lat: pts[i].Lat + t*(pts[i+1].Lat-pts[i].Lat),
			Lon: pts[i].Lon + t*(pts[i+1].Lon-pts[i].Lon),
		}
	}

	return pts[last]
}

// VertexNearKm returns the index among [from, len) whose cumulative distance
// is closest to km, preferring the earlier index on ties. It returns -1 when
// the range is empty.
func (p *Polyline) VertexNearKm(km float64, from int) int {
	if from < 0 {
		from = 0
	}
	bestIdx, bestDiff := -1, math.Inf(1)
	for i := from; i < len(p.cum); i++ {
		if d := math.Abs(p.cum[i] - km); d < bestDiff {
			bestIdx, bestDiff = i, d
		}
	}
	return bestIdx
}
