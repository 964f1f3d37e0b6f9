// Package graphview adapts the Map Store into a directed graph suitable
// for single-source shortest paths (spec.md §4.3). It holds no edges of
// its own: every query dereferences indices against the underlying map
// under whatever lock the caller already holds, so index rebuilds can
// never leave it holding a dangling edge (spec.md §9).
package graphview

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

// MapAccessor is the slice of Map Store behavior the Graph View needs.
type MapAccessor interface {
	Size() int
	PointAt(i int) *pointcloud.Point
	Position(i int) r3.Vector
	NeighborsWithin(center r3.Vector, radius float64, knn int) []int
}

// Graph is a lightweight, stateless view over a Map Store.
type Graph struct {
	cfg Config
	m   MapAccessor
}

// New returns a Graph view over m.
func New(cfg Config, m MapAccessor) *Graph {
	return &Graph{cfg: cfg, m: m}
}

// Size returns the number of vertices, [0, Size()).
func (g *Graph) Size() int {
	return g.m.Size()
}

// Position returns vertex v's position.
func (g *Graph) Position(v int) r3.Vector {
	return g.m.Position(v)
}

// Normal returns vertex v's most recently estimated normal.
func (g *Graph) Normal(v int) r3.Vector {
	return g.m.PointAt(v).Normal
}

// Passable reports whether v can be an edge endpoint.
func (g *Graph) Passable(v int) bool {
	return g.passable(v)
}

// passable reports whether v can be an edge endpoint (spec.md §4.3).
func (g *Graph) passable(v int) bool {
	return g.m.PointAt(v).Flags.Passable()
}

// OutNeighbors returns every u reachable from v by a single passable edge:
// spatial neighbors of v, excluding v itself, restricted to passable
// endpoints on both sides.
func (g *Graph) OutNeighbors(v int) []int {
	if !g.passable(v) {
		return nil
	}
	pos := g.m.Position(v)
	candidates := g.m.NeighborsWithin(pos, g.cfg.NeighborhoodRadius, g.cfg.NeighborhoodKNN)
	out := make([]int, 0, len(candidates))
	for _, u := range candidates {
		if u == v {
			continue
		}
		if g.passable(u) {
			out = append(out, u)
		}
	}
	return out
}

// EdgeCost returns the cost of traversing v->u, given the direction the
// path used to arrive at v (the zero vector if v is the start, or the
// incoming direction is otherwise unknown — spec.md §4.3, "when
// unavailable, treat [turning] as zero"). It returns +Inf if either
// endpoint is not passable.
func (g *Graph) EdgeCost(v, u int, incomingDir r3.Vector) float64 {
	if !g.passable(v) || !g.passable(u) {
		return math.Inf(1)
	}

	pv, pu := g.m.Position(v), g.m.Position(u)
	segment := pu.Sub(pv)
	dist := segment.Norm()
	if dist == 0 {
		return 0
	}
	distanceTerm := dist / g.cfg.MaxSpeed

	pitch, roll := pointcloud.PitchRoll(g.m.PointAt(u).Normal)
	poseCost := math.Abs(roll)/g.cfg.MaxRoll + math.Abs(pitch)/g.cfg.MaxPitch

	var turning float64
	if incomingDir != (r3.Vector{}) {
		yawDiff := wrappedAngleBetween(incomingDir, segment)
		turning = yawDiff / g.cfg.MaxAngularRate
	}

	cost := 1.06*distanceTerm + 1.08*distanceTerm*poseCost + 0.24*turning
	if math.IsNaN(cost) || cost < 0 {
		return math.Inf(1)
	}
	return cost
}

// wrappedAngleBetween returns the absolute angle in [0, pi] between the
// horizontal (xy) headings of a and b.
func wrappedAngleBetween(a, b r3.Vector) float64 {
	ha := math.Atan2(a.Y, a.X)
	hb := math.Atan2(b.Y, b.X)
	d := hb - ha
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return math.Abs(d)
}
