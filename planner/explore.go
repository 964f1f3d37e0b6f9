package planner

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ridgeline-robotics/graphplan/mapstore"
)

func vpRatio(dist, min, max float64) float64 {
	if math.IsNaN(dist) {
		return 1
	}
	r := (dist - min) / (max - min)
	return clampFloat(r, 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func explorationReward(distToActor, distToOther float64, numEdgeNeighbors int, cfg Config) float64 {
	rSelf := vpRatio(distToActor, cfg.MinVPDistance, cfg.MaxVPDistance)
	rOther := vpRatio(distToOther, cfg.MinVPDistance, cfg.MaxVPDistance)
	base := math.Max(math.Min(rSelf, rOther), cfg.SelfFactor*rSelf)
	return base * float64(1+numEdgeNeighbors)
}

// stagingDivisor implements spec.md §4.4 step 6's staging penalty; per §9
// Open Question (ii) the box is configuration-driven and the penalty is
// skipped entirely when disabled.
func stagingDivisor(pos r3.Vector, cfg Config) float64 {
	if !cfg.StagingBoxEnabled {
		return 1
	}
	lo, hi := cfg.StagingBoxMin, cfg.StagingBoxMax
	inside := pos.X >= lo.X && pos.X <= hi.X &&
		pos.Y >= lo.Y && pos.Y <= hi.Y &&
		pos.Z >= lo.Z && pos.Z <= hi.Z
	if !inside {
		return 1
	}
	return 1 + math.Pow(pos.Norm(), 4)
}

// selectExplorationGoal implements spec.md §4.4 step 6. It writes
// path_cost, reward and relative_cost onto every point (the transient
// per-plan diagnostics of spec.md §3) and returns the vertex minimizing
// relative_cost among those with positive reward and path_cost > 1.0.
// size is the same vertex count the caller snapshotted for dijkstra, kept
// in lockstep with sp's fixed-length slices rather than resampled from m
// mid-loop.
func selectExplorationGoal(m mapstore.MapAccessor, size int, sp *sssp, cfg Config) (int, bool) {
	best := -1
	bestRelCost := math.Inf(1)

	for v := 0; v < size; v++ {
		p := m.PointAt(v)
		p.PathCost = sp.pathCost[v]

		if math.IsInf(sp.pathCost[v], 1) {
			p.Reward = math.NaN()
			p.RelativeCost = math.NaN()
			continue
		}

		reward := explorationReward(p.DistToActor, p.DistToOtherActors, p.NumEdgeNeighbors, cfg)
		reward /= stagingDivisor(p.Position, cfg)
		p.Reward = reward

		if sp.pathCost[v] <= 1.0 || reward <= 0 {
			p.RelativeCost = math.NaN()
			continue
		}

		relCost := sp.pathCost[v] / reward
		p.RelativeCost = relCost
		if relCost < bestRelCost {
			bestRelCost = relCost
			best = v
		}
	}
	return best, best >= 0
}
