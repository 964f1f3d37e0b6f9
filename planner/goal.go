package planner

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ridgeline-robotics/graphplan/graphview"
)

// selectGoalDirected implements spec.md §4.4 step 5: among vertices
// reachable from v_start, the one minimizing Euclidean distance to goal.
// size is the same vertex count the caller snapshotted for dijkstra, kept
// in lockstep with sp's fixed-length slices rather than resampled from g.
func selectGoalDirected(size int, sp *sssp, g *graphview.Graph, goal r3.Vector) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for v := 0; v < size; v++ {
		if math.IsInf(sp.pathCost[v], 1) {
			continue
		}
		if d := g.Position(v).Sub(goal).Norm(); d < bestDist {
			bestDist = d
			best = v
		}
	}
	return best, best >= 0
}
