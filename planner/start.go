package planner

import (
	"math/rand"

	"github.com/golang/geo/r3"

	"github.com/ridgeline-robotics/graphplan/mapstore"
	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

// resolveStart implements spec.md §4.4 step 3: the closest TRAVERSABLE
// point within tolerance of start, falling back to neighborhood_radius
// when tolerance is zero (spec.md §8's boundary case). When random_start
// is set, a candidate is chosen uniformly among every TRAVERSABLE point
// within tolerance instead of always the nearest (the original
// implementation's behavior, underspecified by spec.md §6 beyond the key
// name).
func resolveStart(m mapstore.MapAccessor, start r3.Vector, tolerance float64, cfg Config, rng *rand.Rand) (int, bool) {
	if tolerance <= 0 {
		tolerance = cfg.Graph.NeighborhoodRadius
	}

	var traversable []int
	for _, i := range m.WithinRadius(start, tolerance) {
		if m.PointAt(i).Flags.Has(pointcloud.Traversable) {
			traversable = append(traversable, i)
		}
	}
	if len(traversable) == 0 {
		return 0, false
	}
	if cfg.RandomStart {
		return traversable[rng.Intn(len(traversable))], true
	}

	best := traversable[0]
	bestDist := m.Position(best).Sub(start).Norm()
	for _, i := range traversable[1:] {
		if d := m.Position(i).Sub(start).Norm(); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, true
}
