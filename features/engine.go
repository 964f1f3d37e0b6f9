// Package features implements the Feature & Label Engine (spec.md §4.2):
// per-point normal estimation, ground-height statistics, clearance-box
// obstacle counting and the traversability labeling rules derived from
// them.
package features

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"github.com/ridgeline-robotics/graphplan/logging"
	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

// MapAccessor is the slice of Map Store behavior the engine needs. It is
// defined here, not in mapstore, so this package has no dependency on
// mapstore; *mapstore.Store satisfies it structurally.
type MapAccessor interface {
	Size() int
	PointAt(i int) *pointcloud.Point
	Position(i int) r3.Vector
	NeighborsWithin(center r3.Vector, radius float64, knn int) []int
	WithinRadius(center r3.Vector, radius float64) []int
}

// Engine computes features and labels for dirty map indices.
type Engine struct {
	cfg    Config
	logger logging.Logger
}

// New returns an Engine with the given config snapshot.
func New(cfg Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewTest()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// SetConfig replaces the engine's threshold snapshot. Callers are expected
// to serialize this with Process, e.g. by calling it from within a
// mapstore.Store.UpdateDirty closure (the periodic threshold hot-reload of
// the original implementation, run at a low fixed frequency).
func (e *Engine) SetConfig(cfg Config) {
	e.cfg = cfg
}

// Process recomputes features and labels for every index in dirty,
// against m, and propagates num_edge_neighbors changes to their neighbors
// (spec.md §4.2 step 7). It is meant to be called from within a
// mapstore.Store.UpdateDirty closure so the data and index locks are
// already held.
func (e *Engine) Process(m MapAccessor, dirty []int) {
	touched := make(map[int]struct{}, len(dirty)*2)
	for _, v := range dirty {
		e.labelOne(m, v)
		touched[v] = struct{}{}
		for _, u := range m.NeighborsWithin(m.Position(v), e.cfg.NeighborhoodRadius, e.cfg.NeighborhoodKNN) {
			touched[u] = struct{}{}
		}
	}
	for u := range touched {
		e.updateEdgeNeighborCount(m, u)
	}
}

func (e *Engine) labelOne(m MapAccessor, v int) {
	pos := m.Position(v)
	radius := e.cfg.queryRadius()
	neighborIdx := m.NeighborsWithin(pos, radius, e.cfg.NeighborhoodKNN)

	var offsets []r3.Vector
	for _, u := range neighborIdx {
		if u == v {
			continue
		}
		offsets = append(offsets, m.Position(u).Sub(pos))
	}

	p := m.PointAt(v)
	if len(offsets) < e.cfg.MinNormalPts {
		p.Flags = pointcloud.Unknown
		p.NumNormalPts = len(offsets)
		return
	}

	normal, ok := estimateNormal(offsets)
	if !ok {
		p.Flags = pointcloud.Unknown
		p.NumNormalPts = len(offsets)
		return
	}

	groundDiffs := make([]float64, len(offsets))
	absDiffs := make([]float64, len(offsets))
	numObstaclePts := 0
	var centroid r3.Vector
	for i, o := range offsets {
		d := o.Dot(normal)
		groundDiffs[i] = d
		absDiffs[i] = math.Abs(d)
		centroid = centroid.Add(o)

		horizontal := o.Sub(normal.Mul(d)).Norm()
		if d >= e.cfg.ClearanceLow && d <= e.cfg.ClearanceHigh && horizontal <= e.cfg.ClearanceRadius {
			numObstaclePts++
		}
	}
	centroid = centroid.Mul(1 / float64(len(offsets)))

	groundStd, err := stats.StandardDeviation(stats.Float64Data(groundDiffs))
	if err != nil {
		groundStd = 0
	}
	absMean, err := stats.Mean(stats.Float64Data(absDiffs))
	if err != nil {
		absMean = 0
	}

	p.Normal = normal
	p.NumNormalPts = len(offsets)
	p.GroundDiffMin = floats.Min(groundDiffs)
	p.GroundDiffMax = floats.Max(groundDiffs)
	p.GroundDiffStd = groundStd
	p.GroundAbsDiffMean = absMean
	p.NumObstaclePts = numObstaclePts

	tilt := preliminaryObstacle(normal, e.cfg.MaxPitch, e.cfg.MaxRoll)

	switch {
	case tilt || numObstaclePts >= e.cfg.MinPointsObstacle ||
		groundStd > e.cfg.MaxGroundDiffStd || absMean > e.cfg.MaxMeanAbsGroundDiff:
		p.Flags = pointcloud.Obstacle
	case centroidOffsetHorizontal(centroid, normal) >= e.cfg.EdgeMinCentroidOffset:
		p.Flags = pointcloud.Edge
	default:
		if e.nearestObstacleDist(m, neighborIdx, pos) <= e.cfg.MinDistToObstacle {
			p.Flags = pointcloud.Obstacle
		} else {
			p.Flags = pointcloud.Traversable
		}
	}
}

// preliminaryObstacle implements spec.md §4.2 step 5.
func preliminaryObstacle(normal r3.Vector, maxPitch, maxRoll float64) bool {
	pitch, roll := pointcloud.PitchRoll(normal)
	return math.Abs(pitch) > maxPitch || math.Abs(roll) > maxRoll
}

func centroidOffsetHorizontal(centroid, normal r3.Vector) float64 {
	along := centroid.Dot(normal)
	return centroid.Sub(normal.Mul(along)).Norm()
}

// nearestObstacleDist scans the already-stored flags of v's neighbors (the
// prior pass's labels, since later points in this pass may not yet be
// relabeled) for the closest one flagged OBSTACLE.
func (e *Engine) nearestObstacleDist(m MapAccessor, neighborIdx []int, pos r3.Vector) float64 {
	best := math.Inf(1)
	for _, u := range neighborIdx {
		if m.PointAt(u).Flags.Has(pointcloud.Obstacle) {
			if d := m.Position(u).Sub(pos).Norm(); d < best {
				best = d
			}
		}
	}
	return best
}

// updateEdgeNeighborCount recomputes num_edge_neighbors over every
// radius-neighbor of v, not just the up-to-knn subset Process uses to pick
// which neighbors to revisit: spec.md §3/§8 define num_edge_neighbors[v]
// as the count over v's full radius neighborhood, and the two diverge
// whenever a neighborhood is denser than neighborhood_knn.
func (e *Engine) updateEdgeNeighborCount(m MapAccessor, v int) {
	pos := m.Position(v)
	neighborIdx := m.WithinRadius(pos, e.cfg.NeighborhoodRadius)
	count := 0
	for _, u := range neighborIdx {
		if u == v {
			continue
		}
		if m.PointAt(u).Flags.Has(pointcloud.Edge) {
			count++
		}
	}
	m.PointAt(v).NumEdgeNeighbors = count
}
