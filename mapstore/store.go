// Package mapstore implements the Map Store (spec.md §4.1): the
// incrementally merged, density-regularized point cloud shared by the
// Feature & Label Engine, the Graph View and the Planner.
//
// Store exposes two logical locks, matching spec.md §5's ordering:
// a data lock guarding Point fields and the backing slice, and an index
// lock guarding the spatial index. Both are acquired data-before-index
// whenever a caller needs both, and neither is re-entrant — methods that
// need the lock held while calling an internal helper call the lower-case,
// already-locked variant rather than relocking (spec.md §9, "An
// implementation without re-entrancy must refactor to lock-once-at-top
// with internal unlocked helpers").
package mapstore

import (
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/ridgeline-robotics/graphplan/pointcloud"
	"github.com/ridgeline-robotics/graphplan/spatialindex"
)

// Store is the shared point map. The zero value is not usable; construct
// with New.
type Store struct {
	cfg Config

	dataMu sync.Mutex
	points []pointcloud.Point
	meta   pointcloud.MetaData

	indexMu sync.Mutex
	index   *spatialindex.Index

	dirty      *dirtySet
	viewpoints *viewpointLog
}

// New returns an empty Store configured by cfg.
func New(cfg Config) *Store {
	s := &Store{
		cfg:        cfg,
		meta:       pointcloud.NewMetaData(),
		dirty:      newDirtySet(),
		viewpoints: newViewpointLog(cfg.ViewpointHorizon),
	}
	s.index = spatialindex.New(cfg.NeighborhoodRadius, func(i int) r3.Vector {
		// Only ever called while dataMu is held (every Store method that
		// queries the index takes dataMu before indexMu); indexing directly
		// is safe because merges never shrink s.points.
		return s.points[i].Position
	})
	return s
}

// Size returns the number of points currently in the map.
func (s *Store) Size() int {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return len(s.points)
}

// MetaData returns a copy of the map's current bounds.
func (s *Store) MetaData() pointcloud.MetaData {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.meta
}

// PointAt returns a pointer to the point at index i, valid until the next
// Merge (which may append and reallocate the backing slice). Callers that intend to hold the pointer across a Merge
// must not; re-fetch via PointAt instead.
func (s *Store) PointAt(i int) *pointcloud.Point {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return &s.points[i]
}

// Position returns the position of the point at index i.
func (s *Store) Position(i int) r3.Vector {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.points[i].Position
}

// NeighborsWithin returns up to knn indices nearest to center within
// radius, ordered by increasing distance (spec.md §4.2 step 1's
// neighborhood selection, reused by the Graph View for out_edges).
func (s *Store) NeighborsWithin(center r3.Vector, radius float64, knn int) []int {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.index.KNN(center, knn, radius)
}

// WithinRadius returns every index within radius of center.
func (s *Store) WithinRadius(center r3.Vector, radius float64) []int {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.index.WithinRadius(center, radius)
}

// Nearest returns the closest point to center within maxRadius.
func (s *Store) Nearest(center r3.Vector, maxRadius float64) (int, float64, bool) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.index.Nearest(center, maxRadius)
}

// Merge folds a new scan into the map (spec.md §4.1 "Merge"). origin is
// the sensor origin the scan was captured from, used for the ray-empty
// accounting step. It returns the indices of points that were created or
// whose occupied counter was incremented (one entry per accepted incoming
// point), and marks them (and their current neighbors) dirty for the
// Feature & Label Engine. Points whose empty counter alone changed are
// neither returned nor marked dirty.
//
// Merge never fails (spec.md §4.1, "Failure semantics"): a non-finite
// incoming point is silently dropped before it reaches the store, and a
// non-finite origin drops the whole scan, since every ray-empty-accounting
// computation depends on it. The error return exists only for the
// benefit of callers chaining errors.Wrap; it is always nil.
//
// Open Question (i) of spec.md §4.1 is resolved here as a per-incoming-ray
// cone test: an existing point q is counted as an empty-space observation
// for ray (origin, p) when q lies within min_empty_cos of that ray's
// direction and is no farther from origin than p/empty_ratio — i.e. q sits
// in the cone swept by the ray, well short of where the ray terminated.
func (s *Store) Merge(points []r3.Vector, origin r3.Vector) ([]int, error) {
	if !pointcloud.Finite(origin) {
		return nil, nil
	}

	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	var touched []int
	valid := make([]r3.Vector, 0, len(points))
	for _, p := range points {
		if !pointcloud.Finite(p) {
			continue
		}
		valid = append(valid, p)
		touched = append(touched, s.mergeOneLocked(p))
	}
	s.accountEmptyLocked(valid, origin, touched)

	dirty := append([]int(nil), touched...)
	for _, i := range touched {
		dirty = append(dirty, s.neighborsLocked(s.points[i].Position, s.cfg.NeighborhoodRadius, s.cfg.NeighborhoodKNN)...)
	}
	s.dirty.add(dirty...)

	return touched, nil
}

// mergeOneLocked implements the point_min_dist regularization: reuse the
// nearest existing point within points_min_dist if one exists, otherwise
// append a new one. dataMu and indexMu must already be held.
func (s *Store) mergeOneLocked(p r3.Vector) int {
	if i, _, ok := s.index.Nearest(p, s.cfg.PointsMinDist); ok {
		s.points[i].OccupiedCount++
		return i
	}
	i := len(s.points)
	s.points = append(s.points, *pointcloud.NewPoint(p))
	s.index.Insert(i, p)
	s.meta.Merge(p)
	return i
}

func (s *Store) neighborsLocked(center r3.Vector, radius float64, knn int) []int {
	return s.index.KNN(center, knn, radius)
}

// accountEmptyLocked implements the ray-empty accounting described on
// Merge's doc comment above.
func (s *Store) accountEmptyLocked(points []r3.Vector, origin r3.Vector, touched []int) {
	for _, p := range points {
		ray := p.Sub(origin)
		rayLen := ray.Norm()
		if rayLen == 0 {
			continue
		}
		rayDir := ray.Normalize()
		maxEmptyDist := rayLen / s.cfg.EmptyRatio
		for _, c := range s.index.WithinRadius(origin, rayLen) {
			q := s.points[c].Position
			toQ := q.Sub(origin)
			dist := toQ.Norm()
			if dist == 0 || dist > maxEmptyDist {
				continue
			}
			cos := toQ.Normalize().Dot(rayDir)
			if cos >= s.cfg.MinEmptyCos {
				s.points[c].EmptyCount++
			}
		}
	}
}

// MapAccessor is the method set a Process/Plan callback receives. Its
// first four methods are declared independently (not reused from here) by
// features.MapAccessor and graphview.MapAccessor, so a closure can pass
// this value straight through to either without this package importing
// them; graphview.MapAccessor omits WithinRadius, which only the
// planner's start-resolution step and features' edge-neighbor count need.
type MapAccessor interface {
	Size() int
	PointAt(i int) *pointcloud.Point
	Position(i int) r3.Vector
	NeighborsWithin(center r3.Vector, radius float64, knn int) []int
	WithinRadius(center r3.Vector, radius float64) []int
}

// unlockedView implements MapAccessor without taking any lock. UpdateDirty
// and Plan are the only places that construct one, while each already
// holds both dataMu and indexMu — the "lock once at top, internal unlocked
// helpers" pattern spec.md §9 calls for in place of true lock re-entrancy.
type unlockedView struct{ s *Store }

func (v unlockedView) Size() int { return len(v.s.points) }

func (v unlockedView) PointAt(i int) *pointcloud.Point { return &v.s.points[i] }

func (v unlockedView) Position(i int) r3.Vector { return v.s.points[i].Position }

func (v unlockedView) NeighborsWithin(center r3.Vector, radius float64, knn int) []int {
	return v.s.index.KNN(center, knn, radius)
}

func (v unlockedView) WithinRadius(center r3.Vector, radius float64) []int {
	return v.s.index.WithinRadius(center, radius)
}

// UpdateDirty drains the pending-dirty set and hands it to process, which
// is expected to recompute features/labels for those indices (and any
// further indices it touches as a result, e.g. num_edge_neighbors on
// neighbors of a newly-EDGE point). process runs with the data and
// index locks already held, matching the ordering data -> index -> dirty;
// it must only touch the map through the MapAccessor it is given, never
// through Store's own (locking) methods, or it will deadlock.
func (s *Store) UpdateDirty(process func(m MapAccessor, dirty []int)) {
	dirty := s.dirty.drain()
	if len(dirty) == 0 {
		return
	}
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	process(unlockedView{s}, dirty)
}

// Plan runs fn with the data and index locks held for its entire duration,
// handing it the current vertex count alongside an unlocked accessor
// (spec.md §4.1, "Planners hold both [locks] for the duration of a plan";
// §5, "the planner may occupy both map locks for the duration of a tick").
// Holding both locks across the whole tick, rather than per-call as the
// locking accessor methods do, is what prevents a concurrent Merge from
// growing the map (and the index returning an index beyond a
// Dijkstra/reward pass's fixed-size slices) and what keeps a Point's
// fields from being read mid-write by a concurrent UpdateDirty or
// RefreshViewpointDistances — the same "lock once at top, internal
// unlocked helpers" pattern UpdateDirty already uses.
func (s *Store) Plan(fn func(m MapAccessor, size int)) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	fn(unlockedView{s}, len(s.points))
}

// MarkDirty re-queues indices for feature recomputation on the next
// UpdateDirty pass.
func (s *Store) MarkDirty(idxs ...int) {
	s.dirty.add(idxs...)
}

// DirtyPending reports how many indices are currently queued for
// recomputation, mostly useful for tests and diagnostics.
func (s *Store) DirtyPending() int {
	return s.dirty.size()
}

// ViewpointSnapshot returns copies of the own and other viewpoint logs.
func (s *Store) ViewpointSnapshot() (own, other []r3.Vector) {
	return s.viewpoints.snapshot()
}

// RecordOwnViewpoint appends a position to this robot's viewpoint log.
func (s *Store) RecordOwnViewpoint(p r3.Vector) {
	s.viewpoints.addOwn(p)
}

// RecordOtherViewpoint appends a position to another robot's viewpoint log.
func (s *Store) RecordOtherViewpoint(p r3.Vector) {
	s.viewpoints.addOther(p)
}

// RefreshViewpointDistances is the periodic viewpoint task of spec.md
// §4.4: for every map point it recomputes dist_to_actor/
// dist_to_other_actors from the current viewpoint logs and stamps
// actor_last_visit/other_actors_last_visit with now whenever the
// corresponding distance was refreshed, preserving the invariant that
// last_visit is NaN exactly when the paired distance is NaN.
func (s *Store) RefreshViewpointDistances(now time.Time) {
	own, other := s.viewpoints.snapshot()
	if len(own) == 0 && len(other) == 0 {
		return
	}
	nowSecs := float64(now.Unix())

	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	for i := range s.points {
		pos := s.points[i].Position
		if d, ok := nearestDist(pos, own); ok {
			s.points[i].DistToActor = d
			s.points[i].ActorLastVisit = nowSecs
		}
		if d, ok := nearestDist(pos, other); ok {
			s.points[i].DistToOtherActors = d
			s.points[i].OtherActorsLastVisit = nowSecs
		}
	}
}

func nearestDist(p r3.Vector, log []r3.Vector) (float64, bool) {
	if len(log) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, v := range log {
		if d := p.Sub(v).Norm(); d < best {
			best = d
		}
	}
	return best, true
}
