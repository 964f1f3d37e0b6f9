// Package planner orchestrates the Map Store, Feature & Label Engine and
// Graph View into the ingest/plan/viewpoint ticks of spec.md §4.4.
package planner

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"github.com/ridgeline-robotics/graphplan/concurrency"
	"github.com/ridgeline-robotics/graphplan/features"
	"github.com/ridgeline-robotics/graphplan/graphview"
	"github.com/ridgeline-robotics/graphplan/logging"
	"github.com/ridgeline-robotics/graphplan/mapstore"
)

// Planner is the top-level orchestrator. Construct with New, call Start to
// launch its recurring activities, and Close at shutdown.
type Planner struct {
	cfg    Config
	logger logging.Logger

	mapStore *mapstore.Store
	features *features.Engine

	transforms TransformSource
	robots     RobotTracker
	publisher  Publisher

	initMu      sync.Mutex
	initialized bool

	lastRequest lastRequestBox
	rng         *rand.Rand

	workers concurrency.Workers
}

// New constructs a Planner. It is not ready to serve Plan/Ingest calls
// until WaitForPeers or MarkReady marks it initialized, per spec.md §5's
// "every public entry point checks [the initialization flag] and
// short-circuits during startup".
func New(cfg Config, logger logging.Logger, transforms TransformSource, robots RobotTracker, publisher Publisher) *Planner {
	if logger == nil {
		logger = logging.NewTest()
	}
	m := mapstore.New(cfg.MapStore)
	return &Planner{
		cfg:        cfg,
		logger:     logger,
		mapStore:   m,
		features:   features.New(cfg.Features, logger.Named("features")),
		transforms: transforms,
		robots:     robots,
		publisher:  publisher,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *Planner) ready() bool {
	p.initMu.Lock()
	defer p.initMu.Unlock()
	return p.initialized
}

// MarkReady marks the planner initialized without gating on peer
// discovery; callers that don't need WaitForPeers's startup gate call this
// directly.
func (p *Planner) MarkReady() {
	p.initMu.Lock()
	p.initialized = true
	p.initMu.Unlock()
}

// WaitForPeers blocks until minPeers other robots have been observed or
// timeout elapses, then marks the planner initialized. This is the
// original implementation's startup robot-discovery gate (SPEC_FULL.md
// §12 item 1), absent from the distilled spec's
// operation list but present in the source this core was built from.
func (p *Planner) WaitForPeers(ctx context.Context, minPeers int, pollInterval, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for len(p.robots.OtherPositions()) < minPeers {
		if time.Now().After(deadline) {
			p.logger.Warnw("starting without full peer set", "have", len(p.robots.OtherPositions()), "want", minPeers)
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	p.MarkReady()
	return nil
}

// UpdateFeatureConfig hot-reloads the Feature & Label Engine's threshold
// snapshot (SPEC_FULL.md §12 item 3's periodic-reload behavior: the
// original implementation polls its parameter server for this at a low
// fixed frequency). Callers drive it explicitly, e.g. from a config-watch
// goroutine. The swap runs under the map locks, so it never lands in the
// middle of a labeling pass, which runs inside mapStore.UpdateDirty.
func (p *Planner) UpdateFeatureConfig(cfg features.Config) {
	p.mapStore.Plan(func(mapstore.MapAccessor, int) { p.features.SetConfig(cfg) })
}

func (p *Planner) otherRobotPositions() []r3.Vector {
	if p.robots == nil {
		return nil
	}
	return p.robots.OtherPositions()
}

// Submit records req as the planner's last request; the next planning
// tick uses it (spec.md §4.4, "Failure semantics"). Plan itself takes its
// request as an argument and does not read the recorded one.
func (p *Planner) Submit(req PlanRequest) {
	p.lastRequest.set(&req)
}

// Start launches the planning and viewpoint recurring activities (spec.md
// §5). Ingest is driven externally by calling Ingest per incoming cloud,
// matching spec.md §5's "one [thread] per input cloud subscription".
func (p *Planner) Start() {
	p.workers = concurrency.New(p.planningLoop, p.viewpointLoop)
}

// Close stops every recurring activity and flushes the logger.
func (p *Planner) Close() error {
	if p.workers != nil {
		p.workers.Stop()
	}
	return multierr.Combine(p.logger.Sync())
}

func (p *Planner) planningLoop(ctx context.Context) {
	freq := p.cfg.PlanningFreq
	if freq <= 0 {
		freq = 0.5
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / freq))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			req := p.lastRequest.get()
			if req == nil {
				continue
			}
			path, err := p.Plan(ctx, *req)
			if err != nil {
				p.logger.Debugw("planning tick failed", "err", err)
				continue
			}
			p.publishPlanDiagnostics()
			if p.publisher != nil {
				p.publisher.PublishPath(path)
			}
		}
	}
}

func (p *Planner) viewpointLoop(ctx context.Context) {
	freq := p.cfg.ViewpointsUpdateFreq
	if freq <= 0 {
		freq = 1.0
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / freq))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.ready() {
				continue
			}
			xf, err := lookupWithTimeout(ctx, p.transforms, p.cfg.MapFrame, p.cfg.RobotFrame, time.Now(), p.cfg.TransformTimeout)
			if err == nil {
				p.mapStore.RecordOwnViewpoint(xf.Position)
			}
			for _, o := range p.otherRobotPositions() {
				p.mapStore.RecordOtherViewpoint(o)
			}
			p.mapStore.RefreshViewpointDistances(time.Now())
		}
	}
}

// Plan implements spec.md §4.4's planning tick steps 1-8. The whole tick
// runs inside a single mapStore.Plan call so it holds both map locks for
// its duration (spec.md §4.1/§5), rather than re-acquiring them per
// accessor call: that would let a concurrent Ingest merge grow the map (or
// UpdateDirty/RefreshViewpointDistances rewrite a Point's fields) between
// steps, which can panic on an out-of-range index and can race a Point's
// field reads against a concurrent writer.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) ([]Pose, error) {
	if !p.ready() {
		return nil, ErrNotReady
	}

	startPose := req.Start
	if !startPose.finite() {
		xf, err := lookupWithTimeout(ctx, p.transforms, p.cfg.MapFrame, p.cfg.RobotFrame, time.Now(), p.cfg.TransformTimeout)
		if err != nil {
			return nil, err
		}
		startPose = xf
	}

	var path []Pose
	var planErr error
	p.mapStore.Plan(func(m mapstore.MapAccessor, size int) {
		path, planErr = p.planLocked(m, size, req, startPose)
	})
	return path, planErr
}

// planLocked implements spec.md §4.4 steps 1-8 against a snapshot taken
// under mapStore's locks: size is the vertex count fixed for this whole
// tick, and m is the unlocked accessor handed to it by mapStore.Plan.
func (p *Planner) planLocked(m mapstore.MapAccessor, size int, req PlanRequest, startPose Pose) ([]Pose, error) {
	if size < p.cfg.KNeighbors {
		return nil, ErrInsufficientMap
	}

	g := graphview.New(p.cfg.Graph, m)

	vStart, ok := resolveStart(m, startPose.Position, req.Tolerance, p.cfg, p.rng)
	if !ok {
		return nil, ErrNoTraversableStart
	}

	sp := dijkstra(g, size, vStart)

	var vGoal int
	if req.Goal.finite() {
		for v := 0; v < size; v++ {
			m.PointAt(v).PathCost = sp.pathCost[v]
		}
		vGoal, ok = selectGoalDirected(size, sp, g, req.Goal.Position)
	} else {
		vGoal, ok = selectExplorationGoal(m, size, sp, p.cfg)
	}
	if !ok {
		return nil, ErrNoFeasibleGoal
	}

	return tracePath(g, sp, vStart, vGoal, startPose), nil
}
