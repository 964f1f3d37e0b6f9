package planner

import (
	"context"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-robotics/graphplan/mapstore"
	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

type fakeTransforms struct{ pose Pose }

func (f fakeTransforms) Lookup(ctx context.Context, target, source string, at time.Time) (Pose, error) {
	return f.pose, nil
}

type fakeRobots struct{ others []r3.Vector }

func (f fakeRobots) OtherPositions() []r3.Vector { return f.others }

type fakePublisher struct{ lastPath []Pose }

func (f *fakePublisher) HasSubscribers(topic string) bool             { return false }
func (f *fakePublisher) PublishCloud(topic string, c pointcloud.Cloud) {}
func (f *fakePublisher) PublishPath(path []Pose)                       { f.lastPath = path }

func newTestPlanner(t *testing.T) *Planner {
	t.Helper()
	cfg := DefaultConfig()
	cfg.KNeighbors = 4
	cfg.MapStore.PointsMinDist = 0.1
	cfg.MapStore.NeighborhoodRadius = 0.45
	cfg.MapStore.NeighborhoodKNN = 16
	cfg.Features.NeighborhoodRadius = 0.45
	cfg.Features.NormalRadius = 0.45
	cfg.Features.NeighborhoodKNN = 16
	cfg.Features.MinNormalPts = 5
	cfg.Graph.NeighborhoodRadius = 0.45
	cfg.Graph.NeighborhoodKNN = 16

	p := New(cfg, nil, fakeTransforms{pose: Pose{Position: r3.Vector{}}}, fakeRobots{}, &fakePublisher{})
	p.MarkReady()
	return p
}

func mergeGrid(t *testing.T, p *Planner, spacing float64, n int) {
	t.Helper()
	var pts []r3.Vector
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pts = append(pts, r3.Vector{X: float64(i) * spacing, Y: float64(j) * spacing, Z: 0})
		}
	}
	_, err := p.mapStore.Merge(pts, r3.Vector{X: -5, Y: 0, Z: 5})
	require.NoError(t, err)
	p.mapStore.UpdateDirty(func(m mapstore.MapAccessor, dirty []int) { p.features.Process(m, dirty) })
}

func TestPlanNotReady(t *testing.T) {
	cfg := DefaultConfig()
	p := New(cfg, nil, fakeTransforms{}, fakeRobots{}, nil)
	_, err := p.Plan(context.Background(), PlanRequest{Goal: NaNPose})
	require.ErrorIs(t, err, ErrNotReady)
}

func TestPlanEmptyMapFails(t *testing.T) {
	p := newTestPlanner(t)
	_, err := p.Plan(context.Background(), PlanRequest{
		ID:    uuid.New(),
		Start: Pose{Position: r3.Vector{}},
		Goal:  NaNPose,
	})
	require.ErrorIs(t, err, ErrInsufficientMap)
}

func TestPlanFlatGroundGoalReachable(t *testing.T) {
	p := newTestPlanner(t)
	mergeGrid(t, p, 0.25, 10)

	req := PlanRequest{
		ID:        uuid.New(),
		Start:     Pose{Position: r3.Vector{X: 0, Y: 0, Z: 0}},
		Goal:      Pose{Position: r3.Vector{X: 2, Y: 0, Z: 0}},
		Tolerance: 0.3,
	}
	path, err := p.Plan(context.Background(), req)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(path), 9)

	last := path[len(path)-1]
	assert.LessOrEqual(t, last.Position.Sub(r3.Vector{X: 2, Y: 0, Z: 0}).Norm(), 0.3)

	for i := 1; i < len(path); i++ {
		assert.GreaterOrEqual(t, path[i].Position.X, path[i-1].Position.X-1e-9)
	}
}

func TestPlanDeterministicAcrossRepeatedCalls(t *testing.T) {
	p := newTestPlanner(t)
	mergeGrid(t, p, 0.25, 10)
	req := PlanRequest{
		ID:        uuid.New(),
		Start:     Pose{Position: r3.Vector{}},
		Goal:      Pose{Position: r3.Vector{X: 2}},
		Tolerance: 0.3,
	}

	path1, err := p.Plan(context.Background(), req)
	require.NoError(t, err)
	path2, err := p.Plan(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(path1), len(path2))
	for i := range path1 {
		assert.InDelta(t, path1[i].Position.X, path2[i].Position.X, 1e-9)
		assert.InDelta(t, path1[i].Position.Y, path2[i].Position.Y, 1e-9)
	}
}

func TestPlanExplorationAvoidsInterior(t *testing.T) {
	p := newTestPlanner(t)
	mergeGrid(t, p, 0.25, 10)

	req := PlanRequest{
		ID:        uuid.New(),
		Start:     Pose{Position: r3.Vector{X: 0, Y: 0, Z: 0}},
		Goal:      NaNPose,
		Tolerance: 0.3,
	}
	path, err := p.Plan(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	goal := path[len(path)-1].Position
	assert.True(t, goal.X < 0.3 || goal.X > 2.0 || goal.Y < 0.3 || goal.Y > 2.0,
		"expected exploration to pick a rim point, got %v", goal)
}

func TestIngestSelfFilter(t *testing.T) {
	for _, filter := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.MinIngestPoints = 5
		cfg.FilterRobots = filter
		cfg.RobotFilterRadius = 0.5
		cfg.RangeMin = 0
		cfg.RangeMax = 25
		cfg.MapStore.PointsMinDist = 0.05

		other := r3.Vector{X: 5, Y: 0, Z: 0}
		p := New(cfg, nil, fakeTransforms{pose: Pose{Position: r3.Vector{}}}, fakeRobots{others: []r3.Vector{other}}, &fakePublisher{})
		p.MarkReady()

		var pts []r3.Vector
		for i := 0; i < 5; i++ {
			pts = append(pts, other.Add(r3.Vector{X: float64(i) * 0.05, Y: 0, Z: 0}))
		}
		for i := 0; i < 10; i++ {
			pts = append(pts, r3.Vector{X: 2 + float64(i)*0.1, Y: 1, Z: 0})
		}
		cloud := pointcloud.EncodeCloud("sensor", time.Now(), pts, nil)

		err := p.Ingest(context.Background(), &cloud)
		require.NoError(t, err)

		nearOther := p.mapStore.WithinRadius(other, 0.3)
		if filter {
			assert.Empty(t, nearOther, "filter_robots=true should drop the cluster near another robot")
		} else {
			assert.NotEmpty(t, nearOther, "filter_robots=false should keep the cluster near another robot")
		}
	}
}

func TestIngestRejectsStaleCloud(t *testing.T) {
	p := newTestPlanner(t)
	pts := []r3.Vector{{X: 2, Y: 1, Z: 0}}
	cloud := pointcloud.EncodeCloud("sensor", time.Now().Add(-time.Hour), pts, nil)
	err := p.Ingest(context.Background(), &cloud)
	require.ErrorIs(t, err, ErrStaleInput)
}
