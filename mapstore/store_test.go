package mapstore

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PointsMinDist = 0.2
	cfg.NeighborhoodRadius = 0.5
	cfg.NeighborhoodKNN = 8
	return cfg
}

func TestMergePointSpacingInvariant(t *testing.T) {
	s := New(testConfig())
	origin := r3.Vector{X: -5, Y: 0, Z: 0}

	var pts []r3.Vector
	for x := 0.0; x < 1.0; x += 0.05 {
		pts = append(pts, r3.Vector{X: x, Y: 0, Z: 0})
	}
	_, err := s.Merge(pts, origin)
	require.NoError(t, err)

	n := s.Size()
	require.Greater(t, n, 0)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := s.Position(i).Sub(s.Position(j)).Norm()
			assert.GreaterOrEqual(t, d, s.cfg.PointsMinDist-1e-9)
		}
	}
}

func TestMergeDropsNonFinitePoints(t *testing.T) {
	s := New(testConfig())
	_, err := s.Merge([]r3.Vector{{X: 1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}, r3.Vector{})
	require.NoError(t, err)

	nan := 0.0
	nan = nan / nan

	// A non-finite point is silently dropped, not an error (spec.md §4.1,
	// "Merge never fails"), and it never reaches the store.
	touched, err := s.Merge([]r3.Vector{{X: nan, Y: 0, Z: 0}}, r3.Vector{})
	require.NoError(t, err)
	assert.Empty(t, touched)
	assert.Equal(t, 1, s.Size())

	// A non-finite origin drops the whole scan, since ray-empty accounting
	// depends on it.
	sizeBefore := s.Size()
	touched, err = s.Merge([]r3.Vector{{X: 2, Y: 0, Z: 0}}, r3.Vector{X: nan})
	require.NoError(t, err)
	assert.Nil(t, touched)
	assert.Equal(t, sizeBefore, s.Size())
}

func TestMergeIsIdempotentOnRepeat(t *testing.T) {
	s := New(testConfig())
	pts := []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}
	_, err := s.Merge(pts, r3.Vector{X: -1, Y: 0, Z: 0})
	require.NoError(t, err)
	sizeAfterFirst := s.Size()

	_, err = s.Merge(pts, r3.Vector{X: -1, Y: 0, Z: 0})
	require.NoError(t, err)
	assert.Equal(t, sizeAfterFirst, s.Size(), "re-merging the same points should not grow the map")
}

func TestMergeMarksNeighborsDirty(t *testing.T) {
	s := New(testConfig())
	pts := []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 0.3, Y: 0, Z: 0}}
	_, err := s.Merge(pts, r3.Vector{X: -1, Y: 0, Z: 0})
	require.NoError(t, err)
	assert.Greater(t, s.DirtyPending(), 0)
}

func TestUpdateDirtyDrainsAndInvokesOnce(t *testing.T) {
	s := New(testConfig())
	_, err := s.Merge([]r3.Vector{{X: 0, Y: 0, Z: 0}}, r3.Vector{X: -1, Y: 0, Z: 0})
	require.NoError(t, err)

	calls := 0
	s.UpdateDirty(func(m MapAccessor, dirty []int) {
		calls++
		assert.NotEmpty(t, dirty)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.DirtyPending())

	// Draining an empty set does not invoke process.
	s.UpdateDirty(func(m MapAccessor, dirty []int) {
		calls++
	})
	assert.Equal(t, 1, calls)
}

func TestViewpointDistanceAndLastVisitPairing(t *testing.T) {
	s := New(testConfig())
	_, err := s.Merge([]r3.Vector{{X: 0, Y: 0, Z: 0}}, r3.Vector{X: -1, Y: 0, Z: 0})
	require.NoError(t, err)

	p := s.PointAt(0)
	assert.True(t, isNaN(p.DistToActor))
	assert.True(t, isNaN(p.ActorLastVisit))

	s.RecordOwnViewpoint(r3.Vector{X: 0.1, Y: 0, Z: 0})
	now := time.Unix(1000, 0)
	s.RefreshViewpointDistances(now)

	p = s.PointAt(0)
	assert.False(t, isNaN(p.DistToActor))
	assert.False(t, isNaN(p.ActorLastVisit))
	assert.Equal(t, float64(1000), p.ActorLastVisit)
	assert.True(t, isNaN(p.DistToOtherActors))
	assert.True(t, isNaN(p.OtherActorsLastVisit))
}

func isNaN(f float64) bool {
	return f != f
}

func TestPlanSeesSizeConsistentWithAccessor(t *testing.T) {
	s := New(testConfig())
	pts := []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 0.3, Y: 0, Z: 0}, {X: 0.6, Y: 0, Z: 0}}
	_, err := s.Merge(pts, r3.Vector{X: -1, Y: 0, Z: 0})
	require.NoError(t, err)

	var sawSize int
	s.Plan(func(m MapAccessor, size int) {
		sawSize = size
		assert.Equal(t, size, m.Size())
		for i := 0; i < size; i++ {
			_ = m.PointAt(i).Position
		}
	})
	assert.Equal(t, s.Size(), sawSize)
}
