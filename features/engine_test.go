package features

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-robotics/graphplan/mapstore"
	"github.com/ridgeline-robotics/graphplan/pointcloud"
)

func buildFlatGrid(t *testing.T, spacing float64, n int) *mapstore.Store {
	t.Helper()
	cfg := mapstore.DefaultConfig()
	cfg.PointsMinDist = spacing / 2
	cfg.NeighborhoodRadius = spacing * 1.8
	cfg.NeighborhoodKNN = 16
	s := mapstore.New(cfg)

	var pts []r3.Vector
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pts = append(pts, r3.Vector{X: float64(i) * spacing, Y: float64(j) * spacing, Z: 0})
		}
	}
	_, err := s.Merge(pts, r3.Vector{X: -5, Y: 0, Z: 5})
	require.NoError(t, err)
	return s
}

func TestFlatGridBecomesTraversable(t *testing.T) {
	s := buildFlatGrid(t, 0.25, 10)
	cfg := DefaultConfig()
	cfg.NeighborhoodRadius = 0.45
	cfg.NeighborhoodKNN = 16
	cfg.MinNormalPts = 5
	e := New(cfg, nil)

	s.UpdateDirty(func(m mapstore.MapAccessor, dirty []int) { e.Process(m, dirty) })

	interior := 0
	traversable := 0
	for i := 0; i < s.Size(); i++ {
		p := s.PointAt(i)
		pos := p.Position
		if pos.X > 0.5 && pos.X < 2.0 && pos.Y > 0.5 && pos.Y < 2.0 {
			interior++
			if p.Flags.Has(pointcloud.Traversable) {
				traversable++
			}
		}
	}
	require.Greater(t, interior, 0)
	assert.Equal(t, interior, traversable)
}

func TestBoundaryMinNormalPts(t *testing.T) {
	mcfg := mapstore.DefaultConfig()
	mcfg.PointsMinDist = 0.05
	s := mapstore.New(mcfg)
	origin := r3.Vector{X: -5, Y: 0, Z: 5}

	cfg := DefaultConfig()
	cfg.MinNormalPts = 4
	cfg.NeighborhoodRadius = 1.0
	cfg.NeighborhoodKNN = 16
	e := New(cfg, nil)

	// Exactly MinNormalPts neighbors (plus the query point itself).
	pts := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 0.1, Y: 0, Z: 0},
		{X: 0, Y: 0.1, Z: 0},
		{X: -0.1, Y: 0, Z: 0},
		{X: 0, Y: -0.1, Z: 0},
	}
	_, err := s.Merge(pts, origin)
	require.NoError(t, err)
	s.UpdateDirty(func(m mapstore.MapAccessor, dirty []int) { e.Process(m, dirty) })

	assert.False(t, s.PointAt(0).Flags.Has(pointcloud.Unknown))
}

func TestUpdateDirtyIsFixedPoint(t *testing.T) {
	s := buildFlatGrid(t, 0.25, 6)
	cfg := DefaultConfig()
	cfg.NeighborhoodRadius = 0.45
	cfg.NeighborhoodKNN = 16
	cfg.MinNormalPts = 5
	e := New(cfg, nil)

	s.UpdateDirty(func(m mapstore.MapAccessor, dirty []int) { e.Process(m, dirty) })
	snapshot := make([]byte, s.Size())
	for i := 0; i < s.Size(); i++ {
		snapshot[i] = byte(s.PointAt(i).Flags)
	}

	s.MarkDirty(rangeInts(s.Size())...)
	s.UpdateDirty(func(m mapstore.MapAccessor, dirty []int) { e.Process(m, dirty) })
	for i := 0; i < s.Size(); i++ {
		assert.Equal(t, snapshot[i], byte(s.PointAt(i).Flags), "flags changed on a repeat pass with no merge")
	}
}

func rangeInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
