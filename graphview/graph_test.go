package graphview

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-robotics/graphplan/features"
	"github.com/ridgeline-robotics/graphplan/mapstore"
)

func buildLabeledGrid(t *testing.T) *mapstore.Store {
	t.Helper()
	mcfg := mapstore.DefaultConfig()
	mcfg.PointsMinDist = 0.1
	mcfg.NeighborhoodRadius = 0.45
	mcfg.NeighborhoodKNN = 16
	s := mapstore.New(mcfg)

	var pts []r3.Vector
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			pts = append(pts, r3.Vector{X: float64(i) * 0.25, Y: float64(j) * 0.25, Z: 0})
		}
	}
	_, err := s.Merge(pts, r3.Vector{X: -5, Y: 0, Z: 5})
	require.NoError(t, err)

	fcfg := features.DefaultConfig()
	fcfg.NeighborhoodRadius = 0.45
	fcfg.NeighborhoodKNN = 16
	fcfg.MinNormalPts = 5
	eng := features.New(fcfg, nil)
	s.UpdateDirty(func(m mapstore.MapAccessor, dirty []int) { eng.Process(m, dirty) })
	return s
}

func TestOutNeighborsOnlyPassable(t *testing.T) {
	s := buildLabeledGrid(t)
	g := New(DefaultConfig(), s)

	found := false
	for v := 0; v < g.Size(); v++ {
		for _, u := range g.OutNeighbors(v) {
			found = true
			assert.True(t, s.PointAt(u).Flags.Passable())
		}
	}
	assert.True(t, found, "expected at least one passable edge on a flat grid")
}

func TestEdgeCostNonNegativeAndFinite(t *testing.T) {
	s := buildLabeledGrid(t)
	g := New(DefaultConfig(), s)

	for v := 0; v < g.Size(); v++ {
		for _, u := range g.OutNeighbors(v) {
			c := g.EdgeCost(v, u, r3.Vector{})
			assert.False(t, math.IsNaN(c))
			assert.GreaterOrEqual(t, c, 0.0)
			assert.Less(t, c, math.Inf(1))
		}
	}
}

func TestEdgeCostInfiniteForNonPassable(t *testing.T) {
	s := buildLabeledGrid(t)
	g := New(DefaultConfig(), s)
	// Clear an arbitrary vertex's flags so it is no longer passable and
	// confirm cost to/from it is now infinite.
	s.PointAt(0).Flags = 0
	c := g.EdgeCost(0, 1, r3.Vector{})
	assert.True(t, math.IsInf(c, 1))
}
