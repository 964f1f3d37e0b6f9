package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData tracks the axis-aligned bounds of a Map Store's point set,
// updated incrementally on merge the way the teacher's
// PointCloudMetaData.Merge does.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
	inited     bool
}

// NewMetaData returns an empty MetaData ready for Merge.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64, MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64, MaxY: -math.MaxFloat64,
		MinZ: math.MaxFloat64, MaxZ: -math.MaxFloat64,
	}
}

// Merge folds a newly added position into the running bounds.
func (m *MetaData) Merge(p r3.Vector) {
	if !m.inited {
		m.MinX, m.MaxX = p.X, p.X
		m.MinY, m.MaxY = p.Y, p.Y
		m.MinZ, m.MaxZ = p.Z, p.Z
		m.inited = true
		return
	}
	m.MinX = math.Min(m.MinX, p.X)
	m.MaxX = math.Max(m.MaxX, p.X)
	m.MinY = math.Min(m.MinY, p.Y)
	m.MaxY = math.Max(m.MaxY, p.Y)
	m.MinZ = math.Min(m.MinZ, p.Z)
	m.MaxZ = math.Max(m.MaxZ, p.Z)
}
