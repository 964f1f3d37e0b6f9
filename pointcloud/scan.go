package pointcloud

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Datatype is the wire datatype of a Field, mirroring the small set of
// types a PointField message carries. Only Float32 is accepted by Validate
// (spec.md §6, "Invalid if ... datatype ≠ float32").
type Datatype uint8

// Float32 is the only Datatype Validate accepts.
const Float32 Datatype = 7

// Field describes one named channel within a Cloud's per-point byte
// layout, analogous to a PointField.
type Field struct {
	Name     string
	Offset   uint32
	Datatype Datatype
}

// Cloud is a wire-format point cloud: a row-major array of bytes laid out
// point_step bytes per point, width points per row, height rows
// (spec.md §6, "Inputs").
type Cloud struct {
	FrameID   string
	Stamp     time.Time
	Width     uint32
	Height    uint32
	PointStep uint32
	RowStep   uint32
	Fields    []Field
	Data      []byte
}

// NumPoints returns the number of points the header claims the cloud
// holds.
func (c *Cloud) NumPoints() int {
	return int(c.Width) * int(c.Height)
}

func (c *Cloud) field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the structural preconditions of spec.md §6: row_step
// must equal point_step*width, positions must be float32, and the cloud
// must not be older than maxAge as of now.
func (c *Cloud) Validate(now time.Time, maxAge time.Duration) error {
	if c.RowStep != c.PointStep*c.Width {
		return errors.Errorf("row_step %d does not match point_step %d * width %d", c.RowStep, c.PointStep, c.Width)
	}
	for _, name := range []string{"x", "y", "z"} {
		f, ok := c.field(name)
		if !ok {
			return errors.Errorf("cloud has no %s field", name)
		}
		if f.Datatype != Float32 {
			return errors.Errorf("%s field has unsupported datatype %d", name, f.Datatype)
		}
	}
	age := now.Sub(c.Stamp)
	if age > maxAge {
		return errors.Errorf("cloud is %s old, older than max_cloud_age %s", age, maxAge)
	}
	return nil
}

// Positions decodes every point's x, y, z field into an r3.Vector, in
// point order. Positions with non-finite coordinates are kept in the
// output (callers that need to reject them should call Finite on each
// entry); decoding itself only requires the fields to be present, and it
// reads each one as float32 without checking its declared datatype
// (Validate does that check).
func (c *Cloud) Positions() ([]r3.Vector, error) {
	xf, ok := c.field("x")
	if !ok {
		return nil, errors.New("cloud has no x field")
	}
	yf, ok := c.field("y")
	if !ok {
		return nil, errors.New("cloud has no y field")
	}
	zf, ok := c.field("z")
	if !ok {
		return nil, errors.New("cloud has no z field")
	}

	n := c.NumPoints()
	out := make([]r3.Vector, n)
	for i := 0; i < n; i++ {
		base := uint32(i) * c.PointStep
		out[i] = r3.Vector{
			X: readFloat32(c.Data, base+xf.Offset),
			Y: readFloat32(c.Data, base+yf.Offset),
			Z: readFloat32(c.Data, base+zf.Offset),
		}
	}
	return out, nil
}

// Normals decodes every point's normal_x, normal_y, normal_z field into
// an r3.Vector. It returns ok=false if the cloud carries no normal
// fields at all, the optional-normal variant of §6's input format.
func (c *Cloud) Normals() ([]r3.Vector, bool, error) {
	xf, ok := c.field("normal_x")
	if !ok {
		return nil, false, nil
	}
	yf, ok := c.field("normal_y")
	if !ok {
		return nil, false, nil
	}
	zf, ok := c.field("normal_z")
	if !ok {
		return nil, false, nil
	}

	n := c.NumPoints()
	out := make([]r3.Vector, n)
	for i := 0; i < n; i++ {
		base := uint32(i) * c.PointStep
		out[i] = r3.Vector{
			X: readFloat32(c.Data, base+xf.Offset),
			Y: readFloat32(c.Data, base+yf.Offset),
			Z: readFloat32(c.Data, base+zf.Offset),
		}
	}
	return out, true, nil
}

func readFloat32(data []byte, offset uint32) float64 {
	bits := binary.LittleEndian.Uint32(data[offset : offset+4])
	return float64(math.Float32frombits(bits))
}
