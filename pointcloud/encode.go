package pointcloud

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/golang/geo/r3"
)

// EncodeCloud packs positions and named per-point scalar channels into a
// wire-format Cloud, the inverse of Positions/Normals, used to build the
// diagnostic clouds of spec.md §6.
func EncodeCloud(frameID string, stamp time.Time, positions []r3.Vector, channels map[string][]float32) Cloud {
	fields := []Field{
		{Name: "x", Offset: 0, Datatype: Float32},
		{Name: "y", Offset: 4, Datatype: Float32},
		{Name: "z", Offset: 8, Datatype: Float32},
	}
	offset := uint32(12)
	names := sortedChannelNames(channels)
	for _, name := range names {
		fields = append(fields, Field{Name: name, Offset: offset, Datatype: Float32})
		offset += 4
	}
	pointStep := offset

	n := len(positions)
	data := make([]byte, int(pointStep)*n)
	for i, p := range positions {
		base := uint32(i) * pointStep
		writeFloat32(data, base+0, float32(p.X))
		writeFloat32(data, base+4, float32(p.Y))
		writeFloat32(data, base+8, float32(p.Z))
		for _, name := range names {
			f, _ := findField(fields, name)
			writeFloat32(data, base+f.Offset, channels[name][i])
		}
	}

	return Cloud{
		FrameID:   frameID,
		Stamp:     stamp,
		Width:     uint32(n),
		Height:    1,
		PointStep: pointStep,
		RowStep:   pointStep * uint32(n),
		Fields:    fields,
		Data:      data,
	}
}

func findField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func writeFloat32(data []byte, offset uint32, v float32) {
	binary.LittleEndian.PutUint32(data[offset:offset+4], math.Float32bits(v))
}

// sortedChannelNames returns channels' keys in a deterministic order so
// repeated encodes of the same channel set lay out fields identically.
func sortedChannelNames(channels map[string][]float32) []string {
	names := make([]string, 0, len(channels))
	for k := range channels {
		names = append(names, k)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}
