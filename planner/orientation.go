package planner

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// poseOrientation builds the orientation for a traced path vertex: its
// x-axis points along segment (the direction of travel into it), its
// z-axis is normal (already oriented non-negative-z by the Feature &
// Label Engine), and its y-axis closes the right-handed frame (spec.md
// §4.4 step 7).
func poseOrientation(segment, normal r3.Vector) quat.Number {
	x := segment
	if x.Norm() == 0 {
		x = r3.Vector{X: 1}
	}
	x = x.Normalize()

	z := normal
	if z.Norm() == 0 {
		z = r3.Vector{Z: 1}
	}
	z = z.Normalize()

	y := z.Cross(x)
	if y.Norm() < 1e-9 {
		// x nearly parallel to z: fall back to an arbitrary perpendicular.
		y = z.Cross(r3.Vector{X: 1})
		if y.Norm() < 1e-9 {
			y = z.Cross(r3.Vector{Y: 1})
		}
	}
	y = y.Normalize()
	x = y.Cross(z).Normalize()

	return rotationToQuat(x, y, z)
}

// rotateByQuat rotates v by unit quaternion q (v' = q v q*, with v lifted
// to a pure quaternion), used to bring ingest points from sensor frame
// into the map frame using the resolved transform's orientation.
func rotateByQuat(q quat.Number, v r3.Vector) r3.Vector {
	if q == (quat.Number{}) {
		return v
	}
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// rotationToQuat converts an orthonormal right-handed basis (the columns
// of a rotation matrix) to a unit quaternion via Shepperd's method.
func rotationToQuat(x, y, z r3.Vector) quat.Number {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z
	trace := m00 + m11 + m22

	var w, qx, qy, qz float64
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		w = 0.25 / s
		qx = (m21 - m12) * s
		qy = (m02 - m20) * s
		qz = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2.0 * math.Sqrt(1.0+m00-m11-m22)
		w = (m21 - m12) / s
		qx = 0.25 * s
		qy = (m01 + m10) / s
		qz = (m02 + m20) / s
	case m11 > m22:
		s := 2.0 * math.Sqrt(1.0+m11-m00-m22)
		w = (m02 - m20) / s
		qx = (m01 + m10) / s
		qy = 0.25 * s
		qz = (m12 + m21) / s
	default:
		s := 2.0 * math.Sqrt(1.0+m22-m00-m11)
		w = (m10 - m01) / s
		qx = (m02 + m20) / s
		qy = (m12 + m21) / s
		qz = 0.25 * s
	}
	return quat.Number{Real: w, Imag: qx, Jmag: qy, Kmag: qz}
}
