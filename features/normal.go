package features

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// estimateNormal returns the unit normal of the plane best fitting offsets
// (neighbor positions relative to the query point), found as the
// eigenvector of the offset covariance matrix with the smallest
// eigenvalue, oriented so its z-component is non-negative (spec.md §4.2
// step 2). Grounded on the SVD-of-covariance pattern the teacher's
// spatialmath package uses for plane/orientation fitting.
func estimateNormal(offsets []r3.Vector) (r3.Vector, bool) {
	n := len(offsets)
	if n == 0 {
		return r3.Vector{}, false
	}

	data := make([]float64, 9)
	for _, o := range offsets {
		data[0] += o.X * o.X
		data[1] += o.X * o.Y
		data[2] += o.X * o.Z
		data[3] += o.Y * o.X
		data[4] += o.Y * o.Y
		data[5] += o.Y * o.Z
		data[6] += o.Z * o.X
		data[7] += o.Z * o.Y
		data[8] += o.Z * o.Z
	}
	for i := range data {
		data[i] /= float64(n)
	}
	cov := mat.NewDense(3, 3, data)

	var svd mat.SVD
	if !svd.Factorize(cov, mat.SVDFull) {
		return r3.Vector{}, false
	}
	var v mat.Dense
	svd.VTo(&v)

	normal := r3.Vector{X: v.At(0, 2), Y: v.At(1, 2), Z: v.At(2, 2)}
	if normal.Norm() == 0 {
		return r3.Vector{}, false
	}
	normal = normal.Normalize()
	if normal.Z < 0 {
		normal = normal.Mul(-1)
	}
	return normal, true
}
