package pseudo

import "github.com/go-gl/mathgl/mgl32"

// SurfaceMode selects how a cell's surface vertex is placed when
// SPEC_FULL.md's dual-contouring supplement is enabled, rather than
// always using the flat-quad cubes extraction ExtractFaces performs.
type SurfaceMode int

const (
	// Cubes places every vertex at its cell corner (ExtractFaces'
	// behavior): fast, blocky, the only mode land/gen's generator
	// currently needs since it has no smooth density field.
	Cubes SurfaceMode = iota
	// DualContour places each cell's vertex at the QEF minimizer of its
	// Hermite intersection data: smooth surfaces, the mode any future
	// density-field generator would opt into.
	DualContour
)

// HermiteIntersection is one edge-crossing sample: a surface crossing
// point on a cell edge plus the surface normal there, matching
// original_source/include/voxen/common/terrain/hermite_data.hpp's
// (point, normal) pair convention.
type HermiteIntersection struct {
	Point  mgl32.Vec3
	Normal mgl32.Vec3
}

// QefSolver accumulates Hermite intersections into a 3x3 normal-equations
// system (A^T A x = A^T b, A's rows being each intersection's plane
// normal/offset) and solves for the point minimizing total squared
// plane distance, grounded on
// original_source/include/voxen/common/terrain/qef_solver.hpp's
// addPlane/solve shape. The original additionally tracks a compressed
// SVD pseudoinverse for feature-dimension detection (sharp edges versus
// smooth patches); this solver keeps only the normal-equations core
// (matching SPEC_FULL.md's "3x3 normal-equations QEF solver" scope) and
// falls back to the accumulated mass point when the system is singular,
// which is the SVD version's behavior in the zero-feature-dimension
// case anyway.
type QefSolver struct {
	ata       [3][3]float32 // A^T A, symmetric
	atb       mgl32.Vec3    // A^T b
	massPoint mgl32.Vec3
	count     int
}

// AddPlane adds one Hermite intersection's tangent plane to the solver.
func (q *QefSolver) AddPlane(h HermiteIntersection) {
	n := h.Normal
	d := n.Dot(h.Point)

	q.ata[0][0] += n.X() * n.X()
	q.ata[0][1] += n.X() * n.Y()
	q.ata[0][2] += n.X() * n.Z()
	q.ata[1][1] += n.Y() * n.Y()
	q.ata[1][2] += n.Y() * n.Z()
	q.ata[2][2] += n.Z() * n.Z()

	q.atb[0] += n.X() * d
	q.atb[1] += n.Y() * d
	q.atb[2] += n.Z() * d

	q.massPoint = q.massPoint.Add(h.Point)
	q.count++
}

// Solve returns the point minimizing the accumulated QEF, clamped to
// [minPoint, maxPoint], biased toward the mass point (the centroid of
// every added intersection) when the normal equations are
// ill-conditioned — matching the original's documented preference for
// "the solution closest to the mass point" among multiple minimizers.
func (q *QefSolver) Solve(minPoint, maxPoint mgl32.Vec3) mgl32.Vec3 {
	if q.count == 0 {
		return minPoint.Add(maxPoint).Mul(0.5)
	}
	mass := q.massPoint.Mul(1 / float32(q.count))

	q.ata[1][0] = q.ata[0][1]
	q.ata[2][0] = q.ata[0][2]
	q.ata[2][1] = q.ata[1][2]

	x, ok := solve3x3(q.ata, q.atb)
	if !ok {
		return clampToBox(mass, minPoint, maxPoint)
	}
	return clampToBox(x, minPoint, maxPoint)
}

func clampToBox(p, minPoint, maxPoint mgl32.Vec3) mgl32.Vec3 {
	clamp := func(v, lo, hi float32) float32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return mgl32.Vec3{
		clamp(p.X(), minPoint.X(), maxPoint.X()),
		clamp(p.Y(), minPoint.Y(), maxPoint.Y()),
		clamp(p.Z(), minPoint.Z(), maxPoint.Z()),
	}
}

// solve3x3 solves m*x = b via Cramer's rule, reporting false if m is
// (near) singular rather than dividing by a near-zero determinant.
func solve3x3(m [3][3]float32, b mgl32.Vec3) (mgl32.Vec3, bool) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])

	const epsilon = 1e-8
	if det > -epsilon && det < epsilon {
		return mgl32.Vec3{}, false
	}

	replaceCol := func(col int, v mgl32.Vec3) [3][3]float32 {
		out := m
		for row := 0; row < 3; row++ {
			out[row][col] = v[row]
		}
		return out
	}
	det3 := func(m [3][3]float32) float32 {
		return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
			m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
			m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	}

	x := det3(replaceCol(0, b)) / det
	y := det3(replaceCol(1, b)) / det
	z := det3(replaceCol(2, b)) / det
	return mgl32.Vec3{x, y, z}, true
}
