package pseudo

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestQefSolverFlatPlaneRecoversThePlane(t *testing.T) {
	var q QefSolver
	// Three intersections all on the plane z=0.5 with normal +Z: any
	// point on that plane minimizes the QEF, so the solver must return
	// a point with Z == 0.5 (clamped box leaves X/Y free).
	q.AddPlane(HermiteIntersection{Point: mgl32.Vec3{0, 0, 0.5}, Normal: mgl32.Vec3{0, 0, 1}})
	q.AddPlane(HermiteIntersection{Point: mgl32.Vec3{1, 0, 0.5}, Normal: mgl32.Vec3{0, 0, 1}})
	q.AddPlane(HermiteIntersection{Point: mgl32.Vec3{0, 1, 0.5}, Normal: mgl32.Vec3{0, 0, 1}})

	p := q.Solve(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	if p.Z() < 0.49 || p.Z() > 0.51 {
		t.Fatalf("expected solver to land on z=0.5 plane, got z=%v", p.Z())
	}
}

func TestQefSolverCornerConvergesNearCorner(t *testing.T) {
	var q QefSolver
	q.AddPlane(HermiteIntersection{Point: mgl32.Vec3{0.5, 0, 0}, Normal: mgl32.Vec3{1, 0, 0}})
	q.AddPlane(HermiteIntersection{Point: mgl32.Vec3{0, 0.5, 0}, Normal: mgl32.Vec3{0, 1, 0}})
	q.AddPlane(HermiteIntersection{Point: mgl32.Vec3{0, 0, 0.5}, Normal: mgl32.Vec3{0, 0, 1}})

	p := q.Solve(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	want := mgl32.Vec3{0.5, 0.5, 0.5}
	for i := 0; i < 3; i++ {
		if d := p[i] - want[i]; d > 0.01 || d < -0.01 {
			t.Fatalf("expected solver near %v, got %v", want, p)
		}
	}
}

func TestQefSolverEmptyReturnsBoxCenter(t *testing.T) {
	var q QefSolver
	p := q.Solve(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})
	want := mgl32.Vec3{1, 1, 1}
	if p != want {
		t.Fatalf("expected box center %v with no planes added, got %v", want, p)
	}
}
