package core

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// basisMatrix returns the basis vectors as the columns of a 3x3 matrix
func basisMatrix(b Basis) mgl64.Mat3 {
	col := func(v Vec3) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }
	return mgl64.Mat3FromCols(col(b.U1), col(b.U2), col(b.U3))
}

// lightBasis is the orthonormal frame used by the default scene
func lightBasis() Basis {
	return Basis{
		U1: NewVec3(1, 1, 1).Normalize(),
		U2: NewVec3(5, -3, -2).Normalize(),
		U3: NewVec3(1, 7, -8).Normalize(),
	}
}

func vecClose(a, b Vec3, tolerance float64) bool {
	return a.Subtract(b).Length() <= tolerance
}

func TestCoordChange_StandardBasis(t *testing.T) {
	x, y, z := NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(0, 0, 1)
	d := NewVec3(3.25, -7, 0.5)

	got, err := CoordChange(x, y, z, d)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != d {
		t.Errorf("Expected %v, got %v", d, got)
	}
}

func TestCoordChange_PermutedBasisNeedsRowSwap(t *testing.T) {
	// First column has a zero in the first row so the pivot must be swapped in
	a := NewVec3(0, 1, 0)
	b := NewVec3(1, 0, 0)
	c := NewVec3(0, 0, 2)
	d := NewVec3(4, 5, 6)

	got, err := CoordChange(a, b, c, d)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := NewVec3(5, 4, 3)
	if !vecClose(got, expected, 1e-9) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestCoordChange_RoundTripOrthonormal(t *testing.T) {
	basis := lightBasis()
	random := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		d := NewVec3(random.Float64()*16-8, random.Float64()*16-8, random.Float64()*16-8)

		coords, err := basis.Coordinates(d)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		// Snapping to integers within 0.001 bounds the reconstruction error
		if back := basis.Compose(coords); !vecClose(back, d, 1e-2) {
			t.Errorf("Round trip of %v gave %v (coords %v)", d, back, coords)
		}
	}
}

func TestCoordChange_MatchesMatrixInverse(t *testing.T) {
	// A non-orthogonal but well conditioned basis
	a := NewVec3(2, 0.5, -1)
	b := NewVec3(0.25, 3, 1)
	c := NewVec3(-1, 1, 4)
	basis := Basis{U1: a, U2: b, U3: c}
	inv := basisMatrix(basis).Inv()

	points := []Vec3{
		NewVec3(1, 2, 3),
		NewVec3(-4.5, 0.3, 7.7),
		NewVec3(10, -10, 0.125),
	}

	for _, p := range points {
		got, err := CoordChange(a, b, c, p)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want := inv.Mul3x1(mgl64.Vec3{p.X, p.Y, p.Z})
		if !vecClose(got, NewVec3(want[0], want[1], want[2]), 5e-3) {
			t.Errorf("CoordChange(%v) = %v, matrix inverse gives %v", p, got, want)
		}
	}
}

func TestCoordChange_Singular(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Vec3
		rank    int
	}{
		{"parallel vectors", NewVec3(1, 0, 0), NewVec3(2, 0, 0), NewVec3(0, 0, 1), 2},
		{"coplanar vectors", NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(1, 1, 0), 2},
		{"zero vector", NewVec3(0, 0, 0), NewVec3(0, 1, 0), NewVec3(0, 0, 1), 2},
		{"all zero", Vec3{}, Vec3{}, Vec3{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CoordChange(tt.a, tt.b, tt.c, NewVec3(1, 2, 3))

			var singular *SingularBasisError
			if !errors.As(err, &singular) {
				t.Fatalf("Expected *SingularBasisError, got %v", err)
			}
			if singular.Rank != tt.rank {
				t.Errorf("Expected rank %d, got %d", tt.rank, singular.Rank)
			}
		})
	}
}

func TestSnap(t *testing.T) {
	tests := []struct {
		in, expected float64
	}{
		{0.9999, 1},
		{-2.0004, -2},
		{0.0009, 0},
		{0.5, 0.5},
		{1.002, 1.002},
	}

	for _, tt := range tests {
		if got := snap(tt.in); got != tt.expected {
			t.Errorf("snap(%f): expected %f, got %f", tt.in, tt.expected, got)
		}
	}
}

func TestNewBasis_RejectsDependentVectors(t *testing.T) {
	_, err := NewBasis(NewVec3(1, 1, 0), NewVec3(2, 2, 0), NewVec3(0, 0, 1))
	var singular *SingularBasisError
	if !errors.As(err, &singular) {
		t.Errorf("Expected *SingularBasisError, got %v", err)
	}

	if _, err := NewBasis(lightBasis().U1, lightBasis().U2, lightBasis().U3); err != nil {
		t.Errorf("Unexpected error for orthonormal basis: %v", err)
	}
}

func TestNewLightBasis(t *testing.T) {
	lights := []Vec3{
		NewVec3(1, 1, 1),
		NewVec3(0, 1, 0),
		NewVec3(0, -3, 0.1),
		NewVec3(-2, 0.5, 4),
	}

	for _, light := range lights {
		basis, err := NewLightBasis(light)
		if err != nil {
			t.Fatalf("NewLightBasis(%v): unexpected error %v", light, err)
		}

		if !vecClose(basis.U1, light.Normalize(), 1e-12) {
			t.Errorf("First axis %v is not the light direction %v", basis.U1, light.Normalize())
		}

		axes := []Vec3{basis.U1, basis.U2, basis.U3}
		for i := range axes {
			if math.Abs(axes[i].Length()-1) > 1e-12 {
				t.Errorf("Axis %d of light %v is not unit length: %v", i, light, axes[i])
			}
			for j := i + 1; j < len(axes); j++ {
				if d := axes[i].Dot(axes[j]); math.Abs(d) > 1e-12 {
					t.Errorf("Axes %d and %d of light %v are not orthogonal (dot %g)", i, j, light, d)
				}
			}
		}

		if det := basisMatrix(basis).Det(); math.Abs(math.Abs(det)-1) > 1e-9 {
			t.Errorf("Expected |det| = 1 for light %v, got %f", light, det)
		}
	}
}

func TestNewLightBasis_ZeroLight(t *testing.T) {
	if _, err := NewLightBasis(Vec3{}); err == nil {
		t.Error("Expected error for zero light direction")
	}
}
