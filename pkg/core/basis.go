package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// snapEpsilon is the distance within which a matrix entry is snapped to its
// nearest integer after every row operation. It keeps orthonormal bases from
// accumulating drift such as 0.9999998 on the diagonal.
const snapEpsilon = 0.001

// pivotEpsilon is the magnitude below which a raw entry cannot serve as a pivot.
const pivotEpsilon = 1e-12

// SingularBasisError reports basis vectors that are not linearly independent
type SingularBasisError struct {
	A, B, C Vec3
	Rank    int // number of pivots found during elimination
}

func (e *SingularBasisError) Error() string {
	return fmt.Sprintf("singular basis (%v) (%v) (%v): rank %d", e.A, e.B, e.C, e.Rank)
}

// augmented is a 3x3 coefficient matrix with the right-hand side in column 3
type augmented [3][4]float64

// CoordChange expresses d in the basis formed by a, b and c.
// It solves [a | b | c] * result = d by Gauss-Jordan elimination.
func CoordChange(a, b, c, d Vec3) (Vec3, error) {
	m := augmented{
		{a.X, b.X, c.X, d.X},
		{a.Y, b.Y, c.Y, d.Y},
		{a.Z, b.Z, c.Z, d.Z},
	}

	if rank := m.reduce(); rank < 3 {
		return Vec3{}, &SingularBasisError{A: a, B: b, C: c, Rank: rank}
	}

	return Vec3{X: m[0][3], Y: m[1][3], Z: m[2][3]}, nil
}

// reduce brings the matrix to reduced row-echelon form and returns its rank
func (m *augmented) reduce() int {
	var pivotCols [3]int
	row := 0

	// Forward phase: leftmost column with a usable entry at or below row
	for col := 0; col < 3 && row < 3; col++ {
		pivotRow := m.firstNonZeroRow(row, col)
		if pivotRow < 0 {
			continue
		}
		if pivotRow != row {
			m.swapRows(row, pivotRow)
		}
		if pivot := m[row][col]; pivot != 1 {
			m.scaleRow(row, 1/pivot)
		}
		for r := row + 1; r < 3; r++ {
			if factor := m[r][col]; factor != 0 {
				m.addScaledRow(r, row, -factor)
			}
		}
		pivotCols[row] = col
		row++
	}

	rank := row

	// Backward phase: clear each pivot column above its pivot
	for r := rank - 1; r > 0; r-- {
		col := pivotCols[r]
		for above := 0; above < r; above++ {
			if factor := m[above][col]; factor != 0 {
				m.addScaledRow(above, r, -factor)
			}
		}
	}

	return rank
}

func (m *augmented) firstNonZeroRow(fromRow, col int) int {
	for r := fromRow; r < 3; r++ {
		if math.Abs(m[r][col]) > pivotEpsilon {
			return r
		}
	}
	return -1
}

func (m *augmented) swapRows(i, j int) {
	m[i], m[j] = m[j], m[i]
}

func (m *augmented) scaleRow(row int, factor float64) {
	for k := range m[row] {
		m[row][k] = snap(m[row][k] * factor)
	}
}

// addScaledRow adds factor * row src to row dst
func (m *augmented) addScaledRow(dst, src int, factor float64) {
	for k := range m[dst] {
		m[dst][k] = snap(m[dst][k] + factor*m[src][k])
	}
}

func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < snapEpsilon {
		return r
	}
	return v
}

// Basis is a coordinate frame made of three linearly independent vectors.
// For the light basis U1 is the light direction.
type Basis struct {
	U1, U2, U3 Vec3
}

// NewBasis creates a basis, rejecting vectors that are not linearly independent
func NewBasis(u1, u2, u3 Vec3) (Basis, error) {
	b := Basis{U1: u1, U2: u2, U3: u3}
	if err := b.Validate(); err != nil {
		return Basis{}, err
	}
	return b, nil
}

// NewLightBasis builds an orthonormal basis whose first axis is the light direction
func NewLightBasis(light Vec3) (Basis, error) {
	l := mgl64.Vec3{light.X, light.Y, light.Z}
	if l.Len() == 0 {
		return Basis{}, &SingularBasisError{A: light, Rank: 0}
	}
	l = l.Normalize()

	// Any helper axis not parallel to the light works for Gram-Schmidt
	helper := mgl64.Vec3{0, 1, 0}
	if math.Abs(l.Y()) > 0.9 {
		helper = mgl64.Vec3{1, 0, 0}
	}
	u2 := l.Cross(helper).Normalize()
	u3 := l.Cross(u2)

	return Basis{
		U1: fromMgl(l),
		U2: fromMgl(u2),
		U3: fromMgl(u3),
	}, nil
}

// Validate returns a *SingularBasisError if the vectors are not linearly independent
func (b Basis) Validate() error {
	_, err := CoordChange(b.U1, b.U2, b.U3, Vec3{})
	return err
}

// Coordinates re-expresses the world point p in this basis
func (b Basis) Coordinates(p Vec3) (Vec3, error) {
	return CoordChange(b.U1, b.U2, b.U3, p)
}

// Compose maps basis coordinates back to world space
func (b Basis) Compose(coords Vec3) Vec3 {
	return b.U1.Multiply(coords.X).Add(b.U2.Multiply(coords.Y)).Add(b.U3.Multiply(coords.Z))
}

func fromMgl(v mgl64.Vec3) Vec3 {
	return Vec3{X: v.X(), Y: v.Y(), Z: v.Z()}
}
