package accel

import (
	"fmt"
	"iter"
	"math"

	"github.com/df07/go-quadtree-raytracer/pkg/geometry"
	"github.com/pkg/errors"
)

// MaxDepth bounds tree depth; a tree of depth D allocates 4^D leaves up front
const MaxDepth = 12

// Child order inside an interior node. Bit 0 selects the upper X half,
// bit 1 the upper Y half.
const (
	ll = iota
	lr
	ul
	ur
)

var (
	// ErrTreeSealed is returned by inserts after the build phase has ended
	ErrTreeSealed = errors.New("accel: tree is sealed")
	// ErrInvalidDepth is returned for depths outside [0, MaxDepth]
	ErrInvalidDepth = errors.New("accel: invalid tree depth")
	// ErrInvalidBounds is returned for empty or inverted root bounds
	ErrInvalidBounds = errors.New("accel: invalid tree bounds")
)

// OutOfBoundsQueryError reports a query point outside the root bounds
type OutOfBoundsQueryError struct {
	X, Y   float64
	Bounds Bounds
}

func (e *OutOfBoundsQueryError) Error() string {
	return fmt.Sprintf("accel: query point (%g, %g) outside %v", e.X, e.Y, e.Bounds)
}

// node is either a *leafNode or an *interiorNode
type node interface {
	bounds() Bounds
}

type leafNode struct {
	b    Bounds
	list CandidateList
}

type interiorNode struct {
	b          Bounds
	midX, midY float64
	children   [4]node // ll, lr, ul, ur
}

func (n *leafNode) bounds() Bounds     { return n.b }
func (n *interiorNode) bounds() Bounds { return n.b }

// interval is a closed range on one axis
type interval struct {
	lo, hi float64
}

var unbounded = interval{lo: math.Inf(-1), hi: math.Inf(1)}

// Tree is a fixed-depth quadtree mapping 2D cells to candidate spheres.
// The same type serves as the primary (screen-space) tree and the shadow
// (light-space) tree; they differ only in which insert method is used.
//
// A tree is built single-threaded, then sealed. After Seal it is read-only
// and Query may be called from any number of goroutines.
type Tree struct {
	root   node
	bounds Bounds
	depth  int
	camZ   float64
	sealed bool
}

// NewTree allocates a full tree of 4^depth leaves over bounds.
// camZ is the camera's distance to the image plane, used only by Insert.
func NewTree(bounds Bounds, depth int, camZ float64) (*Tree, error) {
	if depth < 0 || depth > MaxDepth {
		return nil, errors.Wrapf(ErrInvalidDepth, "depth %d", depth)
	}
	if !bounds.IsValid() {
		return nil, errors.Wrapf(ErrInvalidBounds, "bounds %v", bounds)
	}

	return &Tree{
		root:   buildNode(bounds, depth),
		bounds: bounds,
		depth:  depth,
		camZ:   camZ,
	}, nil
}

// buildNode recursively quadrisects b until level 0
func buildNode(b Bounds, level int) node {
	if level == 0 {
		return &leafNode{b: b}
	}

	n := &interiorNode{b: b}
	n.midX, n.midY = b.Mid()
	for i, q := range b.Quadrants() {
		n.children[i] = buildNode(q, level-1)
	}
	return n
}

// Bounds returns the root bounds
func (t *Tree) Bounds() Bounds {
	return t.bounds
}

// Depth returns the configured depth
func (t *Tree) Depth() int {
	return t.depth
}

// Seal ends the build phase
func (t *Tree) Seal() {
	t.sealed = true
}

// Sealed reports whether the build phase has ended
func (t *Tree) Sealed() bool {
	return t.sealed
}

// Insert adds a sphere to every leaf its perspective-projected screen
// footprint overlaps.
func (t *Tree) Insert(id int, s *geometry.Sphere) error {
	if t.sealed {
		return ErrTreeSealed
	}
	insert(t.root, id, t.ProjectedBox(s))
	return nil
}

// InsertShadow adds a sphere to every leaf its light-space footprint
// [ShadowCenter.Y ± r] x [ShadowCenter.Z ± r] overlaps.
func (t *Tree) InsertShadow(id int, s *geometry.Sphere) error {
	if t.sealed {
		return ErrTreeSealed
	}
	insert(t.root, id, ShadowBox(s))
	return nil
}

// insert sends the box down every child it overlaps. A box straddling a
// midpoint goes to both halves; boxes outside the root end up in edge leaves.
func insert(n node, id int, box Bounds) {
	switch n := n.(type) {
	case *leafNode:
		n.list.Prepend(id)
	case *interiorNode:
		if box.MinY < n.midY {
			if box.MinX < n.midX {
				insert(n.children[ll], id, box)
			}
			if box.MaxX >= n.midX {
				insert(n.children[lr], id, box)
			}
		}
		if box.MaxY >= n.midY {
			if box.MinX < n.midX {
				insert(n.children[ul], id, box)
			}
			if box.MaxX >= n.midX {
				insert(n.children[ur], id, box)
			}
		}
	}
}

// ProjectedBox returns the conservative screen-space box of the sphere as
// seen from (0, 0, camZ) on the image plane z = 0. Sides may be infinite.
func (t *Tree) ProjectedBox(s *geometry.Sphere) Bounds {
	x := projectAxis(s.Center.X, s.Center.Z, s.Radius, t.camZ)
	y := projectAxis(s.Center.Y, s.Center.Z, s.Radius, t.camZ)
	return Bounds{MinX: x.lo, MinY: y.lo, MaxX: x.hi, MaxY: y.hi}
}

// ShadowBox returns the light-space box of the sphere: the shadow-basis
// Y coordinate on the tree's X axis and Z on its Y axis.
func ShadowBox(s *geometry.Sphere) Bounds {
	c, r := s.ShadowCenter, s.Radius
	return Bounds{MinX: c.Y - r, MinY: c.Z - r, MaxX: c.Y + r, MaxY: c.Z + r}
}

// projectAxis projects the sphere's extent on one axis through the camera.
// c is the center on that axis, cz its depth, r the radius.
func projectAxis(c, cz, r, camZ float64) interval {
	a := math.Hypot(c, cz-camZ)
	if a <= r {
		// Camera inside the sphere: it covers the whole plane
		return unbounded
	}

	// Half-angle of the tangent cone; a > r here
	theta := math.Asin(r / a)
	psi := math.Asin(c / a)

	lo := projectAngle(psi-theta, camZ)
	hi := projectAngle(psi+theta, camZ)
	if lo > hi {
		lo, hi = hi, lo
	}
	return interval{lo: lo, hi: hi}
}

// projectAngle maps a view angle to the image plane. Angles at or past
// ±π/2 never reach the plane and map to the matching infinity.
func projectAngle(phi, camZ float64) float64 {
	switch {
	case phi >= math.Pi/2:
		return math.Copysign(math.Inf(1), camZ)
	case phi <= -math.Pi/2:
		return math.Copysign(math.Inf(1), -camZ)
	}
	return camZ * math.Tan(phi)
}

// Query returns the candidate list of the leaf containing (x, y).
// The list is shared with the tree and must not be modified.
// Points outside the closed root bounds are rejected.
func (t *Tree) Query(x, y float64) (CandidateList, error) {
	if !t.bounds.Contains(x, y) {
		return CandidateList{}, &OutOfBoundsQueryError{X: x, Y: y, Bounds: t.bounds}
	}
	return t.leaf(x, y).list, nil
}

// QueryClamped clamps (x, y) into the root bounds before descending.
// Spheres whose boxes leave the root are stored in the edge leaves, so the
// clamped lookup still returns every sphere that can cover the point.
// NaN coordinates yield an empty list.
func (t *Tree) QueryClamped(x, y float64) CandidateList {
	if math.IsNaN(x) || math.IsNaN(y) {
		return CandidateList{}
	}
	x, y = t.bounds.Clamp(x, y)
	return t.leaf(x, y).list
}

// LeafBounds returns the bounds of the leaf Query(x, y) would reach
func (t *Tree) LeafBounds(x, y float64) (Bounds, error) {
	if !t.bounds.Contains(x, y) {
		return Bounds{}, &OutOfBoundsQueryError{X: x, Y: y, Bounds: t.bounds}
	}
	return t.leaf(x, y).b, nil
}

// leaf descends to exactly one leaf. A point on a midpoint belongs to the
// upper half, matching the >= test used by insert.
func (t *Tree) leaf(x, y float64) *leafNode {
	n := t.root
	for {
		switch cur := n.(type) {
		case *leafNode:
			return cur
		case *interiorNode:
			i := ll
			if x >= cur.midX {
				i |= lr
			}
			if y >= cur.midY {
				i |= ul
			}
			n = cur.children[i]
		}
	}
}

// Leaves iterates every leaf with its candidate list in ll, lr, ul, ur order
func (t *Tree) Leaves() iter.Seq2[Bounds, CandidateList] {
	return func(yield func(Bounds, CandidateList) bool) {
		walkLeaves(t.root, yield)
	}
}

func walkLeaves(n node, yield func(Bounds, CandidateList) bool) bool {
	switch n := n.(type) {
	case *leafNode:
		return yield(n.b, n.list)
	case *interiorNode:
		for _, child := range n.children {
			if !walkLeaves(child, yield) {
				return false
			}
		}
	}
	return true
}
