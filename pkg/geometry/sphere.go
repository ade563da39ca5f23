package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/pkg/errors"
)

// DegenerateSphereError reports a sphere whose radius is not a positive
// finite number or whose center is not finite
type DegenerateSphereError struct {
	Center core.Vec3
	Radius float64
}

func (e *DegenerateSphereError) Error() string {
	if !e.Center.IsFinite() {
		return fmt.Sprintf("degenerate sphere at (%v): center must be finite", e.Center)
	}
	return fmt.Sprintf("degenerate sphere at (%v): radius %g must be positive", e.Center, e.Radius)
}

// Sphere is an opaque, uniformly coloured sphere.
// ShadowCenter is Center expressed in the light basis and is fixed at construction.
type Sphere struct {
	Center       core.Vec3
	ShadowCenter core.Vec3
	Radius       float64
	Color        core.Vec3 // RGB in [0,1]
}

// NewSphere creates a new sphere and precomputes its light-basis center
func NewSphere(center core.Vec3, radius float64, color core.Vec3, lightBasis core.Basis) (*Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 0) || !center.IsFinite() {
		return nil, &DegenerateSphereError{Center: center, Radius: radius}
	}

	shadowCenter, err := lightBasis.Coordinates(center)
	if err != nil {
		return nil, errors.Wrapf(err, "sphere at (%v)", center)
	}

	return &Sphere{
		Center:       center,
		ShadowCenter: shadowCenter,
		Radius:       radius,
		Color:        color,
	}, nil
}

// roots solves |origin - center + tD|² = r² for a unit direction D.
// ok is false when the ray misses.
func (s *Sphere) roots(ray core.Ray, center core.Vec3) (near, far float64, ok bool) {
	// Move sphere and ray together so the sphere sits at the origin
	oc := ray.Origin.Subtract(center)

	// a = D·D = 1 for a unit direction
	b := 2.0 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := b*b - 4*c
	if discriminant < 0 {
		return 0, 0, false
	}

	sqrtD := math.Sqrt(discriminant)
	return 0.5 * (-b - sqrtD), 0.5 * (-b + sqrtD), true
}

// Intersect returns the near root of the ray-sphere intersection.
// The near root may be negative when the origin is inside or past the sphere;
// callers filter on their own minimum t.
func (s *Sphere) Intersect(ray core.Ray) (float64, bool) {
	near, _, ok := s.roots(ray, s.Center)
	return near, ok
}

// IntersectOffset tests the ray against this sphere translated by -offset.
// The sphere itself is not modified.
func (s *Sphere) IntersectOffset(ray core.Ray, offset core.Vec3) (float64, bool) {
	near, _, ok := s.roots(ray, s.Center.Subtract(offset))
	return near, ok
}

// IntersectNear returns both roots ordered near to far
func (s *Sphere) IntersectNear(ray core.Ray) (near, far float64, ok bool) {
	return s.roots(ray, s.Center)
}

// Normal returns the outward unit normal at a point on the surface
func (s *Sphere) Normal(point core.Vec3) core.Vec3 {
	return point.Subtract(s.Center).Normalize()
}
