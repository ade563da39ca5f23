package material

import (
	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/df07/go-quadtree-raytracer/pkg/geometry"
)

// DefaultAmbient is the light floor applied to shadowed and back-facing points
const DefaultAmbient = 0.1

// Lambertian represents a perfectly diffuse surface lit by one directional light
type Lambertian struct {
	Albedo  core.Vec3 // Base color
	Ambient float64   // Minimum fraction of Albedo returned
}

// NewLambertian creates a lambertian material with the default ambient floor
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo, Ambient: DefaultAmbient}
}

// Shade returns the reflected color for a unit surface normal and a unit
// direction towards the light. Shadowed points get only the ambient term.
func (l *Lambertian) Shade(normal, light core.Vec3, inShadow bool) core.Vec3 {
	if inShadow {
		return l.Albedo.Multiply(l.Ambient)
	}

	cosTheta := normal.Dot(light)
	if cosTheta < l.Ambient {
		cosTheta = l.Ambient // Back faces and grazing angles keep the floor
	}
	return l.Albedo.Multiply(cosTheta)
}

// Shade applies lambertian shading with the default ambient floor to the
// sphere's color at surface point p.
func Shade(s *geometry.Sphere, p, light core.Vec3, inShadow bool) core.Vec3 {
	return NewLambertian(s.Color).Shade(s.Normal(p), light, inShadow)
}
