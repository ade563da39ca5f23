package scene

import (
	"github.com/df07/go-quadtree-raytracer/pkg/accel"
	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/df07/go-quadtree-raytracer/pkg/geometry"
	"github.com/pkg/errors"
)

// Config contains the fixed camera, light and tree parameters of a scene
type Config struct {
	HalfExtent  float64   // S: the image plane spans [-S, S]² at z = 0
	CameraZ     float64   // Camera position on the z axis, looking towards -z
	TreeDepth   int       // Depth of both quadtrees
	ShadowScale float64   // Shadow tree half-extent as a multiple of HalfExtent
	Light       core.Vec3 // Direction towards the light, need not be unit length
	Basis2      core.Vec3 // Second and third light-basis vectors; if both are zero
	Basis3      core.Vec3 // they are derived from Light
	Background  core.Vec3 // Color of rays that hit nothing
}

// DefaultConfig returns the standard scene setup: a 20x20 image plane seen
// from z = 20 and a light from (1, 1, 1).
func DefaultConfig() Config {
	return Config{
		HalfExtent:  10,
		CameraZ:     20,
		TreeDepth:   6,
		ShadowScale: 5,
		Light:       core.NewVec3(1, 1, 1),
		Basis2:      core.NewVec3(5, -3, -2),
		Basis3:      core.NewVec3(1, 7, -8),
		Background:  core.NewVec3(0.4, 0.6, 0.8),
	}
}

// LightBasis returns the shadow-space basis for this configuration
func (c Config) LightBasis() (core.Basis, error) {
	if c.Light.LengthSquared() == 0 {
		return core.Basis{}, &core.SingularBasisError{A: c.Light, B: c.Basis2, C: c.Basis3}
	}
	if c.Basis2.LengthSquared() == 0 && c.Basis3.LengthSquared() == 0 {
		return core.NewLightBasis(c.Light)
	}
	if c.Basis2.LengthSquared() == 0 || c.Basis3.LengthSquared() == 0 {
		return core.Basis{}, &core.SingularBasisError{A: c.Light, B: c.Basis2, C: c.Basis3, Rank: 2}
	}
	return core.NewBasis(c.Light.Normalize(), c.Basis2.Normalize(), c.Basis3.Normalize())
}

// Scene owns the sphere arena and the two quadtrees built over it.
// Tree candidate lists hold indices into Spheres.
type Scene struct {
	Config  Config
	Light   core.Vec3  // Unit direction towards the light
	Basis   core.Basis // Light basis, U1 == Light
	Spheres []*geometry.Sphere
	Primary *accel.Tree // Screen space, keyed by projected image-plane coordinates
	Shadow  *accel.Tree // Light space, keyed by shadow-basis (y, z)
}

// New creates an empty scene with both trees allocated
func New(cfg Config) (*Scene, error) {
	basis, err := cfg.LightBasis()
	if err != nil {
		return nil, errors.Wrap(err, "light basis")
	}

	primary, err := accel.NewTree(accel.Square(cfg.HalfExtent), cfg.TreeDepth, cfg.CameraZ)
	if err != nil {
		return nil, errors.Wrap(err, "primary tree")
	}

	shadow, err := accel.NewTree(accel.Square(cfg.HalfExtent*cfg.ShadowScale), cfg.TreeDepth, cfg.CameraZ)
	if err != nil {
		return nil, errors.Wrap(err, "shadow tree")
	}

	return &Scene{
		Config:  cfg,
		Light:   basis.U1,
		Basis:   basis,
		Primary: primary,
		Shadow:  shadow,
	}, nil
}

// AddSphere appends a sphere to the arena and inserts it into both trees.
// It returns the sphere's handle.
func (s *Scene) AddSphere(center core.Vec3, radius float64, color core.Vec3) (int, error) {
	if s.Sealed() {
		return 0, accel.ErrTreeSealed
	}

	sphere, err := geometry.NewSphere(center, radius, color, s.Basis)
	if err != nil {
		return 0, err
	}

	id := len(s.Spheres)
	if err := s.Primary.Insert(id, sphere); err != nil {
		return 0, err
	}
	if err := s.Shadow.InsertShadow(id, sphere); err != nil {
		return 0, err
	}
	s.Spheres = append(s.Spheres, sphere)

	return id, nil
}

// Seal ends the build phase. The scene is read-only afterwards and may be
// rendered from any number of goroutines.
func (s *Scene) Seal() {
	s.Primary.Seal()
	s.Shadow.Seal()
}

// Sealed reports whether the build phase has ended
func (s *Scene) Sealed() bool {
	return s.Primary.Sealed()
}

// Sphere returns the sphere for a candidate handle
func (s *Scene) Sphere(id int) *geometry.Sphere {
	return s.Spheres[id]
}

// Build creates a scene from sphere descriptions and seals it
func Build(cfg Config, specs []SphereSpec) (*Scene, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}

	for i, spec := range specs {
		if _, err := s.AddSphere(spec.Center, spec.Radius, spec.Color); err != nil {
			return nil, errors.Wrapf(err, "sphere %d", i)
		}
	}
	s.Seal()

	return s, nil
}
