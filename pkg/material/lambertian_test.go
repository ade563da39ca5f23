package material

import (
	"math"
	"testing"

	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/df07/go-quadtree-raytracer/pkg/geometry"
)

func vecClose(a, b core.Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) < tolerance && math.Abs(a.Y-b.Y) < tolerance && math.Abs(a.Z-b.Z) < tolerance
}

func TestLambertian_Shade(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.7, 0.9)
	lambertian := NewLambertian(albedo)
	up := core.NewVec3(0, 1, 0)

	tests := []struct {
		name     string
		normal   core.Vec3
		light    core.Vec3
		inShadow bool
		expected core.Vec3
	}{
		{"facing the light", up, up, false, albedo},
		{"60 degrees", up, core.NewVec3(math.Sqrt(3)/2, 0.5, 0), false, albedo.Multiply(0.5)},
		{"grazing angle floors to ambient", up, core.NewVec3(1, 0.01, 0).Normalize(), false, albedo.Multiply(0.1)},
		{"back face floors to ambient", up, core.NewVec3(0, -1, 0), false, albedo.Multiply(0.1)},
		{"shadowed point gets ambient only", up, up, true, albedo.Multiply(0.1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lambertian.Shade(tt.normal, tt.light, tt.inShadow)
			if !vecClose(got, tt.expected, 1e-9) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestShade_Sphere(t *testing.T) {
	basis := core.Basis{
		U1: core.NewVec3(1, 0, 0),
		U2: core.NewVec3(0, 1, 0),
		U3: core.NewVec3(0, 0, 1),
	}
	color := core.NewVec3(1, 0.5, 0.25)
	s, err := geometry.NewSphere(core.NewVec3(0, 0, 0), 2, color, basis)
	if err != nil {
		t.Fatalf("NewSphere: %v", err)
	}

	// Top of the sphere, light straight above
	got := Shade(s, core.NewVec3(0, 2, 0), core.NewVec3(0, 1, 0), false)
	if !vecClose(got, color, 1e-9) {
		t.Errorf("Expected full color %v, got %v", color, got)
	}

	// Never darker than the ambient floor
	got = Shade(s, core.NewVec3(0, -2, 0), core.NewVec3(0, 1, 0), false)
	if !vecClose(got, color.Multiply(DefaultAmbient), 1e-9) {
		t.Errorf("Expected ambient color, got %v", got)
	}
}
