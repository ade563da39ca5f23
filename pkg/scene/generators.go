package scene

import (
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/aquilax/go-perlin"
	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/df07/go-quadtree-raytracer/pkg/loaders"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Sphere layouts accepted by Generate
const (
	LayoutRandom = "random"
	LayoutPerlin = "perlin"
	LayoutFile   = "file"
	LayoutPLY    = "ply"
)

// SphereSpec describes one sphere before it is added to a scene
type SphereSpec struct {
	Center core.Vec3 `json:"center"`
	Radius float64   `json:"radius"`
	Color  core.Vec3 `json:"color"`
}

// GeneratorConfig controls procedural sphere layouts
type GeneratorConfig struct {
	Count     int     // Number of spheres
	Extent    float64 // Centers lie in [-Extent, Extent]³
	MinRadius float64
	MaxRadius float64
	Seed      int64
}

// DefaultGeneratorConfig returns small spheres scattered through a 16-unit cube
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Count:     1000,
		Extent:    8,
		MinRadius: 0.05,
		MaxRadius: 0.15,
		Seed:      42,
	}
}

// RandomSpheres scatters spheres uniformly through the generator cube
func RandomSpheres(cfg GeneratorConfig) []SphereSpec {
	random := rand.New(rand.NewSource(cfg.Seed))
	specs := make([]SphereSpec, cfg.Count)

	for i := range specs {
		center := core.NewVec3(
			(random.Float64()*2-1)*cfg.Extent,
			(random.Float64()*2-1)*cfg.Extent,
			(random.Float64()*2-1)*cfg.Extent,
		)
		c := colorful.FastHappyColorWithRand(random)
		specs[i] = SphereSpec{
			Center: center,
			Radius: cfg.MinRadius + random.Float64()*(cfg.MaxRadius-cfg.MinRadius),
			Color:  core.NewVec3(c.R, c.G, c.B).Clamp(0, 1),
		}
	}

	return specs
}

// perlinFrequency is the number of noise periods across the generator cube
const perlinFrequency = 2.0

// PerlinSpheres places spheres on a rolling surface: x and y are uniform,
// depth follows a Perlin height field and hue follows depth.
func PerlinSpheres(cfg GeneratorConfig) []SphereSpec {
	random := rand.New(rand.NewSource(cfg.Seed))
	noise := perlin.NewPerlin(2, 2, 3, cfg.Seed)
	specs := make([]SphereSpec, cfg.Count)

	for i := range specs {
		x := (random.Float64()*2 - 1) * cfg.Extent
		y := (random.Float64()*2 - 1) * cfg.Extent

		h := noise.Noise2D(x/cfg.Extent*perlinFrequency, y/cfg.Extent*perlinFrequency)
		h = math.Max(-1, math.Min(1, 2*h))

		c := colorful.Hsv(180+150*h, 0.7, 0.9)
		specs[i] = SphereSpec{
			Center: core.NewVec3(x, y, h*cfg.Extent),
			Radius: cfg.MinRadius + random.Float64()*(cfg.MaxRadius-cfg.MinRadius),
			Color:  core.NewVec3(c.R, c.G, c.B).Clamp(0, 1),
		}
	}

	return specs
}

// PointCloudSpheres places one sphere on every point of a cloud, uniformly
// rescaled so the cloud fits the generator cube. Radii from the cloud scale
// with it; otherwise every sphere gets the mean generator radius. Points
// without colors are shaded by height.
func PointCloudSpheres(cloud *loaders.PointCloud, cfg GeneratorConfig) []SphereSpec {
	specs := make([]SphereSpec, len(cloud.Points))
	if len(specs) == 0 {
		return specs
	}

	lo, hi := cloud.Points[0], cloud.Points[0]
	for _, p := range cloud.Points[1:] {
		lo = core.NewVec3(math.Min(lo.X, p.X), math.Min(lo.Y, p.Y), math.Min(lo.Z, p.Z))
		hi = core.NewVec3(math.Max(hi.X, p.X), math.Max(hi.Y, p.Y), math.Max(hi.Z, p.Z))
	}
	center := lo.Add(hi).Multiply(0.5)
	span := math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z)) / 2
	scale := 1.0
	if span > 0 {
		scale = cfg.Extent / span
	}

	for i, p := range cloud.Points {
		pos := p.Subtract(center).Multiply(scale)

		radius := (cfg.MinRadius + cfg.MaxRadius) / 2
		if len(cloud.Radii) > i && cloud.Radii[i] > 0 {
			radius = cloud.Radii[i] * scale
		}

		var color core.Vec3
		if len(cloud.Colors) > i {
			color = cloud.Colors[i].Clamp(0, 1)
		} else {
			t := 0.5
			if cfg.Extent > 0 {
				t = (pos.Y/cfg.Extent + 1) / 2
			}
			c := colorful.Hcl(360*t, 0.6, 0.7).Clamped()
			color = core.NewVec3(c.R, c.G, c.B)
		}

		specs[i] = SphereSpec{Center: pos, Radius: radius, Color: color}
	}

	return specs
}

// LoadPointCloudSpheres reads a PLY point cloud and converts it to spheres
func LoadPointCloudSpheres(path string, cfg GeneratorConfig) ([]SphereSpec, error) {
	cloud, err := loaders.LoadPLY(path)
	if err != nil {
		return nil, errors.Wrapf(err, "point cloud %s", path)
	}
	return PointCloudSpheres(cloud, cfg), nil
}

// sceneFile is the JSON layout of a scene file
type sceneFile struct {
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Spheres     []SphereSpec `json:"spheres"`
}

// ReadSpheres decodes a JSON scene file
func ReadSpheres(r io.Reader) ([]SphereSpec, error) {
	var file sceneFile
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode scene")
	}
	return file.Spheres, nil
}

// LoadSpheres reads the spheres of a JSON scene file
func LoadSpheres(path string) ([]SphereSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open scene")
	}
	defer f.Close()

	specs, err := ReadSpheres(f)
	if err != nil {
		return nil, errors.Wrapf(err, "scene %s", path)
	}
	return specs, nil
}

// WriteSpheres encodes spheres as a JSON scene file
func WriteSpheres(w io.Writer, specs []SphereSpec) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sceneFile{Spheres: specs})
}

// Generate produces spheres for the named layout. path is only used by LayoutFile and LayoutPLY.
func Generate(layout string, cfg GeneratorConfig, path string) ([]SphereSpec, error) {
	switch layout {
	case LayoutRandom, "":
		return RandomSpheres(cfg), nil
	case LayoutPerlin:
		return PerlinSpheres(cfg), nil
	case LayoutFile:
		if path == "" {
			return nil, errors.New("file layout needs a scene path")
		}
		return LoadSpheres(path)
	case LayoutPLY:
		if path == "" {
			return nil, errors.New("ply layout needs a point cloud path")
		}
		return LoadPointCloudSpheres(path, cfg)
	default:
		return nil, errors.Errorf("unknown layout %q", layout)
	}
}
