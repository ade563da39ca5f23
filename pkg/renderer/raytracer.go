package renderer

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/df07/go-quadtree-raytracer/pkg/material"
	"github.com/df07/go-quadtree-raytracer/pkg/scene"
)

// minHitDistance rejects hits at or behind the camera
const minHitDistance = 0.01

// RenderConfig contains image and parallelism settings
type RenderConfig struct {
	Width      int // Image width in pixels
	Height     int // Image height in pixels
	TileSize   int // Size of each square tile
	NumWorkers int // Number of parallel workers (0 = use CPU count)
}

// DefaultRenderConfig returns sensible default values
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Width:      512,
		Height:     512,
		TileSize:   64,
		NumWorkers: 0,
	}
}

// Raytracer casts one primary ray per pixel against a sealed scene.
// It holds no mutable state and may be shared between goroutines.
type Raytracer struct {
	scene  *scene.Scene
	config RenderConfig
	camera core.Vec3
	logger core.Logger
}

// NewRaytracer creates a new raytracer with the camera at (0, 0, CameraZ)
func NewRaytracer(sc *scene.Scene, config RenderConfig, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &Raytracer{
		scene:  sc,
		config: config,
		camera: core.NewVec3(0, 0, sc.Config.CameraZ),
		logger: logger,
	}
}

// Scene returns the scene being rendered
func (rt *Raytracer) Scene() *scene.Scene {
	return rt.scene
}

// Config returns the render configuration
func (rt *Raytracer) Config() RenderConfig {
	return rt.config
}

// ImagePlaneCoord maps pixel coordinates to the image plane z = 0.
// Pixel (0, 0) is the top-left corner; y grows upwards on the plane.
func (rt *Raytracer) ImagePlaneCoord(u, v float64) core.Vec3 {
	s := rt.scene.Config.HalfExtent
	return core.NewVec3(
		s*(2*u/float64(rt.config.Width)-1),
		-s*(2*v/float64(rt.config.Height)-1),
		0,
	)
}

// Trace records how one primary ray was resolved
type Trace struct {
	ImagePoint       core.Vec3 // Where the ray crosses the image plane
	Candidates       int       // Primary candidate list length
	Hit              bool
	SphereID         int       // Arena handle of the nearest sphere, if Hit
	T                float64   // Ray parameter of the hit
	Point            core.Vec3 // Hit point
	InShadow         bool
	ShadowCandidates int // Shadow candidate spheres tested
	Color            core.Vec3
}

// ComputeColor returns the color of pixel (px, py)
func (rt *Raytracer) ComputeColor(px, py int) core.Vec3 {
	return rt.TracePixel(px, py).Color
}

// TracePixel resolves the primary ray through pixel (px, py)
func (rt *Raytracer) TracePixel(px, py int) Trace {
	q := rt.ImagePlaneCoord(float64(px), float64(py))
	return rt.TracePoint(q.X, q.Y)
}

// TracePoint resolves the primary ray through image-plane point (x, y, 0).
// Points outside the primary tree see only the background.
func (rt *Raytracer) TracePoint(x, y float64) Trace {
	q := core.NewVec3(x, y, 0)
	trace := Trace{ImagePoint: q, Color: rt.scene.Config.Background}

	candidates, err := rt.scene.Primary.Query(x, y)
	if err != nil {
		return trace
	}
	trace.Candidates = candidates.Len()

	ray := core.NewRay(rt.camera, q.Subtract(rt.camera))
	closest := 0.0
	for id := range candidates.All() {
		t, ok := rt.scene.Sphere(id).Intersect(ray)
		if ok && t > minHitDistance && (!trace.Hit || t < closest) {
			trace.Hit = true
			trace.SphereID = id
			closest = t
		}
	}
	if !trace.Hit {
		return trace
	}

	trace.T = closest
	trace.Point = ray.At(closest)
	trace.InShadow, trace.ShadowCandidates = rt.shadowTest(trace.Point)
	trace.Color = material.Shade(rt.scene.Sphere(trace.SphereID), trace.Point, rt.scene.Light, trace.InShadow)

	return trace
}

// InShadow reports whether any sphere lies between p and the light
func (rt *Raytracer) InShadow(p core.Vec3) bool {
	inShadow, _ := rt.shadowTest(p)
	return inShadow
}

// shadowTest looks up p's light-space cell and tests its candidates with a
// ray from the origin along the light against each sphere translated by -p.
// It stops at the first occluder and returns the number of spheres tested.
func (rt *Raytracer) shadowTest(p core.Vec3) (bool, int) {
	coords, err := rt.scene.Basis.Coordinates(p)
	if err != nil {
		return false, 0
	}

	shadowRay := core.Ray{Direction: rt.scene.Light}
	tested := 0
	for id := range rt.scene.Shadow.QueryClamped(coords.Y, coords.Z).All() {
		tested++
		if t, ok := rt.scene.Sphere(id).IntersectOffset(shadowRay, p); ok && t > 0 {
			return true, tested
		}
	}
	return false, tested
}

// vec3ToColor converts a Vec3 color to RGBA with clamping
func vec3ToColor(colorVec core.Vec3) color.RGBA {
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(255*colorVec.X + 0.5),
		G: uint8(255*colorVec.Y + 0.5),
		B: uint8(255*colorVec.Z + 0.5),
		A: 255,
	}
}

// RenderPass renders the full image with the tile worker pool
func (rt *Raytracer) RenderPass(ctx context.Context) (*image.RGBA, RenderStats, error) {
	startTime := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, rt.config.Width, rt.config.Height))
	tiles := NewTileGrid(rt.config.Width, rt.config.Height, rt.config.TileSize)

	pool := NewWorkerPool(rt, rt.config.NumWorkers)
	rt.logger.Printf("Rendering %dx%d in %d tiles with %d workers...\n",
		rt.config.Width, rt.config.Height, len(tiles), pool.NumWorkers())

	results, err := pool.Run(ctx, tiles, img)
	if err != nil {
		return nil, RenderStats{}, err
	}

	var stats RenderStats
	for _, result := range results {
		stats.Merge(result.Stats)
	}
	stats.Elapsed = time.Since(startTime)
	stats.AverageLuminance = CalculateAverageLuminance(img)

	rt.logger.Printf("Render completed in %v (%d hits, %d shadowed, %.2f primary tests/pixel, luminance %.3f)\n",
		stats.Elapsed, stats.Hits, stats.ShadowedPixels, stats.PrimaryTestsPerPixel(), stats.AverageLuminance)

	return img, stats, nil
}
