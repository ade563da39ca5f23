package renderer

import (
	"image"
	"time"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Total number of pixels rendered
	PrimaryTests   int           // Sphere intersection tests for primary rays
	Hits           int           // Pixels whose primary ray hit a sphere
	ShadowTests    int           // Sphere intersection tests for shadow rays
	ShadowedPixels int           // Hit pixels found to be in shadow
	MaxCandidates  int           // Longest primary candidate list seen
	Elapsed        time.Duration // Wall time of the pass

	// Mean luminance of the finished image, set once the pass completes
	AverageLuminance float64
}

// Merge adds the counters of another stats block, typically one tile's
func (s *RenderStats) Merge(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.PrimaryTests += other.PrimaryTests
	s.Hits += other.Hits
	s.ShadowTests += other.ShadowTests
	s.ShadowedPixels += other.ShadowedPixels
	s.MaxCandidates = max(s.MaxCandidates, other.MaxCandidates)
}

// PrimaryTestsPerPixel returns the average primary candidate list length
func (s RenderStats) PrimaryTestsPerPixel() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.PrimaryTests) / float64(s.TotalPixels)
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of an image in [0, 1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			total += (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255
		}
	}
	return total / float64(pixels)
}
