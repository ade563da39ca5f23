package renderer

import (
	"image"
)

// TileRenderer renders rectangular regions of the image with a shared raytracer
type TileRenderer struct {
	raytracer *Raytracer
}

// NewTileRenderer creates a new tile renderer
func NewTileRenderer(raytracer *Raytracer) *TileRenderer {
	return &TileRenderer{raytracer: raytracer}
}

// RenderTileBounds renders the pixels inside bounds into img.
// Tiles have non-overlapping bounds, so concurrent calls never share pixels.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, img *image.RGBA) RenderStats {
	stats := RenderStats{TotalPixels: bounds.Dx() * bounds.Dy()}

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			trace := tr.raytracer.TracePixel(i, j)
			img.SetRGBA(i, j, vec3ToColor(trace.Color))
			tr.updateStats(&stats, trace)
		}
	}

	return stats
}

// updateStats updates the render statistics with data from a single pixel
func (tr *TileRenderer) updateStats(stats *RenderStats, trace Trace) {
	stats.PrimaryTests += trace.Candidates
	stats.ShadowTests += trace.ShadowCandidates
	stats.MaxCandidates = max(stats.MaxCandidates, trace.Candidates)
	if trace.Hit {
		stats.Hits++
	}
	if trace.InShadow {
		stats.ShadowedPixels++
	}
}
