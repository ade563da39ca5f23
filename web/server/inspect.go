package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/df07/go-quadtree-raytracer/pkg/renderer"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Pixel            [2]int                 `json:"pixel"`
	ImagePoint       [2]float64             `json:"imagePoint"`
	Leaf             [4]float64             `json:"leaf"` // minX, minY, maxX, maxY of the primary leaf
	Candidates       int                    `json:"candidates"`
	Hit              bool                   `json:"hit"`
	Distance         float64                `json:"distance"`
	Point            [3]float64             `json:"point"`
	InShadow         bool                   `json:"inShadow"`
	ShadowCandidates int                    `json:"shadowCandidates"`
	Color            string                 `json:"color"`
	Sphere           map[string]interface{} `json:"sphere,omitempty"`
}

func toArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func toHex(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255+0.5), int(c.Y*255+0.5), int(c.Z*255+0.5))
}

// inspectPixel traces one pixel and describes how it was resolved
func inspectPixel(rt *renderer.Raytracer, pixelX, pixelY int) InspectResponse {
	trace := rt.TracePixel(pixelX, pixelY)
	sc := rt.Scene()

	response := InspectResponse{
		Pixel:            [2]int{pixelX, pixelY},
		ImagePoint:       [2]float64{trace.ImagePoint.X, trace.ImagePoint.Y},
		Candidates:       trace.Candidates,
		Hit:              trace.Hit,
		InShadow:         trace.InShadow,
		ShadowCandidates: trace.ShadowCandidates,
		Color:            toHex(trace.Color),
	}

	if leaf, err := sc.Primary.LeafBounds(trace.ImagePoint.X, trace.ImagePoint.Y); err == nil {
		response.Leaf = [4]float64{leaf.MinX, leaf.MinY, leaf.MaxX, leaf.MaxY}
	}

	if trace.Hit {
		s := sc.Sphere(trace.SphereID)
		response.Distance = trace.T
		response.Point = toArray(trace.Point)
		response.Sphere = map[string]interface{}{
			"id":           trace.SphereID,
			"center":       toArray(s.Center),
			"shadowCenter": toArray(s.ShadowCenter),
			"radius":       s.Radius,
			"color":        toHex(s.Color),
		}
	}

	return response
}

// handleInspect handles pixel inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	raytracer, req, err := s.setupRaytracer(r, NewWebLogger(newRenderID(), nil))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		s.writeJSONError(w, http.StatusBadRequest, "x and y must be integer pixel coordinates")
		return
	}
	if x < 0 || x >= req.Width || y < 0 || y >= req.Height {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("pixel (%d,%d) outside %dx%d image", x, y, req.Width, req.Height))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inspectPixel(raytracer, x, y))
}
