package server

import (
	"net/http"

	"github.com/df07/go-quadtree-raytracer/pkg/stats"
)

// handleStats exports scene statistics as CSV.
// kind=centers (default) lists sphere centers; kind=leaves lists the
// occupancy of the primary tree, or the shadow tree with tree=shadow.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	query := r.URL.Query()
	kind := query.Get("kind")
	if kind != "" && kind != "centers" && kind != "leaves" {
		s.writeJSONError(w, http.StatusBadRequest, "kind must be centers or leaves")
		return
	}
	treeName := query.Get("tree")
	if treeName != "" && treeName != "primary" && treeName != "shadow" {
		s.writeJSONError(w, http.StatusBadRequest, "tree must be primary or shadow")
		return
	}

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	sc, err := s.buildScene(req, NewWebLogger(newRenderID(), nil))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	if kind == "leaves" {
		tree := sc.Primary
		if treeName == "shadow" {
			tree = sc.Shadow
		}
		err = stats.WriteLeaves(w, tree)
	} else {
		err = stats.WriteCenters(w, sc.Spheres)
	}
	if err != nil {
		NewWebLogger("stats", nil).Printf("Warning: stats export failed: %v\n", err)
	}
}
