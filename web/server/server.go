package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/df07/go-quadtree-raytracer/pkg/renderer"
	"github.com/df07/go-quadtree-raytracer/pkg/scene"
	"github.com/pkg/errors"
)

// Server handles web requests for the quadtree raytracer
type Server struct {
	port     int
	sceneDir string
	mux      *http.ServeMux
}

// NewServer creates a new web server. JSON scene files are looked up in sceneDir.
func NewServer(port int, sceneDir string) *Server {
	s := &Server{port: port, sceneDir: sceneDir, mux: http.NewServeMux()}

	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/render/stream", s.handleRenderStream)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	s.mux.HandleFunc("/api/stats", s.handleStats)

	return s
}

// Handler returns the HTTP handler serving every endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// RenderRequest represents the scene and image parameters shared by all render endpoints
type RenderRequest struct {
	Layout  string `json:"layout"`  // random, perlin, file or ply
	SceneID string `json:"scene"`   // Scene file ID, file and ply layouts only
	Spheres int    `json:"spheres"` // Number of generated spheres
	Depth   int    `json:"depth"`   // Quadtree depth
	Seed    int64  `json:"seed"`    // Generator seed
	Width   int    `json:"width"`   // Image width
	Height  int    `json:"height"`  // Image height
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScenes lists the built-in layouts and the scene files on disk
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.sceneDir)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(scenes)
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	defaults := scene.DefaultGeneratorConfig()
	req := &RenderRequest{
		Layout:  query.Get("layout"),
		SceneID: query.Get("scene"),
	}
	if req.Layout == "" && req.SceneID == "" {
		req.Layout = scene.LayoutRandom
	}

	var err error
	if req.Spheres, err = parseIntParam(query, "spheres", defaults.Count, 0, 100000); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(query, "depth", scene.DefaultConfig().TreeDepth, 0, 10); err != nil {
		return nil, err
	}
	if req.Width, err = parseIntParam(query, "width", 512, 16, 2048); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 512, 16, 2048); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", int(defaults.Seed), 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// resolveSceneFile maps a scene file ID to its discovery entry
func (s *Server) resolveSceneFile(id string) (scene.SceneInfo, error) {
	files, err := scene.ListSceneFiles(s.sceneDir)
	if err != nil {
		return scene.SceneInfo{}, err
	}
	for _, info := range files {
		if info.ID == id {
			return info, nil
		}
	}
	return scene.SceneInfo{}, errors.Errorf("unknown scene: %s", id)
}

// buildScene generates or loads the requested spheres and builds a sealed scene
func (s *Server) buildScene(req *RenderRequest, logger core.Logger) (*scene.Scene, error) {
	gen := scene.DefaultGeneratorConfig()
	gen.Count = req.Spheres
	gen.Seed = req.Seed

	path := ""
	if req.SceneID != "" {
		info, err := s.resolveSceneFile(req.SceneID)
		if err != nil {
			return nil, err
		}
		if req.Layout != "" && req.Layout != info.Layout {
			return nil, errors.Errorf("scene %s has layout %s, not %s", req.SceneID, info.Layout, req.Layout)
		}
		req.Layout, path = info.Layout, info.FilePath
	}

	specs, err := scene.Generate(req.Layout, gen, path)
	if err != nil {
		return nil, err
	}

	cfg := scene.DefaultConfig()
	cfg.TreeDepth = req.Depth

	logger.Printf("Building %s scene with %d spheres (tree depth %d)\n", req.Layout, len(specs), req.Depth)
	return scene.Build(cfg, specs)
}

// setupRaytracer parses the request and prepares a raytracer for it
func (s *Server) setupRaytracer(r *http.Request, logger core.Logger) (*renderer.Raytracer, *RenderRequest, error) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		return nil, nil, err
	}

	sc, err := s.buildScene(req, logger)
	if err != nil {
		return nil, nil, err
	}

	config := renderer.DefaultRenderConfig()
	config.Width, config.Height = req.Width, req.Height
	return renderer.NewRaytracer(sc, config, logger), req, nil
}

// writeJSONError writes an error body with the given status
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
