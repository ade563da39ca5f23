package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/df07/go-quadtree-raytracer/pkg/renderer"
)

// Stats represents render statistics
type Stats struct {
	TotalPixels          int     `json:"totalPixels"`
	Hits                 int     `json:"hits"`
	ShadowedPixels       int     `json:"shadowedPixels"`
	PrimaryTests         int     `json:"primaryTests"`
	ShadowTests          int     `json:"shadowTests"`
	PrimaryTestsPerPixel float64 `json:"primaryTestsPerPixel"`
	MaxCandidates        int     `json:"maxCandidates"`
	AverageLuminance     float64 `json:"averageLuminance"`
	ElapsedMs            int64   `json:"elapsedMs"`
}

// CompleteEvent is the final event of a streamed render
type CompleteEvent struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
}

func newStats(stats renderer.RenderStats) Stats {
	return Stats{
		TotalPixels:          stats.TotalPixels,
		Hits:                 stats.Hits,
		ShadowedPixels:       stats.ShadowedPixels,
		PrimaryTests:         stats.PrimaryTests,
		ShadowTests:          stats.ShadowTests,
		PrimaryTestsPerPixel: stats.PrimaryTestsPerPixel(),
		MaxCandidates:        stats.MaxCandidates,
		AverageLuminance:     stats.AverageLuminance,
		ElapsedMs:            stats.Elapsed.Milliseconds(),
	}
}

func newRenderID() string {
	return fmt.Sprintf("render-%d", time.Now().UnixNano())
}

// handleRender renders the requested scene and returns it as a PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	logger := NewWebLogger(newRenderID(), nil)

	raytracer, _, err := s.setupRaytracer(r, logger)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, stats, err := raytracer.RenderPass(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Hits", strconv.Itoa(stats.Hits))
	w.Header().Set("X-Render-Luminance", strconv.FormatFloat(stats.AverageLuminance, 'f', 4, 64))
	w.Header().Set("X-Render-Elapsed-Ms", strconv.FormatInt(stats.Elapsed.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// renderOutcome carries the result of a background render
type renderOutcome struct {
	img   *image.RGBA
	stats renderer.RenderStats
	err   error
}

// handleRenderStream renders in the background and streams console messages
// via SSE, finishing with a complete event that carries the PNG.
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	consoleChan := make(chan ConsoleMessage, 100)
	logger := NewWebLogger(newRenderID(), consoleChan)

	raytracer, _, err := s.setupRaytracer(r, logger)
	if err != nil {
		s.sendSSEEvent(w, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	done := make(chan renderOutcome, 1)
	go func() {
		img, stats, err := raytracer.RenderPass(ctx)
		done <- renderOutcome{img: img, stats: stats, err: err}
	}()

	for {
		select {
		case msg := <-consoleChan:
			s.sendConsoleEvent(w, msg)

		case outcome := <-done:
			// Flush messages logged before the render finished
			for len(consoleChan) > 0 {
				s.sendConsoleEvent(w, <-consoleChan)
			}
			if outcome.err != nil {
				s.sendSSEEvent(w, "error", fmt.Sprintf("Render error: %v", outcome.err))
				return
			}
			s.sendComplete(w, outcome)
			return

		case <-ctx.Done():
			return
		}
	}
}

// sendComplete encodes the final image and statistics
func (s *Server) sendComplete(w http.ResponseWriter, outcome renderOutcome) {
	imageData, err := imageToBase64PNG(outcome.img)
	if err != nil {
		s.sendSSEEvent(w, "error", fmt.Sprintf("failed to encode image: %v", err))
		return
	}

	data, err := json.Marshal(CompleteEvent{ImageData: imageData, Stats: newStats(outcome.stats)})
	if err != nil {
		s.sendSSEEvent(w, "error", err.Error())
		return
	}
	s.sendSSEEvent(w, "complete", string(data))
}

// sendConsoleEvent forwards one console message
func (s *Server) sendConsoleEvent(w http.ResponseWriter, msg ConsoleMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.sendSSEEvent(w, "console", string(data))
}

// setSSEHeaders sets the standard SSE headers
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
