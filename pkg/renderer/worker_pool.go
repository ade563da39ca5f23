package renderer

import (
	"context"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile  *Tile
	Image *image.RGBA // Shared image; each task writes only its tile's pixels
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TileID int
	Stats  RenderStats
}

// WorkerPool renders tiles in parallel on a fixed number of goroutines
type WorkerPool struct {
	renderer   *TileRenderer
	numWorkers int
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(raytracer *Raytracer, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		renderer:   NewTileRenderer(raytracer),
		numWorkers: numWorkers,
	}
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// Run renders every tile into img and returns per-tile results indexed by
// tile ID. Cancelling ctx stops workers between tiles.
func (wp *WorkerPool) Run(ctx context.Context, tiles []*Tile, img *image.RGBA) ([]TileResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	taskQueue := make(chan TileTask)
	results := make([]TileResult, len(tiles))

	g.Go(func() error {
		defer close(taskQueue)
		for _, tile := range tiles {
			select {
			case taskQueue <- TileTask{Tile: tile, Image: img}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range wp.numWorkers {
		g.Go(func() error {
			for task := range taskQueue {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[task.Tile.ID] = TileResult{
					TileID: task.Tile.ID,
					Stats:  wp.renderer.RenderTileBounds(task.Tile.Bounds, task.Image),
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
