// Package stats exports scene statistics as CSV.
package stats

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/df07/go-quadtree-raytracer/pkg/accel"
	"github.com/df07/go-quadtree-raytracer/pkg/geometry"
	"github.com/pkg/errors"
)

// CenterHeader is the header row of a sphere center export
var CenterHeader = []string{"x", "y", "z"}

// LeafHeader is the header row of a tree occupancy export
var LeafHeader = []string{"min_x", "min_y", "max_x", "max_y", "candidates"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCenters writes one x,y,z row per sphere center, in arena order
func WriteCenters(w io.Writer, spheres []*geometry.Sphere) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CenterHeader); err != nil {
		return err
	}
	for _, s := range spheres {
		row := []string{formatFloat(s.Center.X), formatFloat(s.Center.Y), formatFloat(s.Center.Z)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLeaves writes one row per tree leaf with its bounds and candidate count
func WriteLeaves(w io.Writer, tree *accel.Tree) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LeafHeader); err != nil {
		return err
	}
	for b, list := range tree.Leaves() {
		row := []string{
			formatFloat(b.MinX), formatFloat(b.MinY),
			formatFloat(b.MaxX), formatFloat(b.MaxY),
			strconv.Itoa(list.Len()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCenters writes the sphere center export to path
func SaveCenters(path string, spheres []*geometry.Sphere) error {
	return saveFile(path, func(w io.Writer) error { return WriteCenters(w, spheres) })
}

// SaveLeaves writes the tree occupancy export to path
func SaveLeaves(path string, tree *accel.Tree) error {
	return saveFile(path, func(w io.Writer) error { return WriteLeaves(w, tree) })
}

func saveFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create stats file")
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
