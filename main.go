package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-quadtree-raytracer/pkg/accel"
	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/df07/go-quadtree-raytracer/pkg/display/terminal"
	"github.com/df07/go-quadtree-raytracer/pkg/display/window"
	"github.com/df07/go-quadtree-raytracer/pkg/renderer"
	"github.com/df07/go-quadtree-raytracer/pkg/scene"
	"github.com/df07/go-quadtree-raytracer/pkg/stats"
	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// Display modes
const (
	DisplayNone     = "none"
	DisplayWindow   = "window"
	DisplayTerminal = "terminal"
)

// Config holds the command line options
type Config struct {
	Spheres     int
	Depth       int
	Seed        int64
	Layout      string
	ScenePath   string
	Width       int
	Height      int
	Workers     int
	Output      string
	Stats       string
	Leaves      string
	Display     string
	Interactive bool
	Help        bool
}

// registerFlags binds every option to cfg
func registerFlags(fs *flag.FlagSet, cfg *Config) {
	gen := scene.DefaultGeneratorConfig()
	render := renderer.DefaultRenderConfig()

	fs.IntVar(&cfg.Spheres, "spheres", gen.Count, "Number of generated spheres")
	fs.IntVar(&cfg.Depth, "depth", scene.DefaultConfig().TreeDepth, "Quadtree depth (0-"+strconv.Itoa(accel.MaxDepth)+")")
	fs.Int64Var(&cfg.Seed, "seed", gen.Seed, "Random seed for generated layouts")
	fs.StringVar(&cfg.Layout, "layout", scene.LayoutRandom, "Sphere layout: 'random', 'perlin', 'file' or 'ply'")
	fs.StringVar(&cfg.ScenePath, "scene", "", "JSON scene file or PLY point cloud (implies -layout file or ply)")
	fs.IntVar(&cfg.Width, "width", render.Width, "Image width")
	fs.IntVar(&cfg.Height, "height", render.Height, "Image height")
	fs.IntVar(&cfg.Workers, "workers", render.NumWorkers, "Number of parallel workers (0 = auto-detect CPU count)")
	fs.StringVar(&cfg.Output, "output", "", "PNG output path (default output/<layout>/render_<timestamp>.png)")
	fs.StringVar(&cfg.Stats, "stats", "", "Write sphere centers as CSV to this path")
	fs.StringVar(&cfg.Leaves, "leaves", "", "Write primary tree leaf occupancy as CSV to this path")
	fs.StringVar(&cfg.Display, "display", DisplayNone, "Show the result: 'none', 'window' or 'terminal'")
	fs.BoolVar(&cfg.Interactive, "interactive", false, "Prompt for sphere count and tree depth")
	fs.BoolVar(&cfg.Help, "help", false, "Show help information")
}

// parseFlags parses the command line into a Config
func parseFlags(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	registerFlags(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Help {
		return cfg, nil
	}

	if cfg.ScenePath != "" && !isFlagSet(fs, "layout") {
		cfg.Layout = scene.LayoutFile
		if strings.EqualFold(filepath.Ext(cfg.ScenePath), ".ply") {
			cfg.Layout = scene.LayoutPLY
		}
	}
	return cfg, cfg.validate()
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// validate checks option ranges and combinations
func (c Config) validate() error {
	switch {
	case c.Spheres < 0:
		return errors.Errorf("spheres must be non-negative, got %d", c.Spheres)
	case c.Depth < 0 || c.Depth > accel.MaxDepth:
		return errors.Errorf("depth must be between 0 and %d, got %d", accel.MaxDepth, c.Depth)
	case c.Width <= 0 || c.Height <= 0:
		return errors.Errorf("image size must be positive, got %dx%d", c.Width, c.Height)
	case (c.Layout == scene.LayoutFile || c.Layout == scene.LayoutPLY) && c.ScenePath == "":
		return errors.Errorf("%s layout needs -scene", c.Layout)
	}

	switch c.Display {
	case DisplayNone, DisplayWindow, DisplayTerminal:
	default:
		return errors.Errorf("unknown display %q", c.Display)
	}
	return nil
}

// promptInt asks a question until the answer is a single integer in
// [min, max]. An empty answer keeps the default.
func promptInt(in *bufio.Reader, out io.Writer, question string, def, min, max int) (int, error) {
	for {
		fmt.Fprintf(out, "%s [%d]: ", question, def)
		line, err := in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return 0, errors.Wrap(err, "read answer")
		}

		tokens, splitErr := shlex.Split(line)
		switch {
		case splitErr != nil:
			fmt.Fprintf(out, "Could not parse answer: %v\n", splitErr)
		case len(tokens) == 0:
			return def, nil
		case len(tokens) > 1:
			fmt.Fprintf(out, "Please enter a single number\n")
		default:
			n, convErr := strconv.Atoi(tokens[0])
			if convErr == nil && n >= min && n <= max {
				return n, nil
			}
			fmt.Fprintf(out, "Please enter a number between %d and %d\n", min, max)
		}

		if err == io.EOF {
			return 0, errors.New("no valid answer before end of input")
		}
	}
}

// runInteractive prompts for the sphere count and tree depth
func runInteractive(cfg *Config, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	if cfg.Layout == scene.LayoutRandom || cfg.Layout == scene.LayoutPerlin {
		spheres, err := promptInt(reader, out, "Enter number of spheres", cfg.Spheres, 0, 1000000)
		if err != nil {
			return err
		}
		cfg.Spheres = spheres
	}

	depth, err := promptInt(reader, out, "Enter depth of quadtree", cfg.Depth, 0, accel.MaxDepth)
	if err != nil {
		return err
	}
	cfg.Depth = depth
	return nil
}

// createScene generates or loads the spheres and builds both trees
func createScene(cfg Config, logger core.Logger) (*scene.Scene, error) {
	gen := scene.DefaultGeneratorConfig()
	gen.Count = cfg.Spheres
	gen.Seed = cfg.Seed

	specs, err := scene.Generate(cfg.Layout, gen, cfg.ScenePath)
	if err != nil {
		return nil, errors.Wrap(err, "generate spheres")
	}

	sceneConfig := scene.DefaultConfig()
	sceneConfig.TreeDepth = cfg.Depth

	startTime := time.Now()
	sc, err := scene.Build(sceneConfig, specs)
	if err != nil {
		return nil, errors.Wrap(err, "build scene")
	}

	primary := sc.Primary.Stats()
	logger.Printf("Built %s scene: %d spheres, depth %d, %d leaves (%.2f leaves per sphere) in %v\n",
		cfg.Layout, len(sc.Spheres), cfg.Depth, primary.Leaves, primary.Duplication(len(sc.Spheres)), time.Since(startTime))

	return sc, nil
}

// outputPath returns the PNG path, defaulting to a timestamped file per layout
func outputPath(cfg Config, now time.Time) string {
	if cfg.Output != "" {
		return cfg.Output
	}
	return filepath.Join("output", cfg.Layout, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

// savePNG writes img to path, creating parent directories
func savePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return errors.Wrap(err, "encode PNG")
	}
	return errors.Wrap(file.Close(), "close output file")
}

// run builds the scene, renders it and writes the requested outputs
func run(ctx context.Context, cfg Config, logger core.Logger) (*image.RGBA, error) {
	sc, err := createScene(cfg, logger)
	if err != nil {
		return nil, err
	}

	renderConfig := renderer.DefaultRenderConfig()
	renderConfig.Width, renderConfig.Height = cfg.Width, cfg.Height
	renderConfig.NumWorkers = cfg.Workers

	raytracer := renderer.NewRaytracer(sc, renderConfig, logger)
	img, renderStats, err := raytracer.RenderPass(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "render")
	}
	logger.Printf("Pixels hit: %d of %d, shadowed: %d, shadow tests: %d\n",
		renderStats.Hits, renderStats.TotalPixels, renderStats.ShadowedPixels, renderStats.ShadowTests)

	filename := outputPath(cfg, time.Now())
	if err := savePNG(filename, img); err != nil {
		return nil, err
	}
	logger.Printf("Render saved as %s\n", filename)

	if cfg.Stats != "" {
		if err := stats.SaveCenters(cfg.Stats, sc.Spheres); err != nil {
			return nil, err
		}
		logger.Printf("Sphere centers saved as %s\n", cfg.Stats)
	}
	if cfg.Leaves != "" {
		if err := stats.SaveLeaves(cfg.Leaves, sc.Primary); err != nil {
			return nil, err
		}
		logger.Printf("Leaf occupancy saved as %s\n", cfg.Leaves)
	}

	return img, nil
}

// show displays the rendered image in the requested mode
func show(mode string, img image.Image) error {
	switch mode {
	case DisplayWindow:
		return window.Show(img, window.DefaultConfig())
	case DisplayTerminal:
		return terminal.Show(img)
	}
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Quadtree Raytracer")
	fmt.Fprintln(out, "Usage: raytracer [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(out)
	registerFlags(fs, &Config{})
	fs.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Layouts:")
	for _, info := range scene.BuiltinScenes() {
		fmt.Fprintf(out, "  %-7s - %s\n", info.ID, info.Description)
	}
	fmt.Fprintf(out, "  %-7s - Spheres from a JSON scene file (-scene path)\n", scene.LayoutFile)
	fmt.Fprintf(out, "  %-7s - One sphere per vertex of a PLY point cloud (-scene path)\n", scene.LayoutPLY)
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if cfg.Help {
		printHelp(os.Stdout)
		return
	}

	if cfg.Interactive {
		if err := runInteractive(&cfg, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	logger := renderer.NewDefaultLogger()
	logger.Printf("Starting Quadtree Raytracer...\n")

	img, err := run(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := show(cfg.Display, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error: display: %v\n", err)
		os.Exit(1)
	}
}
