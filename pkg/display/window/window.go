// Package window shows a rendered frame in a desktop window.
package window

import (
	"errors"
	"image"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"
)

// Config controls the window
type Config struct {
	Title string
	Scale int // Window pixels per image pixel
}

// DefaultConfig returns a window at the image's native size
func DefaultConfig() Config {
	return Config{Title: "Quadtree Raytracer", Scale: 1}
}

// Show opens a window displaying img and blocks until it is closed or
// Escape or Q is pressed.
func Show(img image.Image, config Config) error {
	frame := packedRGBA(img)
	w, h := frame.Bounds().Dx(), frame.Bounds().Dy()

	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(w*max(config.Scale, 1), h*max(config.Scale, 1))
	ebiten.SetTPS(30)

	err := ebiten.RunGame(&viewer{img: frame})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// packedRGBA returns img as an RGBA whose Pix holds exactly its pixels
func packedRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// viewer is the ebiten game showing a single still frame
type viewer struct {
	img   *image.RGBA
	frame *ebiten.Image
}

func (v *viewer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	if v.frame == nil {
		v.frame = ebiten.NewImage(v.img.Rect.Dx(), v.img.Rect.Dy())
		v.frame.WritePixels(v.img.Pix)
	}
	screen.DrawImage(v.frame, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.img.Rect.Dx(), v.img.Rect.Dy()
}
