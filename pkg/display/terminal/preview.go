// Package terminal previews a rendered frame in the terminal using
// half-block characters, two image pixels per cell.
package terminal

import (
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"
)

// upperHalfBlock is drawn with the upper pixel as foreground and the lower as background
const upperHalfBlock = '▀'

// Preview draws images on a tcell screen
type Preview struct {
	screen tcell.Screen
}

// NewPreview creates a preview on an initialized screen
func NewPreview(screen tcell.Screen) *Preview {
	return &Preview{screen: screen}
}

// Fit returns the largest pixel size with img's aspect ratio that fits a
// cols x rows cell grid, where each cell holds two pixels stacked vertically.
func Fit(img image.Rectangle, cols, rows int) (int, int) {
	maxW, maxH := cols, 2*rows
	if img.Dx() == 0 || img.Dy() == 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}

	w := maxW
	h := w * img.Dy() / img.Dx()
	if h > maxH {
		h = maxH
		w = h * img.Dx() / img.Dy()
	}
	return max(w, 1), max(h, 1)
}

// Scale resamples img to w x h pixels
func Scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func toTcell(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Draw clears the screen and draws img scaled to fit it
func (p *Preview) Draw(img image.Image) {
	p.screen.Clear()

	cols, rows := p.screen.Size()
	w, h := Fit(img.Bounds(), cols, rows)
	if w == 0 {
		p.screen.Show()
		return
	}
	scaled := Scale(img, w, h)

	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			style := tcell.StyleDefault.Foreground(toTcell(scaled.RGBAAt(x, y)))
			if y+1 < h {
				style = style.Background(toTcell(scaled.RGBAAt(x, y+1)))
			}
			p.screen.SetContent(x, y/2, upperHalfBlock, nil, style)
		}
	}
	p.screen.Show()
}

// isQuit reports whether the key closes the preview
func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || (ev.Rune() == 'c' && ev.Modifiers()&tcell.ModCtrl != 0)
	}
	return false
}

// Run draws img and redraws it on resize until a quit key is pressed
func (p *Preview) Run(img image.Image) error {
	p.Draw(img)
	for {
		switch ev := p.screen.PollEvent().(type) {
		case *tcell.EventResize:
			p.screen.Sync()
			p.Draw(img)
		case *tcell.EventKey:
			if isQuit(ev) {
				return nil
			}
		case nil:
			// Screen finalized
			return nil
		}
	}
}

// Show opens the terminal, previews img and restores the terminal on exit
func Show(img image.Image) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	return NewPreview(screen).Run(img)
}
