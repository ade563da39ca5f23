package terminal

import (
	"image"
	"image/color"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	screen.SetSize(cols, rows)
	t.Cleanup(screen.Fini)
	return screen
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		img        image.Rectangle
		cols, rows int
		w, h       int
	}{
		{"square into wide terminal", image.Rect(0, 0, 512, 512), 80, 24, 48, 48},
		{"square into tall terminal", image.Rect(0, 0, 512, 512), 20, 40, 20, 20},
		{"wide image", image.Rect(0, 0, 200, 100), 40, 40, 40, 20},
		{"empty image", image.Rect(0, 0, 0, 10), 40, 40, 0, 0},
		{"empty screen", image.Rect(0, 0, 10, 10), 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(tt.img, tt.cols, tt.rows)
			if w != tt.w || h != tt.h {
				t.Errorf("Expected %dx%d, got %dx%d", tt.w, tt.h, w, h)
			}
		})
	}
}

func TestScale(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	scaled := Scale(solid(64, 64, red), 8, 4)

	if scaled.Bounds().Dx() != 8 || scaled.Bounds().Dy() != 4 {
		t.Fatalf("Unexpected size %v", scaled.Bounds())
	}
	if got := scaled.RGBAAt(3, 2); got != red {
		t.Errorf("Expected solid red after scaling, got %v", got)
	}
}

func TestPreview_DrawHalfBlocks(t *testing.T) {
	screen := newScreen(t, 10, 5)

	// Top half red, bottom half blue
	img := solid(10, 10, color.RGBA{255, 0, 0, 255})
	for y := 5; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
		}
	}

	NewPreview(screen).Draw(img)

	mainc, _, style, _ := screen.GetContent(0, 0)
	if mainc != upperHalfBlock {
		t.Fatalf("Expected half block, got %q", mainc)
	}
	fg, bg, _ := style.Decompose()
	if fg != tcell.NewRGBColor(255, 0, 0) || bg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("Top cell: expected red on red, got %v on %v", fg, bg)
	}

	_, _, style, _ = screen.GetContent(0, 4)
	fg, bg, _ = style.Decompose()
	if fg != tcell.NewRGBColor(0, 0, 255) || bg != tcell.NewRGBColor(0, 0, 255) {
		t.Errorf("Bottom cell: expected blue on blue, got %v on %v", fg, bg)
	}
}

func TestPreview_RunQuitsOnEscape(t *testing.T) {
	screen := newScreen(t, 10, 5)
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	if err := NewPreview(screen).Run(solid(4, 4, color.RGBA{0, 255, 0, 255})); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestIsQuit(t *testing.T) {
	tests := []struct {
		ev       *tcell.EventKey
		expected bool
	}{
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), true},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), false},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), false},
	}

	for _, tt := range tests {
		if got := isQuit(tt.ev); got != tt.expected {
			t.Errorf("isQuit(%v) = %v, expected %v", tt.ev.Name(), got, tt.expected)
		}
	}
}
