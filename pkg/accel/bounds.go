package accel

import "fmt"

// Bounds is an axis-aligned rectangle in the tree's 2D domain
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBounds creates bounds from min and max corners
func NewBounds(minX, minY, maxX, maxY float64) Bounds {
	return Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Square returns the bounds [-halfExtent, halfExtent]²
func Square(halfExtent float64) Bounds {
	return Bounds{MinX: -halfExtent, MinY: -halfExtent, MaxX: halfExtent, MaxY: halfExtent}
}

// Mid returns the arithmetic midpoint on each axis
func (b Bounds) Mid() (float64, float64) {
	return 0.5 * (b.MinX + b.MaxX), 0.5 * (b.MinY + b.MaxY)
}

// IsValid returns true if the bounds enclose a non-empty area
func (b Bounds) IsValid() bool {
	return b.MinX < b.MaxX && b.MinY < b.MaxY
}

// Contains reports whether (x, y) lies in the closed rectangle
func (b Bounds) Contains(x, y float64) bool {
	return b.MinX <= x && x <= b.MaxX && b.MinY <= y && y <= b.MaxY
}

// Clamp moves (x, y) to the nearest point of the closed rectangle
func (b Bounds) Clamp(x, y float64) (float64, float64) {
	return max(b.MinX, min(b.MaxX, x)), max(b.MinY, min(b.MaxY, y))
}

// Quadrants splits the bounds at the midpoint into ll, lr, ul, ur
func (b Bounds) Quadrants() [4]Bounds {
	midX, midY := b.Mid()
	return [4]Bounds{
		{MinX: b.MinX, MinY: b.MinY, MaxX: midX, MaxY: midY},
		{MinX: midX, MinY: b.MinY, MaxX: b.MaxX, MaxY: midY},
		{MinX: b.MinX, MinY: midY, MaxX: midX, MaxY: b.MaxY},
		{MinX: midX, MinY: midY, MaxX: b.MaxX, MaxY: b.MaxY},
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g,%g]x[%g,%g]", b.MinX, b.MaxX, b.MinY, b.MaxY)
}
