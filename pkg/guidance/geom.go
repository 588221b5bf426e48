package guidance

import (
	"image"
	"math"
)

// Box is an axis-aligned rectangle in pixel coordinates.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// BoxFromCenter builds a box from its center and size.
func BoxFromCenter(cx, cy, w, h float64) Box {
	return Box{
		Left:   cx - w/2,
		Top:    cy - h/2,
		Right:  cx + w/2,
		Bottom: cy + h/2,
	}
}

// Width returns the horizontal extent, never negative.
func (b Box) Width() float64 {
	return math.Max(0, b.Right-b.Left)
}

// Height returns the vertical extent, never negative.
func (b Box) Height() float64 {
	return math.Max(0, b.Bottom-b.Top)
}

// Area returns the area of the box
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// Center returns the midpoint of the box
func (b Box) Center() (x, y float64) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

// Intersection returns the overlapping area of two boxes.
func (b Box) Intersection(o Box) float64 {
	w := math.Min(b.Right, o.Right) - math.Max(b.Left, o.Left)
	h := math.Min(b.Bottom, o.Bottom) - math.Max(b.Top, o.Top)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU returns intersection over union. A zero union yields 0.
func (b Box) IoU(o Box) float64 {
	inter := b.Intersection(o)
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Clamp limits the box to [0,w]x[0,h].
func (b Box) Clamp(w, h float64) Box {
	return Box{
		Left:   clamp(b.Left, 0, w),
		Top:    clamp(b.Top, 0, h),
		Right:  clamp(b.Right, 0, w),
		Bottom: clamp(b.Bottom, 0, h),
	}
}

// Rect rounds the box to integer pixel coordinates for drawing.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.Left)), int(math.Round(b.Top)),
		int(math.Round(b.Right)), int(math.Round(b.Bottom)),
	)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
