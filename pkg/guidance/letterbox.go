package guidance

import (
	"image"
	"math"
)

// Letterbox maps frame coordinates into a square network input that keeps
// the frame's aspect ratio, and back.
//
//	network = original*Scale + Pad
type Letterbox struct {
	Scale     float64 `json:"scale"`
	PadX      float64 `json:"pad_x"`
	PadY      float64 `json:"pad_y"`
	Size      int     `json:"size"`
	SrcWidth  int     `json:"src_width"`
	SrcHeight int     `json:"src_height"`
}

// NewLetterbox computes the transform for a width x height frame fitted
// into a size x size canvas.
func NewLetterbox(width, height, size int) (Letterbox, error) {
	if width <= 0 || height <= 0 || size <= 0 {
		return Letterbox{}, &FrameError{Width: width, Height: height}
	}

	t := float64(size)
	scale := math.Min(t/float64(width), t/float64(height))

	return Letterbox{
		Scale:     scale,
		PadX:      (t - float64(width)*scale) / 2,
		PadY:      (t - float64(height)*scale) / 2,
		Size:      size,
		SrcWidth:  width,
		SrcHeight: height,
	}, nil
}

// Resized returns the dimensions of the scaled frame inside the canvas.
func (l Letterbox) Resized() image.Point {
	w := int(math.Round(float64(l.SrcWidth) * l.Scale))
	h := int(math.Round(float64(l.SrcHeight) * l.Scale))
	if w > l.Size {
		w = l.Size
	}
	if h > l.Size {
		h = l.Size
	}
	return image.Pt(w, h)
}

// Content returns the canvas region covered by the scaled frame.
// An odd padding remainder goes to the right/bottom border, so the integer
// origin can sit up to half a canvas pixel before PadX/PadY. Invert keeps
// the exact float padding; the mismatch is at most 0.5/Scale frame pixels.
func (l Letterbox) Content() image.Rectangle {
	r := l.Resized()
	x0 := int(math.Round(l.PadX - 0.1))
	y0 := int(math.Round(l.PadY - 0.1))
	if x0+r.X > l.Size {
		x0 = l.Size - r.X
	}
	if y0+r.Y > l.Size {
		y0 = l.Size - r.Y
	}
	return image.Rect(x0, y0, x0+r.X, y0+r.Y)
}

// Forward maps a frame point into network-input space.
func (l Letterbox) Forward(x, y float64) (float64, float64) {
	return x*l.Scale + l.PadX, y*l.Scale + l.PadY
}

// Invert maps a network-input point back into frame space.
func (l Letterbox) Invert(x, y float64) (float64, float64) {
	return (x - l.PadX) / l.Scale, (y - l.PadY) / l.Scale
}

// InvertBox maps a network-input box back into frame space.
func (l Letterbox) InvertBox(b Box) Box {
	left, top := l.Invert(b.Left, b.Top)
	right, bottom := l.Invert(b.Right, b.Bottom)
	return Box{Left: left, Top: top, Right: right, Bottom: bottom}
}
