// Package overlay draws the guidance HUD on top of a frame: detection
// boxes, status bar, boresight, target sight and the bearing ruler.
package overlay

import (
	"fmt"
	"image"
	"math"
)

// Ruler geometry
const (
	RulerY      = 40 // baseline of the bearing ruler
	tickHeight  = 7
	labelOffset = 5
	markerDrop  = 12
	markerRise  = 2
	markerHalf  = 10
)

var rulerDegrees = []int{-30, -20, -10, 0, 10, 20, 30}

// Tick is one graduation of the bearing ruler.
type Tick struct {
	Degrees int
	Label   string
	X       int
}

// RulerTicks returns the ruler graduations for a width x height frame,
// left to right. Positions are the projection of each bearing onto a
// plane one frame-height away, shifted so that the ruler line sits at
// RulerY.
func RulerTicks(width, height int) []Tick {
	center := width / 2
	ticks := make([]Tick, 0, len(rulerDegrees))

	for _, deg := range rulerDegrees {
		t := Tick{Degrees: deg, X: center, Label: "0.0"}
		if deg != 0 {
			a := float64(abs(deg)) * math.Pi / 180
			off := int(float64(height)*math.Tan(a)) - int(RulerY*math.Tan(a))
			if deg < 0 {
				t.X = center - off
			} else {
				t.X = center + off
			}
			t.Label = fmt.Sprintf("%+d", deg)
		}
		ticks = append(ticks, t)
	}
	return ticks
}

// MarkerVisible reports whether x lies within the outermost ticks.
func MarkerVisible(ticks []Tick, x int) bool {
	if len(ticks) == 0 {
		return false
	}
	return ticks[0].X <= x && x <= ticks[len(ticks)-1].X
}

// SightBox returns the square of half-width half around p.
func SightBox(p image.Point, half int) image.Rectangle {
	return image.Rect(p.X-half, p.Y-half, p.X+half, p.Y+half)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
