package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/teslashibe/go-sargan/pkg/guidance"
	"gocv.io/x/gocv"
)

// Colors
var (
	Red    = color.RGBA{255, 0, 0, 0}
	White  = color.RGBA{255, 255, 255, 0}
	Blue   = color.RGBA{0, 0, 255, 0}
	Green  = color.RGBA{0, 255, 0, 0}
	Yellow = color.RGBA{255, 255, 0, 0}
	Black  = color.RGBA{0, 0, 0, 0}
)

const (
	barHeight = 30
	barAlpha  = 0.5
	lineWidth = 2
)

// Info carries what the HUD needs beyond the pipeline result.
type Info struct {
	// Status is printed in the bottom bar.
	Status string

	// SightHalfWidth sizes the boresight box; the target sight is half of it.
	SightHalfWidth int

	// Labels draws class and confidence above each box.
	Labels bool
}

// Draw renders the HUD for res onto img in place.
func Draw(img *gocv.Mat, res guidance.Result, info Info) {
	if img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()

	for _, d := range res.Detections {
		drawDetection(img, d, info.Labels)
	}

	drawBar(img, w, h)

	if res.Command.Target != nil {
		drawTargetSight(img, *res.Command.Target, info.SightHalfWidth)
	}

	gocv.PutText(img, info.Status, image.Pt(10, h-10), gocv.FontHersheyPlain, 1, Blue, 1)

	drawBoresight(img, w, h, info.SightHalfWidth, res.Command.HasTarget() && res.Command.Direction == guidance.Hold)
	drawRuler(img, w, h, res.Command.Target)
}

func drawDetection(img *gocv.Mat, d guidance.Detection, labels bool) {
	r := d.Box.Rect()
	gocv.Rectangle(img, r, Green, lineWidth)
	if !labels {
		return
	}

	label := fmt.Sprintf("%s:%.2f", d.Label, d.Confidence)
	size := gocv.GetTextSize(label, gocv.FontHersheySimplex, 0.7, 1)
	top := r.Min.Y
	if top < size.Y {
		top = size.Y
	}
	bg := image.Rect(r.Min.X, top-size.Y, r.Min.X+size.X, top+4)
	gocv.Rectangle(img, bg, Black, -1)
	gocv.PutText(img, label, image.Pt(r.Min.X, top), gocv.FontHersheySimplex, 0.7, Yellow, 1)
}

// drawBar blends a white strip into the bottom of the frame.
func drawBar(img *gocv.Mat, w, h int) {
	layer := img.Clone()
	defer layer.Close()

	gocv.Rectangle(&layer, image.Rect(0, h-barHeight, w, h), White, -1)
	gocv.AddWeighted(layer, barAlpha, *img, 1-barAlpha, 0, img)
}

func drawTargetSight(img *gocv.Mat, c image.Point, sight int) {
	gocv.Rectangle(img, SightBox(c, sight/2), Red, lineWidth)
	drawCross(img, c, sight/6, Red)
}

func drawBoresight(img *gocv.Mat, w, h, sight int, hold bool) {
	c := image.Pt(w/2, h/2)
	col := White
	if hold {
		col = Red
	}
	gocv.Rectangle(img, SightBox(c, sight), col, lineWidth)
	drawCross(img, c, sight/4, col)
}

func drawCross(img *gocv.Mat, c image.Point, arm int, col color.RGBA) {
	gocv.Line(img, image.Pt(c.X, c.Y-arm), image.Pt(c.X, c.Y+arm), col, lineWidth)
	gocv.Line(img, image.Pt(c.X-arm, c.Y), image.Pt(c.X+arm, c.Y), col, lineWidth)
}

func drawRuler(img *gocv.Mat, w, h int, target *image.Point) {
	ticks := RulerTicks(w, h)
	first, last := ticks[0], ticks[len(ticks)-1]

	gocv.Line(img, image.Pt(first.X, RulerY), image.Pt(last.X, RulerY), White, lineWidth)

	for _, t := range ticks {
		bottom := RulerY
		if t.Degrees == 0 {
			bottom = RulerY + tickHeight
		}
		gocv.Line(img, image.Pt(t.X, RulerY-tickHeight), image.Pt(t.X, bottom), White, lineWidth)

		size := gocv.GetTextSize(t.Label, gocv.FontHersheyPlain, 1, 1)
		org := image.Pt(t.X-size.X/2, RulerY-size.Y-labelOffset)
		gocv.PutText(img, t.Label, org, gocv.FontHersheyPlain, 1, White, 1)
	}

	if target == nil || !MarkerVisible(ticks, target.X) {
		return
	}
	tip := image.Pt(target.X, RulerY+markerRise)
	gocv.Line(img, image.Pt(target.X-markerHalf, RulerY+markerDrop), tip, Red, lineWidth)
	gocv.Line(img, image.Pt(target.X+markerHalf, RulerY+markerDrop), tip, Red, lineWidth)
}
