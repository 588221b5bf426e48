package detection

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
	"github.com/teslashibe/go-sargan/pkg/guidance"
	"gocv.io/x/gocv"
)

// PadValue is the gray level of letterbox borders.
const PadValue = 114

var padColor = color.RGBA{PadValue, PadValue, PadValue, 255}

// LetterboxMat scales src into a size x size canvas in dst, keeping its
// aspect ratio and filling the borders with PadValue.
func LetterboxMat(src gocv.Mat, dst *gocv.Mat, size int) (guidance.Letterbox, error) {
	lb, err := guidance.NewLetterbox(src.Cols(), src.Rows(), size)
	if err != nil {
		return guidance.Letterbox{}, err
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, lb.Resized(), 0, 0, gocv.InterpolationLinear)

	c := lb.Content()
	gocv.CopyMakeBorder(resized, dst,
		c.Min.Y, size-c.Max.Y,
		c.Min.X, size-c.Max.X,
		gocv.BorderConstant, padColor)

	return lb, nil
}

// LetterboxImage is the pure-Go counterpart of LetterboxMat.
func LetterboxImage(src image.Image, size int) (*image.RGBA, guidance.Letterbox, error) {
	b := src.Bounds()
	lb, err := guidance.NewLetterbox(b.Dx(), b.Dy(), size)
	if err != nil {
		return nil, guidance.Letterbox{}, err
	}

	r := lb.Resized()
	scaled := resize.Resize(uint(r.X), uint(r.Y), src, resize.Bilinear)

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: padColor}, image.Point{}, draw.Src)
	draw.Draw(canvas, lb.Content(), scaled, scaled.Bounds().Min, draw.Src)

	return canvas, lb, nil
}

// fillCHW writes img into dst as planar RGB scaled to [0,1].
// dst must hold 3*w*h values.
func fillCHW(dst []float32, img *image.RGBA) {
	b := img.Bounds()
	plane := b.Dx() * b.Dy()
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			dst[idx] = float32(img.Pix[i]) / 255.0
			dst[idx+plane] = float32(img.Pix[i+1]) / 255.0
			dst[idx+2*plane] = float32(img.Pix[i+2]) / 255.0
			idx++
		}
	}
}
