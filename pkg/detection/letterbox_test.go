package detection

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/teslashibe/go-sargan/pkg/guidance"
	"gocv.io/x/gocv"
)

func TestLetterboxMat(t *testing.T) {
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	lb, err := LetterboxMat(src, &dst, 640)
	if err != nil {
		t.Fatalf("LetterboxMat: %v", err)
	}
	if dst.Cols() != 640 || dst.Rows() != 640 {
		t.Fatalf("dst = %dx%d, want 640x640", dst.Cols(), dst.Rows())
	}
	if lb.Scale != 1 || lb.PadX != 0 || lb.PadY != 80 {
		t.Errorf("letterbox = %+v", lb)
	}

	tests := []struct {
		name     string
		row, col int
		want     []uint8
	}{
		{"top border", 10, 320, []uint8{PadValue, PadValue, PadValue}},
		{"bottom border", 630, 320, []uint8{PadValue, PadValue, PadValue}},
		{"content top", 80, 0, []uint8{10, 20, 30}},
		{"content bottom", 559, 639, []uint8{10, 20, 30}},
	}
	for _, tt := range tests {
		got := dst.GetVecbAt(tt.row, tt.col)
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("%s: pixel(%d,%d) = %v, want %v", tt.name, tt.row, tt.col, got, tt.want)
				break
			}
		}
	}
}

func TestLetterboxMatEmpty(t *testing.T) {
	src := gocv.NewMat()
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	if _, err := LetterboxMat(src, &dst, 640); !errors.Is(err, guidance.ErrInvalidFrame) {
		t.Errorf("error = %v, want ErrInvalidFrame", err)
	}
}

func TestLetterboxImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill := color.RGBA{200, 100, 50, 255}
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}

	canvas, lb, err := LetterboxImage(src, 64)
	if err != nil {
		t.Fatalf("LetterboxImage: %v", err)
	}
	if canvas.Bounds() != image.Rect(0, 0, 64, 64) {
		t.Fatalf("bounds = %v", canvas.Bounds())
	}
	if lb.Content() != image.Rect(0, 16, 64, 48) {
		t.Errorf("content = %v", lb.Content())
	}

	if got := canvas.RGBAAt(32, 2); got != padColor {
		t.Errorf("border pixel = %v, want %v", got, padColor)
	}
	// interpolation may round a channel by one
	got := canvas.RGBAAt(32, 32)
	if absDiff(got.R, fill.R) > 1 || absDiff(got.G, fill.G) > 1 || absDiff(got.B, fill.B) > 1 {
		t.Errorf("content pixel = %v, want %v", got, fill)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestFillCHW(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{0, 51, 255, 255})

	dst := make([]float32, 6)
	fillCHW(dst, img)

	want := []float32{1, 0, 0, 0.2, 0, 1}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}
