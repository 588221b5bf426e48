package guidance

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func testCatalog(t *testing.T, labels ...string) *Catalog {
	t.Helper()
	c, err := NewCatalog(labels...)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func identity(t *testing.T) Letterbox {
	t.Helper()
	lb, err := NewLetterbox(640, 640, 640)
	if err != nil {
		t.Fatalf("NewLetterbox: %v", err)
	}
	return lb
}

func cand(cx, cy, w, h, conf float32, classID int) RawCandidate {
	return RawCandidate{CX: cx, CY: cy, W: w, H: h, Objectness: conf, BestScore: 1, Confidence: conf, ClassID: classID}
}

func TestBox_IoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want float64
	}{
		{name: "identical", a: Box{0, 0, 10, 10}, b: Box{0, 0, 10, 10}, want: 1},
		{name: "disjoint", a: Box{0, 0, 10, 10}, b: Box{20, 20, 30, 30}, want: 0},
		{name: "touching edge", a: Box{0, 0, 10, 10}, b: Box{10, 0, 20, 10}, want: 0},
		{name: "half overlap", a: Box{0, 0, 3, 1}, b: Box{1, 0, 4, 1}, want: 0.5},
		{name: "nested", a: Box{50, 50, 150, 150}, b: Box{50, 55, 150, 145}, want: 0.9},
		{name: "degenerate pair", a: Box{5, 5, 5, 5}, b: Box{5, 5, 5, 5}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.a.IoU(tc.b)
			if !approx(got, tc.want) {
				t.Errorf("IoU: got %.4f, want %.4f", got, tc.want)
			}
			if !approx(tc.b.IoU(tc.a), got) {
				t.Errorf("IoU not symmetric")
			}
		})
	}
}

func TestFilter_OverlappingPair(t *testing.T) {
	// IoU 0.9, confidences 0.9 and 0.6.
	cands := []RawCandidate{
		cand(100, 100, 100, 90, 0.6, 0),
		cand(100, 100, 100, 100, 0.9, 0),
	}

	dets := Filter(cands, identity(t), testCatalog(t, "person"), 0.5, 0.45)
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1", len(dets))
	}
	if !approx(dets[0].Confidence, float64(float32(0.9))) {
		t.Errorf("Confidence: got %.3f, want 0.9", dets[0].Confidence)
	}
	if dets[0].Label != "person" {
		t.Errorf("Label: got %q, want person", dets[0].Label)
	}
}

func TestFilter_ClassAgnostic(t *testing.T) {
	cands := []RawCandidate{
		cand(100, 100, 100, 100, 0.9, 0),
		cand(102, 100, 100, 100, 0.8, 1),
	}

	dets := Filter(cands, identity(t), testCatalog(t, "person", "car"), 0.5, 0.45)
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1 (suppression ignores class)", len(dets))
	}
	if dets[0].ClassID != 0 {
		t.Errorf("ClassID: got %d, want 0", dets[0].ClassID)
	}
}

func TestFilter_ScoreThreshold(t *testing.T) {
	cands := []RawCandidate{
		cand(100, 100, 10, 10, 0.49, 0),
		cand(300, 300, 10, 10, 0.5, 0),
	}

	dets := Filter(cands, identity(t), testCatalog(t, "person"), 0.5, 0.45)
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1", len(dets))
	}
	for _, d := range dets {
		if d.Confidence < 0.5 {
			t.Errorf("confidence %.3f below score threshold", d.Confidence)
		}
	}
}

func TestFilter_OrderAndTies(t *testing.T) {
	cands := []RawCandidate{
		cand(50, 50, 10, 10, 0.7, 0),
		cand(150, 50, 10, 10, 0.9, 1),
		cand(250, 50, 10, 10, 0.7, 2),
		cand(350, 50, 10, 10, 0.8, 3),
	}

	dets := Filter(cands, identity(t), testCatalog(t, "a", "b", "c", "d"), 0.5, 0.45)
	var got []string
	for _, d := range dets {
		got = append(got, d.Label)
	}
	want := []string{"b", "d", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order: got %v, want %v", got, want)
	}
}

func TestFilter_InvertAndClamp(t *testing.T) {
	lb, _ := NewLetterbox(1280, 720, 640)
	// Network box [-30, 270, 670, 370] spills past the canvas.
	cands := []RawCandidate{cand(320, 320, 700, 100, 0.9, 0)}

	dets := Filter(cands, lb, testCatalog(t, "person"), 0.5, 0.45)
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1", len(dets))
	}
	want := Box{Left: 0, Top: 260, Right: 1280, Bottom: 460}
	if dets[0].Box != want {
		t.Errorf("Box: got %+v, want %+v", dets[0].Box, want)
	}
}

func TestFilter_Empty(t *testing.T) {
	dets := Filter(nil, identity(t), testCatalog(t, "person"), 0.5, 0.45)
	if dets == nil || len(dets) != 0 {
		t.Errorf("got %v, want empty non-nil slice", dets)
	}
}

func TestSuppress_Threshold(t *testing.T) {
	boxes := []Box{{0, 0, 3, 1}, {1, 0, 4, 1}} // IoU exactly 0.5

	if got := Suppress(boxes, 0.5); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("IoU == threshold: got %v, want [0]", got)
	}
	if got := Suppress(boxes, 0.51); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("IoU < threshold: got %v, want [0 1]", got)
	}
	if got := Suppress(boxes, 0); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("zero threshold: got %v, want [0]", got)
	}
}

func TestSuppress_DegenerateBoxes(t *testing.T) {
	boxes := []Box{{5, 5, 5, 5}, {5, 5, 5, 5}, {0, 0, 10, 10}}
	if got := Suppress(boxes, 0.45); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("got %v, want all kept", got)
	}
}

func randomBoxes(r *rand.Rand, n int) []Box {
	boxes := make([]Box, n)
	for i := range boxes {
		x := r.Float64() * 500
		y := r.Float64() * 500
		boxes[i] = Box{Left: x, Top: y, Right: x + 5 + r.Float64()*120, Bottom: y + 5 + r.Float64()*120}
	}
	return boxes
}

func TestSuppress_MatchesExhaustive(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		boxes := randomBoxes(r, 1+r.Intn(200))
		for _, thr := range []float64{0.1, 0.45, 0.7} {
			got := Suppress(boxes, thr)
			want := suppressExhaustive(boxes, thr)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round %d thr %.2f: indexed %v, exhaustive %v", round, thr, got, want)
			}
		}
	}
}

func TestSuppress_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	const thr = 0.45
	for round := 0; round < 20; round++ {
		boxes := randomBoxes(r, 300)
		keep := Suppress(boxes, thr)

		kept := make([]Box, len(keep))
		for i, k := range keep {
			kept[i] = boxes[k]
		}

		for i := range kept {
			for j := i + 1; j < len(kept); j++ {
				if iou := kept[i].IoU(kept[j]); iou >= thr {
					t.Fatalf("kept boxes %d and %d overlap with IoU %.3f", i, j, iou)
				}
			}
		}

		again := Suppress(kept, thr)
		if len(again) != len(kept) {
			t.Fatalf("not idempotent: %d kept, re-run kept %d", len(kept), len(again))
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	lb := identity(t)
	catalog := testCatalog(t, "a", "b")

	var cands []RawCandidate
	for _, b := range randomBoxes(r, 100) {
		cx, cy := b.Center()
		cands = append(cands, cand(float32(cx), float32(cy), float32(b.Width()), float32(b.Height()),
			0.3+0.7*r.Float32(), r.Intn(2)))
	}
	first := Filter(cands, lb, catalog, 0.5, 0.45)

	var again []RawCandidate
	for _, d := range first {
		cx, cy := d.Box.Center()
		again = append(again, cand(float32(cx), float32(cy), float32(d.Box.Width()), float32(d.Box.Height()),
			float32(d.Confidence), d.ClassID))
	}
	second := Filter(again, lb, catalog, 0.5, 0.45)

	if len(first) != len(second) {
		t.Fatalf("re-filter changed size: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Label != second[i].Label || !approx(first[i].Confidence, second[i].Confidence) {
			t.Errorf("detection %d changed: %+v -> %+v", i, first[i], second[i])
		}
	}
}

func TestFilter_ClampBeforeSuppress(t *testing.T) {
	// Network IoU is 0.31, but both boxes clip to the left edge where they
	// overlap with IoU 0.83.
	cands := []RawCandidate{
		cand(-25, 50, 150, 100, 0.9, 0),
		cand(30, 50, 60, 100, 0.8, 1),
	}
	got := Filter(cands, identity(t), testCatalog(t, "a", "b"), 0.5, 0.45)
	if len(got) != 1 {
		t.Fatalf("got %d detections, want 1", len(got))
	}
	if want := (Box{0, 0, 50, 100}); got[0].Box != want {
		t.Errorf("Box: got %+v, want %+v", got[0].Box, want)
	}
}

func TestFilter_EdgeBoxesIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	lb := identity(t)
	catalog := testCatalog(t, "a", "b")
	const thr = 0.45

	for round := 0; round < 10; round++ {
		// Integer corners spilling up to 100 px past every edge.
		var cands []RawCandidate
		for i := 0; i < 150; i++ {
			left := float32(r.Intn(740) - 100)
			top := float32(r.Intn(740) - 100)
			w := float32(20 + r.Intn(180))
			h := float32(20 + r.Intn(180))
			cands = append(cands, cand(left+w/2, top+h/2, w, h, 0.5+0.5*r.Float32(), r.Intn(2)))
		}

		first := Filter(cands, lb, catalog, 0.5, thr)
		for i := range first {
			b := first[i].Box
			if b.Left < 0 || b.Top < 0 || b.Right > 640 || b.Bottom > 640 {
				t.Fatalf("detection %d not clamped: %+v", i, b)
			}
			for j := i + 1; j < len(first); j++ {
				if iou := b.IoU(first[j].Box); iou >= thr {
					t.Fatalf("detections %d and %d overlap with IoU %.3f", i, j, iou)
				}
			}
		}

		var again []RawCandidate
		for _, d := range first {
			cx, cy := d.Box.Center()
			again = append(again, cand(float32(cx), float32(cy), float32(d.Box.Width()), float32(d.Box.Height()),
				float32(d.Confidence), d.ClassID))
		}
		if second := Filter(again, lb, catalog, 0.5, thr); len(second) != len(first) {
			t.Fatalf("round %d: re-filter changed size: %d -> %d", round, len(first), len(second))
		}
	}
}

func TestFilter_DropsNaNConfidence(t *testing.T) {
	nan := float32(math.NaN())
	cands := []RawCandidate{
		cand(100, 100, 50, 50, 0.7, 0),
		cand(300, 300, 50, 50, nan, 0),
		cand(500, 500, 50, 50, 0.9, 1),
	}
	got := Filter(cands, identity(t), testCatalog(t, "a", "b"), 0.5, 0.45)
	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2", len(got))
	}
	if got[0].Confidence < got[1].Confidence {
		t.Errorf("not ordered by confidence: %v, %v", got[0].Confidence, got[1].Confidence)
	}
	for _, d := range got {
		if math.IsNaN(d.Confidence) {
			t.Errorf("NaN confidence kept: %+v", d)
		}
	}
}
