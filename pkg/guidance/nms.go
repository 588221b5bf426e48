package guidance

import (
	"math"
	"sort"

	flatbush "github.com/bmharper/flatbush-go"
)

// Detection is a kept candidate in original-frame pixels.
type Detection struct {
	Box        Box     `json:"box"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// Filter thresholds candidates on confidence, maps them back into frame
// coordinates clamped to the frame, and suppresses overlaps across all
// classes. Overlaps are measured on the clamped boxes, so no two results
// overlap at or above nmsThreshold. The result is ordered by confidence,
// highest first.
func Filter(cands []RawCandidate, lb Letterbox, catalog *Catalog, scoreThreshold, nmsThreshold float64) []Detection {
	kept := make([]RawCandidate, 0, len(cands))
	for _, c := range cands {
		// NaN never passes.
		if !(float64(c.Confidence) >= scoreThreshold) {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return []Detection{}
	}

	// Equal confidences keep decode order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	w, h := float64(lb.SrcWidth), float64(lb.SrcHeight)
	boxes := make([]Box, len(kept))
	for i, c := range kept {
		boxes[i] = lb.InvertBox(c.Box()).Clamp(w, h)
	}

	keep := Suppress(boxes, nmsThreshold)
	out := make([]Detection, 0, len(keep))
	for _, i := range keep {
		c := kept[i]
		out = append(out, Detection{
			Box:        boxes[i],
			ClassID:    c.ClassID,
			Confidence: float64(c.Confidence),
			Label:      catalog.Label(c.ClassID),
		})
	}
	return out
}

// Suppress runs greedy non-maximum suppression over boxes that are already
// in priority order. A box is dropped when its IoU with an earlier keeper
// is at least nmsThreshold. Returns the kept indices in order.
func Suppress(boxes []Box, nmsThreshold float64) []int {
	if len(boxes) == 0 {
		return nil
	}
	// Disjoint boxes have IoU 0, so the spatial index can only narrow the
	// search when the threshold is positive.
	if nmsThreshold <= 0 {
		return suppressExhaustive(boxes, nmsThreshold)
	}

	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(boxes))
	for _, b := range boxes {
		minX, minY, maxX, maxY := indexBounds(b)
		fb.Add(minX, minY, maxX, maxY)
	}
	fb.Finish()

	removed := make([]bool, len(boxes))
	keep := make([]int, 0, len(boxes))
	var near []int
	for i, b := range boxes {
		if removed[i] {
			continue
		}
		keep = append(keep, i)

		minX, minY, maxX, maxY := indexBounds(b)
		near = fb.SearchFast(minX, minY, maxX, maxY, near[:0])
		for _, j := range near {
			if j <= i || removed[j] {
				continue
			}
			if b.IoU(boxes[j]) >= nmsThreshold {
				removed[j] = true
			}
		}
	}
	return keep
}

func suppressExhaustive(boxes []Box, nmsThreshold float64) []int {
	removed := make([]bool, len(boxes))
	keep := make([]int, 0, len(boxes))
	for i := range boxes {
		if removed[i] {
			continue
		}
		keep = append(keep, i)
		for j := i + 1; j < len(boxes); j++ {
			if !removed[j] && boxes[i].IoU(boxes[j]) >= nmsThreshold {
				removed[j] = true
			}
		}
	}
	return keep
}

const indexLimit = 1 << 30

// indexBounds widens b to whole pixels so index hits are a superset of
// real overlaps.
func indexBounds(b Box) (minX, minY, maxX, maxY int32) {
	return indexCoord(math.Floor(b.Left)), indexCoord(math.Floor(b.Top)),
		indexCoord(math.Ceil(b.Right)), indexCoord(math.Ceil(b.Bottom))
}

func indexCoord(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < -indexLimit:
		return -indexLimit
	case v > indexLimit:
		return indexLimit
	}
	return int32(v)
}
