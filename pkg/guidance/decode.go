package guidance

// RecordHeader is the number of leading values in each output record:
// center x, center y, width, height and objectness.
const RecordHeader = 5

// RawCandidate is one decoded output record in network-input pixels.
type RawCandidate struct {
	CX, CY, W, H float32
	Objectness   float32

	// Scores aliases the class score slice of the source tensor.
	Scores []float32

	ClassID    int
	BestScore  float32
	Confidence float32 // Objectness * BestScore
}

// Box returns the candidate in corner form.
func (c RawCandidate) Box() Box {
	return BoxFromCenter(float64(c.CX), float64(c.CY), float64(c.W), float64(c.H))
}

// Stride returns the record length for numClasses classes.
func Stride(numClasses int) int {
	return RecordHeader + numClasses
}

// Decode walks a flat YOLOv5 output tensor and returns every record whose
// objectness reaches confThreshold, in record order. NaN objectness is
// never emitted.
func Decode(tensor []float32, numClasses int, confThreshold float32) ([]RawCandidate, error) {
	stride := Stride(numClasses)
	if numClasses < 1 || len(tensor)%stride != 0 {
		return nil, &ShapeError{Length: len(tensor), Stride: stride}
	}

	var out []RawCandidate
	for off := 0; off < len(tensor); off += stride {
		rec := tensor[off : off+stride]

		obj := rec[4]
		if !(obj >= confThreshold) { // also drops NaN
			continue
		}

		scores := rec[RecordHeader:]
		classID, best := argmax(scores)

		out = append(out, RawCandidate{
			CX:         rec[0],
			CY:         rec[1],
			W:          rec[2],
			H:          rec[3],
			Objectness: obj,
			Scores:     scores,
			ClassID:    classID,
			BestScore:  best,
			Confidence: obj * best,
		})
	}
	return out, nil
}

// argmax returns the first index holding the maximum value.
func argmax(v []float32) (int, float32) {
	idx, best := 0, v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > best {
			idx, best = i, v[i]
		}
	}
	return idx, best
}
