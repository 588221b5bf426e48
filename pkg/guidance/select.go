package guidance

// Select picks the detection with the largest box area.
// Ties go to the earliest detection. Returns nil if dets is empty.
func Select(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}

	best := 0
	bestArea := dets[0].Box.Area()
	for i := 1; i < len(dets); i++ {
		if a := dets[i].Box.Area(); a > bestArea {
			best, bestArea = i, a
		}
	}
	return &dets[best]
}
