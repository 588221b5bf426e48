package telemetry

import (
	"time"

	"github.com/teslashibe/go-sargan/pkg/guidance"
)

// Report is the per-frame status pushed to dashboard clients.
type Report struct {
	Session     string               `json:"session"`
	Seq         uint64               `json:"seq"`
	Time        time.Time            `json:"time"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	Detections  []guidance.Detection `json:"detections"`
	Target      *guidance.Detection  `json:"target,omitempty"`
	Command     guidance.Command     `json:"command"`
	InferenceMS float64              `json:"inference_ms"`
	Status      string               `json:"status"`
}

// NewReport builds the report for frame seq.
func NewReport(session string, seq uint64, res guidance.Result, width, height int, inference time.Duration) Report {
	dets := res.Detections
	if dets == nil {
		dets = []guidance.Detection{}
	}
	return Report{
		Session:     session,
		Seq:         seq,
		Time:        time.Now(),
		Width:       width,
		Height:      height,
		Detections:  dets,
		Target:      res.Target,
		Command:     res.Command,
		InferenceMS: float64(inference) / float64(time.Millisecond),
		Status:      Line(res.Command, width, height, inference),
	}
}
