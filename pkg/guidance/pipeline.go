package guidance

import (
	"fmt"
	"strings"
)

// Result is everything the pipeline derives from one frame.
type Result struct {
	Detections []Detection `json:"detections"`
	Target     *Detection  `json:"target,omitempty"`
	Command    Command     `json:"command"`
}

// Pipeline runs decode, filter, select and decide for one frame at a time.
// It holds no per-frame state and is safe for concurrent use.
type Pipeline struct {
	config  Config
	catalog *Catalog
}

// NewPipeline validates cfg and binds it to a non-empty catalog.
func NewPipeline(cfg Config, catalog *Catalog) (*Pipeline, error) {
	if catalog.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("guidance: invalid config: %s", strings.Join(errs, "; "))
	}
	return &Pipeline{config: cfg, catalog: catalog}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Catalog returns the class catalog.
func (p *Pipeline) Catalog() *Catalog {
	return p.catalog
}

// Process turns one raw output tensor into a guidance result.
// lb must be the transform used to build the network input for the frame.
func (p *Pipeline) Process(tensor []float32, lb Letterbox) (Result, error) {
	if lb.SrcWidth <= 0 || lb.SrcHeight <= 0 || lb.Scale <= 0 {
		return Result{}, &FrameError{Width: lb.SrcWidth, Height: lb.SrcHeight}
	}

	cands, err := Decode(tensor, p.catalog.Len(), float32(p.config.ConfidenceThreshold))
	if err != nil {
		return Result{}, err
	}

	dets := Filter(cands, lb, p.catalog, p.config.ScoreThreshold, p.config.NMSThreshold)
	target := Select(dets)

	cmd, err := Decide(target, lb.SrcWidth, lb.SrcHeight, p.config.CameraFOV, p.config.SightHalfWidth)
	if err != nil {
		return Result{}, err
	}

	return Result{Detections: dets, Target: target, Command: cmd}, nil
}
