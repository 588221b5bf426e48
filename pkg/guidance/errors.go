package guidance

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrInvalidFrame is returned for frames with zero width or height.
	ErrInvalidFrame = errors.New("guidance: invalid frame")

	// ErrDecodeShape is returned when a tensor is not a whole number of records.
	ErrDecodeShape = errors.New("guidance: tensor shape mismatch")

	// ErrModelLoad is returned when the network model cannot be loaded.
	ErrModelLoad = errors.New("guidance: model load failed")

	// ErrCatalogLoad is returned when the class catalog cannot be loaded.
	ErrCatalogLoad = errors.New("guidance: class catalog load failed")

	// ErrEmptyCatalog is returned for a catalog without labels.
	ErrEmptyCatalog = errors.New("guidance: class catalog is empty")
)

// FrameError describes a frame that cannot be processed.
type FrameError struct {
	Width  int
	Height int
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	return fmt.Sprintf("guidance: invalid frame %dx%d", e.Width, e.Height)
}

// Is reports whether target is ErrInvalidFrame.
func (e *FrameError) Is(target error) bool {
	return target == ErrInvalidFrame
}

// ShapeError describes a raw tensor whose length does not fit the record stride.
type ShapeError struct {
	Length int
	Stride int
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("guidance: tensor length %d is not a multiple of record stride %d",
		e.Length, e.Stride)
}

// Is reports whether target is ErrDecodeShape.
func (e *ShapeError) Is(target error) bool {
	return target == ErrDecodeShape
}

// LoadError wraps a startup failure for a model or class catalog file.
type LoadError struct {
	// Kind is "model" or "catalog".
	Kind string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("guidance: load %s %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches ErrModelLoad or ErrCatalogLoad depending on Kind.
func (e *LoadError) Is(target error) bool {
	switch e.Kind {
	case "model":
		return target == ErrModelLoad
	case "catalog":
		return target == ErrCatalogLoad
	}
	return false
}

// ModelLoadError wraps err as a model load failure.
func ModelLoadError(path string, err error) error {
	return &LoadError{Kind: "model", Path: path, Err: err}
}

// CatalogLoadError wraps err as a class catalog load failure.
func CatalogLoadError(path string, err error) error {
	return &LoadError{Kind: "catalog", Path: path, Err: err}
}
