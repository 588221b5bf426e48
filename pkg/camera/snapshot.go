package camera

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/teslashibe/go-sargan/internal/httpc"
	"gocv.io/x/gocv"
)

// SnapshotSource polls a still-image URL (IP camera snapshot endpoint)
// and paces reads to the configured framerate.
type SnapshotSource struct {
	url      string
	client   *http.Client
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewSnapshotSource creates a source that fetches a JPEG from url at most
// framerate times per second.
func NewSnapshotSource(url string, framerate int) *SnapshotSource {
	if framerate < 1 {
		framerate = 1
	}
	return &SnapshotSource{
		url:      url,
		client:   httpc.NewClient(2 * time.Second),
		interval: time.Second / time.Duration(framerate),
	}
}

// Read fetches and decodes one snapshot into dst.
// Network errors are returned as frame errors; an image that decodes to
// nothing is ErrEmptyFrame.
func (s *SnapshotSource) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wait := s.interval - time.Since(s.last); wait > 0 {
		time.Sleep(wait)
	}
	s.last = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*s.interval+time.Second)
	defer cancel()

	buf, err := httpc.GetBytes(ctx, s.client, s.url)
	if err != nil {
		return fmt.Errorf("camera: snapshot: %w", err)
	}

	img, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return fmt.Errorf("camera: decode snapshot: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return ErrEmptyFrame
	}
	img.CopyTo(dst)
	return nil
}

// Close releases idle connections.
func (s *SnapshotSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
