package web

import (
	"bufio"
	"fmt"
	"sync"
)

// mjpegBoundary separates parts of the multipart/x-mixed-replace stream.
const mjpegBoundary = "sarganframe"

// frameFeed fans the latest JPEG out to MJPEG subscribers. Each subscriber
// holds at most one pending frame; stale frames are replaced.
type frameFeed struct {
	mu     sync.RWMutex
	latest []byte
	subs   map[chan []byte]struct{}
	closed bool
}

func newFrameFeed() *frameFeed {
	return &frameFeed{subs: make(map[chan []byte]struct{})}
}

func (f *frameFeed) publish(jpeg []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest = jpeg
	for ch := range f.subs {
		select {
		case ch <- jpeg:
		default:
			// replace the pending frame
			select {
			case <-ch:
			default:
			}
			ch <- jpeg
		}
	}
}

func (f *frameFeed) last() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest
}

// subscribe returns a channel primed with the latest frame, or nil after
// close.
func (f *frameFeed) subscribe() chan []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	ch := make(chan []byte, 1)
	if f.latest != nil {
		ch <- f.latest
	}
	f.subs[ch] = struct{}{}
	return ch
}

func (f *frameFeed) unsubscribe(ch chan []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
}

func (f *frameFeed) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// close ends every subscription.
func (f *frameFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
}

// writePart writes one JPEG as a multipart section and flushes it.
func writePart(w *bufio.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}
