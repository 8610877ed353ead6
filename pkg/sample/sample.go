// Package sample keeps a sliding window of motor speed samples for display.
package sample

import (
	"sync"
	"time"

	"github.com/itohio/autito/pkg/motor"
)

// DefaultSpan is the default length of a Window.
const DefaultSpan = 10 * time.Second

// Sample is the signed speed of both motors at one instant.
type Sample struct {
	Timestamp time.Time
	Speeds    [motor.Count]float64
}

// Window holds the samples of the last span, oldest first. It is safe for
// concurrent use.
type Window struct {
	span time.Duration

	mu      sync.RWMutex
	samples []Sample
}

// NewWindow creates a window covering span.
func NewWindow(span time.Duration) *Window {
	if span <= 0 {
		span = DefaultSpan
	}
	return &Window{span: span}
}

// Span returns the covered duration.
func (w *Window) Span() time.Duration {
	return w.span
}

// Push appends s and drops samples older than span before it. Samples must
// arrive in time order.
func (w *Window) Push(s Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples = append(w.samples, s)

	cutoff := s.Timestamp.Add(-w.span)
	drop := 0
	for drop < len(w.samples) && w.samples[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		n := copy(w.samples, w.samples[drop:])
		w.samples = w.samples[:n]
	}
}

// Samples copies the window into dst, reusing its capacity.
func (w *Window) Samples(dst []Sample) []Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append(dst[:0], w.samples...)
}

// Len returns the number of samples held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.samples)
}

// Reset drops all samples.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = w.samples[:0]
}
