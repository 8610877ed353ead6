// Package scope is a fyne widget that plots the signed speed of both motors
// over time.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/autito/pkg/motor"
	"github.com/itohio/autito/pkg/sample"
)

const defaultMaxPoints = 1000

// Trace colors, one per motor.
var traceColors = [motor.Count]color.Color{
	color.RGBA{R: 255, G: 165, B: 0, A: 255},
	color.RGBA{R: 100, G: 200, B: 255, A: 255},
}

// ScopeWidget plots a sample.Window.
type ScopeWidget struct {
	widget.BaseWidget

	window *sample.Window

	mu       sync.RWMutex
	display  []sample.Sample
	buf      []sample.Sample
	yMin     float64
	yMax     float64
	auto     bool
	xMin     time.Time
	xMax     time.Time
	maxPoint int
}

// New creates a scope over window with a fixed symmetric range of
// [-limit, limit]. A limit of zero enables auto scaling.
func New(window *sample.Window, limit float64) *ScopeWidget {
	s := &ScopeWidget{
		window:   window,
		yMin:     -limit,
		yMax:     limit,
		auto:     limit <= 0,
		maxPoint: defaultMaxPoints,
	}
	s.ExtendBaseWidget(s)
	s.Update()
	return s
}

// Update pulls the window and redraws. Call it from the fyne goroutine,
// e.g. inside fyne.Do.
func (s *ScopeWidget) Update() {
	s.mu.Lock()
	s.buf = s.window.Samples(s.buf)
	s.display = sample.Downsample(s.display, s.buf, s.maxPoint)
	s.xMin, s.xMax = timeRange(s.display, s.window.Span())
	if s.auto {
		s.yMin, s.yMax = autoRange(s.display)
	}
	s.mu.Unlock()

	s.Refresh()
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:   s,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}

// timeRange spans at least span, ending at the newest sample.
func timeRange(samples []sample.Sample, span time.Duration) (time.Time, time.Time) {
	if len(samples) == 0 {
		now := time.Now()
		return now.Add(-span), now
	}
	xMax := samples[len(samples)-1].Timestamp
	xMin := samples[0].Timestamp
	if xMax.Sub(xMin) < span {
		xMin = xMax.Add(-span)
	}
	return xMin, xMax
}

// autoRange returns the range of all traces with a 10% margin, always
// including zero.
func autoRange(samples []sample.Sample) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range samples {
		for _, v := range s.Speeds {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	margin := span * 0.1
	return lo - margin, hi + margin
}
