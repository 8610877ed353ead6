package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/autito/pkg/sample"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	zeroColor  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

const (
	marginLeft   = 50
	marginRight  = 20
	marginTop    = 20
	marginBottom = 30
)

type scopeRenderer struct {
	scope    *ScopeWidget
	bg       *canvas.Rectangle
	objects  []fyne.CanvasObject
	lastSize fyne.Size
}

// plot maps data coordinates onto the widget.
type plot struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (p plot) point(t time.Time, v float64) fyne.Position {
	xs := p.xMax.Sub(p.xMin).Seconds()
	ys := p.yMax - p.yMin
	fx, fy := float32(0), float32(0)
	if xs > 0 {
		fx = float32(t.Sub(p.xMin).Seconds() / xs)
	}
	if ys > 0 {
		fy = float32((v - p.yMin) / ys)
	}
	return fyne.NewPos(p.x+fx*p.w, p.y+p.h-fy*p.h)
}

func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 240)
}

func (r *scopeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.display
	p := plot{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	p.x, p.y = marginLeft, marginTop
	p.w = size.Width - marginLeft - marginRight
	p.h = size.Height - marginTop - marginBottom

	r.objects = append(r.objects[:0], r.bg)
	r.drawGrid(p)
	for m := range traceColors {
		r.drawTrace(p, samples, m)
	}
}

func (r *scopeRenderer) drawGrid(p plot) {
	const hLines, vLines = 8, 10

	for i := range hLines + 1 {
		y := p.y + float32(i)*p.h/hLines
		r.line(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/hLines
		r.text(formatSpeed(value), fyne.TextAlignTrailing, fyne.NewPos(p.x-5, y-6))
	}

	span := p.xMax.Sub(p.xMin)
	for i := range vLines + 1 {
		x := p.x + float32(i)*p.w/vLines
		r.line(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h))

		offset := time.Duration(i) * span / vLines
		r.text(formatTime(offset-span), fyne.TextAlignCenter, fyne.NewPos(x-20, p.y+p.h+5))
	}

	if p.yMin < 0 && p.yMax > 0 {
		zero := p.point(p.xMin, 0)
		r.line(zeroColor, 1, zero, fyne.NewPos(p.x+p.w, zero.Y))
	}
}

func (r *scopeRenderer) drawTrace(p plot, samples []sample.Sample, m int) {
	if len(samples) < 2 {
		return
	}
	prev := p.point(samples[0].Timestamp, samples[0].Speeds[m])
	for _, s := range samples[1:] {
		next := p.point(s.Timestamp, s.Speeds[m])
		r.line(traceColors[m], 1.5, prev, next)
		prev = next
	}
}

func (r *scopeRenderer) line(c color.Color, width float32, from, to fyne.Position) {
	l := canvas.NewLine(c)
	l.Position1 = from
	l.Position2 = to
	l.StrokeWidth = width
	r.objects = append(r.objects, l)
}

func (r *scopeRenderer) text(s string, align fyne.TextAlign, pos fyne.Position) {
	t := canvas.NewText(s, labelColor)
	t.TextSize = 10
	t.Alignment = align
	t.Move(pos)
	r.objects = append(r.objects, t)
}

func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *scopeRenderer) Destroy() {}

func formatSpeed(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func formatTime(d time.Duration) string {
	if d > -time.Second && d < time.Second {
		return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
}
