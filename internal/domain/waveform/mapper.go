// Package waveform maps between waveform bars, canvas pixels and playback
// time for a zoomable, pannable waveform view, and hit-tests cue markers
// drawn on it.
package waveform

import (
	"math"
)

const (
	// DefaultBars is the number of waveform samples drawn across the view.
	DefaultBars = 2000

	MinZoom = 1.0
	MaxZoom = 20.0

	// ZoomStep is the factor applied by the zoom buttons.
	ZoomStep = 1.5

	// WheelZoomIn and WheelZoomOut are the factors applied per wheel notch.
	WheelZoomIn  = 1.25
	WheelZoomOut = 0.8
)

// Mapper holds the view state of one waveform: its peaks, the canvas width,
// the zoom level and the pan offset measured in bars.
//
// Coordinates: barWidth = width*zoom/bars, x = (index - pan)*barWidth and
// time = index/bars*duration.
type Mapper struct {
	peaks    []float64
	bars     int
	width    float64
	zoom     float64
	pan      float64
	duration float64
}

// NewMapper creates a mapper for a canvas of the given pixel width with
// DefaultBars bars and no peak data.
func NewMapper(width float64) *Mapper {
	return &Mapper{
		bars:  DefaultBars,
		width: width,
		zoom:  MinZoom,
	}
}

// SetPeaks replaces the waveform data. The bar count follows len(peaks);
// empty data restores DefaultBars. Zoom and pan are kept but re-clamped.
func (m *Mapper) SetPeaks(peaks []float64) {
	m.peaks = append([]float64(nil), peaks...)
	if len(m.peaks) > 0 {
		m.bars = len(m.peaks)
	} else {
		m.bars = DefaultBars
	}
	m.pan = m.clampPan(m.pan)
}

// Peaks returns the waveform data.
func (m *Mapper) Peaks() []float64 { return m.peaks }

// SetDuration sets the length of the audio in seconds.
func (m *Mapper) SetDuration(d float64) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		d = 0
	}
	m.duration = d
}

// SetWidth sets the canvas width in pixels.
func (m *Mapper) SetWidth(w float64) {
	if w > 0 {
		m.width = w
	}
}

func (m *Mapper) Bars() int            { return m.bars }
func (m *Mapper) Width() float64       { return m.width }
func (m *Mapper) Zoom() float64        { return m.zoom }
func (m *Mapper) Pan() float64         { return m.pan }
func (m *Mapper) Duration() float64    { return m.duration }
func (m *Mapper) VisibleBars() float64 { return float64(m.bars) / m.zoom }

// MaxPan is the largest pan that still fills the view.
func (m *Mapper) MaxPan() float64 {
	return math.Max(0, float64(m.bars)-m.VisibleBars())
}

// BarWidth is the width of one bar in pixels at the current zoom.
func (m *Mapper) BarWidth() float64 {
	return m.width * m.zoom / float64(m.bars)
}

// IndexToTime converts a (fractional) bar index to seconds.
func (m *Mapper) IndexToTime(index float64) float64 {
	return index / float64(m.bars) * m.duration
}

// TimeToIndex converts seconds to a fractional bar index.
func (m *Mapper) TimeToIndex(t float64) float64 {
	if m.duration <= 0 {
		return 0
	}
	return t / m.duration * float64(m.bars)
}

// IndexToPixel converts a bar index to a canvas x coordinate.
func (m *Mapper) IndexToPixel(index float64) float64 {
	return (index - m.pan) * m.BarWidth()
}

// PixelToIndex converts a canvas x coordinate to a fractional bar index.
func (m *Mapper) PixelToIndex(x float64) float64 {
	return m.pan + x/m.BarWidth()
}

// TimeToPixel converts seconds to a canvas x coordinate.
func (m *Mapper) TimeToPixel(t float64) float64 {
	return m.IndexToPixel(m.TimeToIndex(t))
}

// PixelToTime converts a canvas x coordinate to seconds.
func (m *Mapper) PixelToTime(x float64) float64 {
	return m.IndexToTime(m.PixelToIndex(x))
}

// VisibleRange returns the first and last second shown in the view.
func (m *Mapper) VisibleRange() (start, end float64) {
	return m.IndexToTime(m.pan), m.IndexToTime(m.pan + m.VisibleBars())
}

// ZoomAt changes the zoom level while keeping the bar under anchorX fixed on
// screen. The level is clamped to [MinZoom, MaxZoom].
func (m *Mapper) ZoomAt(level, anchorX float64) {
	level = clamp(level, MinZoom, MaxZoom)
	anchorIndex := m.PixelToIndex(anchorX)
	m.zoom = level
	m.pan = m.clampPan(anchorIndex - anchorX/m.BarWidth())
}

// Wheel applies one wheel notch at x. Negative deltaY zooms in.
func (m *Mapper) Wheel(deltaY, x float64) {
	factor := WheelZoomOut
	if deltaY < 0 {
		factor = WheelZoomIn
	}
	m.ZoomAt(m.zoom*factor, x)
}

// ZoomIn multiplies the zoom by ZoomStep, keeping the pan offset.
func (m *Mapper) ZoomIn() {
	m.zoom = clamp(m.zoom*ZoomStep, MinZoom, MaxZoom)
	m.pan = m.clampPan(m.pan)
}

// ZoomOut divides the zoom by ZoomStep, keeping the pan offset.
func (m *Mapper) ZoomOut() {
	m.zoom = clamp(m.zoom/ZoomStep, MinZoom, MaxZoom)
	m.pan = m.clampPan(m.pan)
}

// ResetZoom shows the whole waveform.
func (m *Mapper) ResetZoom() {
	m.zoom = MinZoom
	m.pan = 0
}

// PanBy shifts the view by a pixel drag distance. Dragging right reveals
// earlier audio.
func (m *Mapper) PanBy(deltaX float64) {
	m.pan = m.clampPan(m.pan - deltaX/m.BarWidth())
}

// SetPan sets the first visible bar.
func (m *Mapper) SetPan(index float64) {
	m.pan = m.clampPan(index)
}

// TimelinePosition returns the pan offset as a percentage of MaxPan.
func (m *Mapper) TimelinePosition() float64 {
	maxPan := m.MaxPan()
	if maxPan == 0 {
		return 0
	}
	return m.pan / maxPan * 100
}

// SetTimelinePosition pans to a percentage of MaxPan.
func (m *Mapper) SetTimelinePosition(pct float64) {
	m.pan = m.clampPan(clamp(pct, 0, 100) / 100 * m.MaxPan())
}

// Follow recenters the view on the playhead when zoomed in and the playhead
// has left the visible window. It reports whether the view moved.
func (m *Mapper) Follow(t float64) bool {
	if m.zoom <= MinZoom {
		return false
	}
	index := m.TimeToIndex(t)
	visible := m.VisibleBars()
	if index >= m.pan && index <= m.pan+visible {
		return false
	}
	m.pan = m.clampPan(index - visible/2)
	return true
}

// View is a serializable snapshot of the view state.
type View struct {
	Bars     int     `json:"bars"`
	Width    float64 `json:"width"`
	Zoom     float64 `json:"zoom"`
	Pan      float64 `json:"pan"`
	Timeline float64 `json:"timeline"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
}

// Snapshot captures the current view.
func (m *Mapper) Snapshot() View {
	start, end := m.VisibleRange()
	return View{
		Bars:     m.bars,
		Width:    m.width,
		Zoom:     m.zoom,
		Pan:      m.pan,
		Timeline: m.TimelinePosition(),
		Start:    start,
		End:      end,
	}
}

func (m *Mapper) clampPan(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return clamp(p, 0, m.MaxPan())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
