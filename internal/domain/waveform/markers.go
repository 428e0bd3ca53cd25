package waveform

import (
	"errors"
	"math"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
)

const (
	// MarkerY is the vertical centre of the cue marker heads.
	MarkerY = 10.0
	// MarkerBand is the height of the strip that holds the marker heads.
	MarkerBand = 20.0

	MarkerHitRadius       = 8.0
	ActiveMarkerHitRadius = 10.0 // hovered or dragged markers are easier to grab

	// LineTolerance is the horizontal distance within which a cue line
	// counts as hovered.
	LineTolerance = 8.0
)

// Marker head radii as drawn.
const (
	MarkerRadius        = 6.0
	HoverMarkerRadius   = 7.0
	DraggedMarkerRadius = 9.0
)

var (
	// ErrNoCueAtPosition is returned when a drag starts on empty canvas.
	ErrNoCueAtPosition = errors.New("no cue marker at position")

	// ErrCueLocked is returned when a drag starts on a locked cue.
	ErrCueLocked = errors.New("cue is locked")
)

// Interaction names the marker currently under the pointer and the one being
// dragged, if any.
type Interaction struct {
	HoveredID  string `json:"hoveredId,omitempty"`
	DraggingID string `json:"draggingId,omitempty"`
}

func (in Interaction) hitRadius(id string) float64 {
	if id != "" && (id == in.HoveredID || id == in.DraggingID) {
		return ActiveMarkerHitRadius
	}
	return MarkerHitRadius
}

// DrawRadius returns the radius a marker head is drawn with.
func (in Interaction) DrawRadius(id string) float64 {
	switch {
	case id == in.DraggingID && id != "":
		return DraggedMarkerRadius
	case id == in.HoveredID && id != "":
		return HoverMarkerRadius
	default:
		return MarkerRadius
	}
}

// HitTest returns the cue whose marker head is nearest to (x, y), within
// the hit radius. Points below the marker band never hit.
func (m *Mapper) HitTest(cues []cue.CuePoint, x, y float64, in Interaction) (cue.CuePoint, bool) {
	if y > MarkerBand {
		return cue.CuePoint{}, false
	}

	best := -1
	bestDist := math.Inf(1)
	for i, c := range cues {
		cx := m.TimeToPixel(c.Time)
		dist := math.Hypot(x-cx, y-MarkerY)
		if dist <= in.hitRadius(c.ID) && dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return cue.CuePoint{}, false
	}
	return cues[best], true
}

// HitTestLine returns the cue whose vertical line is nearest to x within
// LineTolerance, for hover tooltips.
func (m *Mapper) HitTestLine(cues []cue.CuePoint, x float64) (cue.CuePoint, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range cues {
		dist := math.Abs(x - m.TimeToPixel(c.Time))
		if dist <= LineTolerance && dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return cue.CuePoint{}, false
	}
	return cues[best], true
}

// Drag tracks a cue marker being moved along the waveform.
type Drag struct {
	CueID  string  `json:"cueId"`
	Origin float64 `json:"origin"` // Cue time when the drag started

	m *Mapper
}

// BeginDrag starts dragging the marker under (x, y). Locked cues are rejected
// before any state changes.
func (m *Mapper) BeginDrag(cues []cue.CuePoint, x, y float64, in Interaction) (*Drag, error) {
	c, ok := m.HitTest(cues, x, y, in)
	if !ok {
		return nil, ErrNoCueAtPosition
	}
	if c.Locked {
		return nil, ErrCueLocked
	}
	return &Drag{CueID: c.ID, Origin: c.Time, m: m}, nil
}

// Move converts a pointer x to the new cue time, clamped to [0, duration].
// The current zoom and pan of the mapper apply.
func (d *Drag) Move(x float64) float64 {
	return clamp(d.m.PixelToTime(x), 0, d.m.duration)
}
