package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/segment"
	"github.com/edumarques81/stellar-cue/internal/domain/transport"
	"github.com/edumarques81/stellar-cue/internal/domain/waveform"
	"github.com/rs/zerolog/log"
)

// SetWaveform installs the amplitude data of the loaded file. Amplitudes
// are taken as magnitudes; longer inputs are downsampled to the default bar
// count.
func (s *Service) SetWaveform(samples []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peaks := waveform.Downsample(samples, min(len(samples), waveform.DefaultBars))
	s.mapper.SetPeaks(peaks)
	log.Debug().Int("samples", len(samples)).Int("bars", s.mapper.Bars()).Msg("Waveform set")
	s.notifyLocked(TopicView)
}

// SetCanvasWidth sets the pixel width of the client's waveform canvas.
func (s *Service) SetCanvasWidth(w float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapper.SetWidth(w)
	s.notifyLocked(TopicView)
}

// Zoom sets the zoom level, keeping the bar under anchorX in place.
func (s *Service) Zoom(level, anchorX float64) {
	s.updateView(func(m *waveform.Mapper) { m.ZoomAt(level, anchorX) })
}

// ZoomIn zooms one step around the view centre.
func (s *Service) ZoomIn() {
	s.updateView((*waveform.Mapper).ZoomIn)
}

// ZoomOut zooms out one step around the view centre.
func (s *Service) ZoomOut() {
	s.updateView((*waveform.Mapper).ZoomOut)
}

// Wheel applies a mouse wheel notch at x.
func (s *Service) Wheel(deltaY, x float64) {
	s.updateView(func(m *waveform.Mapper) { m.Wheel(deltaY, x) })
}

// Pan scrolls the view by deltaX pixels.
func (s *Service) Pan(deltaX float64) {
	s.updateView(func(m *waveform.Mapper) { m.PanBy(deltaX) })
}

// SetTimeline positions the view from a 0-100 timeline slider.
func (s *Service) SetTimeline(pct float64) {
	s.updateView(func(m *waveform.Mapper) { m.SetTimelinePosition(pct) })
}

// ResetZoom returns to the full view.
func (s *Service) ResetZoom() {
	s.updateView((*waveform.Mapper).ResetZoom)
}

func (s *Service) updateView(fn func(*waveform.Mapper)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.mapper)
	s.notifyLocked(TopicView)
}

// Hover describes what lies under the pointer.
type Hover struct {
	Time float64       `json:"time"`
	Cue  *cue.CuePoint `json:"cue,omitempty"`
	// Grab is true when the pointer is over a marker head that can be dragged.
	Grab bool `json:"grab"`
}

// Hover updates the hovered marker for pointer position (x, y). Nothing is
// hovered until the duration is known.
func (s *Service) Hover(x, y float64) Hover {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !known(s.duration) {
		return Hover{}
	}
	cues := s.store.Cues()
	h := Hover{Time: s.clampLocked(s.mapper.PixelToTime(x))}

	if c, ok := s.mapper.HitTest(cues, x, y, s.interaction); ok {
		h.Cue = &c
		h.Grab = !c.Locked
	} else if c, ok := s.mapper.HitTestLine(cues, x); ok {
		h.Cue = &c
	}

	id := ""
	if h.Cue != nil {
		id = h.Cue.ID
	}
	if id != s.interaction.HoveredID {
		s.interaction.HoveredID = id
		s.notifyLocked(TopicHover)
	}
	return h
}

// DragStart begins dragging the marker at (x, y).
func (s *Service) DragStart(x, y float64) (waveform.Drag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return waveform.Drag{}, err
	}
	if !known(s.duration) {
		return waveform.Drag{}, ErrDurationUnknown
	}
	d, err := s.mapper.BeginDrag(s.store.Cues(), x, y, s.interaction)
	if err != nil {
		if errors.Is(err, waveform.ErrCueLocked) {
			s.toastLocked(ToastInfo, "Cue is locked", "Unlock it to move it")
		}
		return waveform.Drag{}, err
	}

	s.drag = d
	s.interaction.DraggingID = d.CueID
	log.Debug().Str("id", d.CueID).Float64("origin", d.Origin).Msg("Cue drag started")
	s.notifyLocked(TopicHover)
	return *d, nil
}

// DragMove moves the dragged cue to pointer x.
func (s *Service) DragMove(x float64) (cue.CuePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag == nil {
		return cue.CuePoint{}, ErrNoDrag
	}
	id := s.drag.CueID
	if c, ok := s.store.Get(id); !ok {
		s.endDragLocked()
		return cue.CuePoint{}, fmt.Errorf("%w: %s", ErrCueNotFound, id)
	} else if c.Locked {
		s.endDragLocked()
		return cue.CuePoint{}, waveform.ErrCueLocked
	}

	c, _ := s.store.Update(id, cue.TimePatch(s.drag.Move(x)))

	var actions []transport.Action
	s.state, actions = s.machine.Step(s.state, s.timeline(), transport.CuesChanged{})
	if err := s.applyLocked(actions); err != nil {
		log.Warn().Err(err).Msg("Failed to apply transport actions")
	}
	s.notifyLocked(TopicCues)
	return c, nil
}

// DragEnd finishes the drag and saves the new position.
func (s *Service) DragEnd(ctx context.Context) (cue.CuePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag == nil {
		return cue.CuePoint{}, ErrNoDrag
	}
	d := s.drag
	s.endDragLocked()

	c, ok := s.store.Get(d.CueID)
	if !ok {
		return cue.CuePoint{}, fmt.Errorf("%w: %s", ErrCueNotFound, d.CueID)
	}
	log.Info().Str("id", c.ID).Float64("from", d.Origin).Float64("to", c.Time).Msg("Cue moved")
	s.cuesChangedLocked(ctx)
	return c, nil
}

func (s *Service) endDragLocked() {
	s.drag = nil
	s.interaction.DraggingID = ""
	s.notifyLocked(TopicHover)
}

// SeekToPixel seeks to the time under canvas x. It does nothing until the
// duration is known.
func (s *Service) SeekToPixel(x float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return err
	}
	if !known(s.duration) {
		log.Debug().Float64("x", x).Msg("Ignoring pixel seek before duration is known")
		return nil
	}
	t := s.mapper.PixelToTime(x)
	log.Info().Float64("x", x).Float64("position", t).Msg("Seek to pixel")
	return s.stepLocked(transport.Seek{Time: t})
}

// WritePreview renders the visible waveform as a PNG of the given size.
func (s *Service) WritePreview(w io.Writer, width, height int) error {
	s.mu.Lock()
	cues := s.store.Cues()
	t := s.positionLocked(s.now())
	opts := waveform.PreviewOptions{Width: width, Height: height, Playhead: t}
	if segment.ActiveIndex(cues, t) >= 0 {
		opts.Active = segment.Resolve(cues, t, s.duration)
	}
	// Render outside the lock from a copy of the view.
	m := *s.mapper
	s.mu.Unlock()

	return m.WritePreviewPNG(w, cues, opts)
}
