package session

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/edumarques81/stellar-cue/internal/domain/segment"
	"github.com/edumarques81/stellar-cue/internal/domain/transport"
	"github.com/edumarques81/stellar-cue/internal/domain/visual"
	"github.com/rs/zerolog/log"
)

// ErrInvalidRepeat is returned for an unknown repeat mode.
var ErrInvalidRepeat = errors.New("invalid repeat mode")

// Play starts playback.
func (s *Service) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return err
	}
	if s.state.Playing() {
		return nil
	}
	log.Info().Float64("position", s.current).Msg("Play")
	return s.stepLocked(transport.Toggle{})
}

// Pause pauses playback.
func (s *Service) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return err
	}
	if !s.state.Playing() {
		return nil
	}
	log.Info().Float64("position", s.current).Msg("Pause")
	return s.stepLocked(transport.Toggle{})
}

// Toggle flips between play and pause.
func (s *Service) Toggle() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return err
	}
	log.Info().Str("status", s.state.Status).Msg("Toggle")
	return s.stepLocked(transport.Toggle{})
}

// Seek moves the playhead to t seconds. Before the duration is known the
// seek is held and applied once it is.
func (s *Service) Seek(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return err
	}
	log.Info().Float64("position", t).Msg("Seek")
	return s.stepLocked(transport.Seek{Time: t})
}

// Next jumps to the next cue, or a random one when shuffling.
func (s *Service) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return err
	}
	t := s.positionLocked(s.now())
	log.Info().Float64("position", t).Bool("shuffle", s.state.Shuffle).Msg("Next cue")
	return s.stepLocked(transport.Next{Time: t})
}

// Previous jumps to the previous cue start.
func (s *Service) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return err
	}
	t := s.positionLocked(s.now())
	log.Info().Float64("position", t).Msg("Previous cue")
	return s.stepLocked(transport.Previous{Time: t})
}

// SetRepeat selects the repeat mode.
func (s *Service) SetRepeat(mode transport.RepeatMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepeat, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info().Str("repeat", string(mode)).Msg("Set repeat")
	return s.stepLocked(transport.SetRepeat{Mode: mode})
}

// CycleRepeat steps the repeat mode through off, one and all, and returns
// the new mode.
func (s *Service) CycleRepeat() (transport.RepeatMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.stepLocked(transport.CycleRepeat{})
	log.Info().Str("repeat", string(s.state.Repeat)).Msg("Cycle repeat")
	return s.state.Repeat, err
}

// SetShuffle enables or disables shuffled navigation.
func (s *Service) SetShuffle(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info().Bool("shuffle", enabled).Msg("Set shuffle")
	return s.stepLocked(transport.SetShuffle{Enabled: enabled})
}

// SetPitch sets the playback pitch in percent, clamped to +/-16.
func (s *Service) SetPitch(percent float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info().Float64("pitch", percent).Msg("Set pitch")
	return s.stepLocked(transport.SetPitch{Percent: percent})
}

// SetVolume sets the volume on a 0-100 scale.
func (s *Service) SetVolume(level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info().Float64("volume", level).Msg("Set volume")
	return s.stepLocked(transport.SetVolume{Level: level})
}

// Tick polls the host and feeds the transport machine. It is driven by the
// tick loop and by host change notifications.
func (s *Service) Tick(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	st, err := s.host.Status()
	if err != nil {
		return fmt.Errorf("failed to read host status: %w", err)
	}
	return s.observeLocked(st, now)
}

func (s *Service) observeLocked(st HostStatus, now time.Time) error {
	if st.Format != "" && st.Format != s.file.Output {
		s.file.Output = st.Format
		s.notifyLocked(TopicFile)
	}

	s.current = sanitizeTime(st.CurrentTime)
	s.sampledAt = now

	if known(st.Duration) && st.Duration != s.duration {
		log.Info().Float64("duration", st.Duration).Msg("Duration known")
		s.duration = st.Duration
		s.mapper.SetDuration(st.Duration)
		s.notifyLocked(TopicFile, TopicView)
		if err := s.stepLocked(transport.Metadata{Duration: st.Duration}); err != nil {
			return err
		}
	}

	switch {
	case st.Stopped && s.state.Playing():
		log.Info().Float64("position", s.current).Msg("Playback ended")
		err := s.stepLocked(transport.Ended{At: now})
		s.notifyLocked(TopicProgress)
		return err
	case st.Paused && s.state.Playing():
		if err := s.stepLocked(transport.Paused{}); err != nil {
			return err
		}
	case !st.Paused && !st.Stopped && !s.state.Playing():
		if err := s.stepLocked(transport.PlayStarted{}); err != nil {
			return err
		}
	}

	var actions []transport.Action
	s.state, actions = s.machine.Step(s.state, s.timeline(), transport.Tick{Time: s.current, At: now})
	err := s.applyLocked(actions)
	if len(actions) > 0 {
		s.notifyLocked(TopicTransport)
	}

	if s.mapper.Follow(s.current) {
		s.notifyLocked(TopicView)
	}
	s.notifyLocked(TopicProgress)
	return err
}

// Progress is the per-frame playback position and visual state.
type Progress struct {
	Time     float64              `json:"time"`
	Duration float64              `json:"duration"`
	Playing  bool                 `json:"playing"`
	Active   *segment.Track       `json:"active,omitempty"`
	Visual   visual.FrameState    `json:"visual"`
	Segment  segment.Bounds       `json:"segment"`
	Repeat   transport.RepeatMode `json:"repeat"`
}

// Progress returns the interpolated playhead and the current visual state.
func (s *Service) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked(s.now())
}

func (s *Service) progressLocked(now time.Time) Progress {
	t := s.positionLocked(now)
	cues := s.store.Cues()
	p := Progress{
		Time:     t,
		Duration: s.duration,
		Playing:  s.state.Playing(),
		Visual:   s.frame,
		Segment:  segment.Resolve(cues, t, s.duration),
		Repeat:   s.state.Repeat,
	}
	if tr, ok := segment.Current(cues, t, s.duration); ok {
		p.Active = &tr
	}
	return p
}

// Frame advances the visual state. It reports whether another frame is
// needed; false means playback is paused and the visuals have settled.
func (s *Service) Frame(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var levels visual.Levels
	if s.levels != nil {
		if l, ok := s.levels.Levels(); ok {
			levels = s.smoother.Smooth(l)
		}
	}

	var beat bool
	s.frame, beat = s.frame.Step(now, s.state.Playing(), levels)
	if beat {
		log.Trace().Float64("bass", levels.Bass).Msg("Beat")
	}
	s.notifyLocked(TopicProgress)
	return !s.frame.AtRest()
}

// positionLocked interpolates the playhead from the last host sample. The
// extrapolation is bounded to two tick intervals so a stalled host does not
// run the playhead away.
func (s *Service) positionLocked(now time.Time) float64 {
	t := s.current
	if !s.state.Playing() || s.sampledAt.IsZero() {
		return t
	}
	elapsed := now.Sub(s.sampledAt)
	if limit := 2 * s.cfg.TickInterval; limit > 0 && elapsed > limit {
		elapsed = limit
	}
	if elapsed > 0 {
		t += elapsed.Seconds() * s.state.Rate()
	}
	if known(s.duration) {
		t = math.Min(t, s.duration)
	}
	return t
}

// stepLocked runs one transport event and applies its actions.
func (s *Service) stepLocked(ev transport.Event) error {
	wasPlaying := s.state.Playing()

	var actions []transport.Action
	s.state, actions = s.machine.Step(s.state, s.timeline(), ev)
	err := s.applyLocked(actions)

	if s.state.Playing() && !wasPlaying {
		s.wakeLocked()
	}
	s.notifyLocked(TopicTransport)
	return err
}

// applyLocked forwards actions to the host in order. A failing action is
// logged and reported; the rest still run.
func (s *Service) applyLocked(actions []transport.Action) error {
	var errs []error
	for _, a := range actions {
		log.Debug().Str("action", a.String()).Msg("Transport action")

		var err error
		switch a.Kind {
		case transport.ActionSeek:
			if err = s.host.Seek(a.Value); err == nil {
				s.current = a.Value
				s.sampledAt = s.now()
				s.notifyLocked(TopicProgress)
			}
		case transport.ActionPlay:
			err = s.host.Play()
		case transport.ActionPause:
			err = s.host.Pause()
		case transport.ActionRate:
			err = s.host.SetPlaybackRate(a.Value)
		case transport.ActionGain:
			err = s.host.SetVolume(a.Value)
		case transport.ActionNotify:
			s.toastLocked(ToastInfo, a.Message, "")
		}

		if err != nil {
			log.Error().Err(err).Str("action", a.String()).Msg("Host command failed")
			s.toastLocked(ToastError, "Playback error", err.Error())
			errs = append(errs, fmt.Errorf("host %s: %w", a.Kind, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) wakeLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func known(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

func sanitizeTime(t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	return t
}
