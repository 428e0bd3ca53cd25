package transport

import (
	"fmt"
	"math"
	"time"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/segment"
	"github.com/rs/zerolog/log"
)

// Config holds the timing constants of the machine. They depend on how often
// the host reports the playhead.
type Config struct {
	// LoopThreshold is how close to a segment end a tick must land to loop or
	// advance.
	LoopThreshold float64
	// LoopOvershoot is how far past the remembered segment end a tick may land
	// and still loop. Ticks further away are treated as a jump elsewhere.
	LoopOvershoot float64
	// AdvanceDebounce is the minimum time between automatic advances.
	AdvanceDebounce time.Duration
	// NavEpsilon is the tolerance for previous and next navigation.
	NavEpsilon float64
}

// DefaultConfig returns the timing tuned for a 250 ms tick.
func DefaultConfig() Config {
	return Config{
		LoopThreshold:   0.2,
		LoopOvershoot:   1.0,
		AdvanceDebounce: 400 * time.Millisecond,
		NavEpsilon:      segment.DefaultEpsilon,
	}
}

// Machine computes transport transitions. It holds no playback state of its
// own; apart from the shuffle random source it is a pure function of
// (State, Timeline, Event).
type Machine struct {
	cfg      Config
	resolver *segment.Resolver
}

// NewMachine creates a machine. A nil resolver gets one built from
// cfg.NavEpsilon.
func NewMachine(cfg Config, resolver *segment.Resolver) *Machine {
	if resolver == nil {
		resolver = segment.NewResolver(cfg.NavEpsilon, nil)
	}
	return &Machine{cfg: cfg, resolver: resolver}
}

// Config returns the machine's timing constants.
func (m *Machine) Config() Config {
	return m.cfg
}

// Step applies one event and returns the next state with the host commands
// it requires, in order.
func (m *Machine) Step(s State, tl Timeline, ev Event) (State, []Action) {
	switch e := ev.(type) {
	case Load:
		return m.load(s)
	case Metadata:
		return m.metadata(s, e.Duration)
	case Tick:
		return m.tick(s, tl, e)
	case Ended:
		return m.ended(s, tl, e)
	case Toggle:
		if s.Playing() {
			s.Status = StatusPause
			return s, []Action{pause()}
		}
		s.Status = StatusPlay
		return s, []Action{play()}
	case PlayStarted:
		s.Status = StatusPlay
		return s, nil
	case Paused:
		s.Status = StatusPause
		return s, nil
	case Seek:
		return m.seek(s, tl, e.Time)
	case Next:
		return m.next(s, tl, e.Time)
	case Previous:
		return m.previous(s, tl, e.Time)
	case SetRepeat:
		if !e.Mode.Valid() {
			return s, nil
		}
		s.Repeat = e.Mode
		s.LoopBound = nil
		return s, nil
	case CycleRepeat:
		s.Repeat = s.Repeat.Next()
		s.LoopBound = nil
		return s, nil
	case SetShuffle:
		s.Shuffle = e.Enabled
		return s, nil
	case SetPitch:
		s.PitchPercent = ClampPitch(e.Percent)
		return s, []Action{rate(s.Rate())}
	case SetVolume:
		s.Volume = ClampVolume(e.Level)
		return s, []Action{gain(s.Gain())}
	case CuesChanged:
		s.LoopBound = nil
		return s, nil
	default:
		return s, nil
	}
}

func (m *Machine) load(s State) (State, []Action) {
	s.Generation++
	s.Status = StatusPause
	s.LoopBound = nil
	s.LastAdvance = time.Time{}
	s.AdvanceGeneration = 0
	s.PendingSeek = nil
	return s, []Action{rate(s.Rate()), gain(s.Gain())}
}

func (m *Machine) metadata(s State, duration float64) (State, []Action) {
	if s.PendingSeek == nil || !durationKnown(duration) {
		return s, nil
	}
	t := clampTime(*s.PendingSeek, duration)
	s.PendingSeek = nil
	return s, []Action{seekTo(t)}
}

func (m *Machine) seek(s State, tl Timeline, t float64) (State, []Action) {
	s.LoopBound = nil
	if !tl.Ready() {
		pending := clampTime(t, math.Inf(1))
		s.PendingSeek = &pending
		return s, nil
	}
	return s, []Action{seekTo(clampTime(t, tl.Duration))}
}

func (m *Machine) tick(s State, tl Timeline, e Tick) (State, []Action) {
	if !tl.Ready() || !s.Playing() || math.IsNaN(e.Time) {
		return s, nil
	}
	if s.Repeat == RepeatOne {
		return m.repeatOne(s, tl, e.Time)
	}
	if len(tl.Cues) == 0 {
		return s, nil
	}
	return m.autoAdvance(s, tl, e)
}

// repeatOne loops the segment that owned the playhead on the previous tick,
// so a coarse tick that lands just past the boundary still loops back.
func (m *Machine) repeatOne(s State, tl Timeline, t float64) (State, []Action) {
	var bound segment.Bounds
	switch {
	case len(tl.Cues) == 0:
		bound = segment.Bounds{Start: 0, End: tl.Duration}
	case s.LoopBound != nil && t >= s.LoopBound.Start && t < s.LoopBound.End+m.cfg.LoopOvershoot:
		bound = *s.LoopBound
	default:
		i := segment.ActiveIndex(tl.Cues, t)
		if i < 0 {
			s.LoopBound = nil
			return s, nil
		}
		bound = segment.At(tl.Cues, i, tl.Duration)
	}

	if t < bound.End-m.cfg.LoopThreshold {
		s.LoopBound = &bound
		return s, nil
	}

	log.Debug().
		Float64("position", t).
		Float64("start", bound.Start).
		Float64("end", bound.End).
		Msg("Repeat one: looping segment")
	s.LoopBound = &bound
	return s, []Action{seekTo(bound.Start)}
}

func (m *Machine) autoAdvance(s State, tl Timeline, e Tick) (State, []Action) {
	cues := tl.Cues
	i := segment.ActiveIndex(cues, e.Time)
	if i < 0 {
		return s, nil
	}
	bound := segment.At(cues, i, tl.Duration)
	if e.Time < bound.End-m.cfg.LoopThreshold {
		return s, nil
	}
	if s.AdvanceGeneration == s.Generation && !s.LastAdvance.IsZero() &&
		e.At.Sub(s.LastAdvance) < m.cfg.AdvanceDebounce {
		return s, nil
	}

	s.LastAdvance = e.At
	s.AdvanceGeneration = s.Generation

	next := segment.Successor(cues, i)
	switch {
	case next < 0 && s.Repeat == RepeatAll:
		log.Debug().Int("from", i).Msg("Repeat all: back to first cue")
		return s, []Action{seekTo(cues[0].Time)}
	case s.Shuffle:
		j := m.resolver.ShuffleIndex(len(cues), i)
		log.Debug().Int("from", i).Int("to", j).Msg("Shuffle: auto-advance")
		return s, []Action{seekTo(cues[j].Time), jumpedTo(cues[j])}
	case next < 0:
		return s, nil
	default:
		log.Debug().Int("from", i).Int("to", next).Msg("Auto-advance to next segment")
		return s, []Action{seekTo(cues[next].Time), jumpedTo(cues[next])}
	}
}

func (m *Machine) ended(s State, tl Timeline, e Ended) (State, []Action) {
	if !tl.Ready() {
		return s, nil
	}
	cues := tl.Cues
	s.LoopBound = nil

	switch {
	case s.Repeat == RepeatOne:
		start := 0.0
		if len(cues) > 0 {
			start = cues[len(cues)-1].Time
		}
		s.Status = StatusPlay
		return s, []Action{seekTo(start), play()}
	case s.Repeat == RepeatAll:
		start := 0.0
		if len(cues) > 0 {
			start = cues[0].Time
		}
		s.Status = StatusPlay
		return s, []Action{seekTo(start), play()}
	case s.Shuffle && len(cues) > 0:
		j := m.resolver.ShuffleIndex(len(cues), len(cues)-1)
		s.Status = StatusPlay
		return s, []Action{seekTo(cues[j].Time), play(), notify(fmt.Sprintf("Shuffle: %s", cues[j].DisplayName()))}
	default:
		s.Status = StatusPause
		return s, nil
	}
}

func (m *Machine) next(s State, tl Timeline, t float64) (State, []Action) {
	if !tl.Ready() || len(tl.Cues) == 0 {
		return s, nil
	}

	var (
		i  int
		ok bool
	)
	if s.Shuffle {
		i, ok = m.resolver.Shuffle(tl.Cues, t)
	} else {
		i, ok = m.resolver.Next(tl.Cues, t)
	}
	if !ok {
		return s, nil
	}
	s.LoopBound = nil
	return s, []Action{seekTo(tl.Cues[i].Time), jumpedTo(tl.Cues[i])}
}

func (m *Machine) previous(s State, tl Timeline, t float64) (State, []Action) {
	if !tl.Ready() || len(tl.Cues) == 0 {
		return s, nil
	}
	i, ok := m.resolver.Previous(tl.Cues, t)
	if !ok {
		return s, nil
	}
	s.LoopBound = nil
	return s, []Action{seekTo(tl.Cues[i].Time), jumpedTo(tl.Cues[i])}
}

func jumpedTo(c cue.CuePoint) Action {
	return notify(fmt.Sprintf("Jumped to cue point %q", c.DisplayName()))
}

// clampTime limits t to [0, duration]; NaN becomes 0 and +Inf the duration.
func clampTime(t, duration float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if t > duration {
		return duration
	}
	return t
}
