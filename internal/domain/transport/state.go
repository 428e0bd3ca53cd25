// Package transport implements the playback state machine that binds the
// media host to the cue segments: repeat-one looping, automatic segment
// advance, end-of-media handling and the scalar pitch and volume controls.
package transport

import (
	"math"
	"time"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/segment"
)

// Status constants for transport state
const (
	StatusPlay  = "play"
	StatusPause = "pause"
)

// RepeatMode selects what happens at segment and media boundaries.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one"
	RepeatAll RepeatMode = "all"
)

// Valid reports whether r is a known mode.
func (r RepeatMode) Valid() bool {
	return r == RepeatOff || r == RepeatOne || r == RepeatAll
}

// Next returns the mode after r in the off, one, all cycle.
func (r RepeatMode) Next() RepeatMode {
	switch r {
	case RepeatOff:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatOff
	}
}

// Pitch and volume ranges.
const (
	MinPitch = -16.0
	MaxPitch = 16.0
	MinRate  = 0.84
	MaxRate  = 1.16

	MaxVolume     = 100.0
	DefaultVolume = 50.0
)

// State is the complete transport state. It is a value: Machine.Step returns
// a new one and never mutates its input.
type State struct {
	Status  string     `json:"status"`
	Repeat  RepeatMode `json:"repeat"`
	Shuffle bool       `json:"shuffle"`

	// Generation increases on every Load. Debounce state recorded under an
	// older generation is ignored.
	Generation uint64 `json:"generation"`

	// LoopBound is the segment that owned the playhead on the previous tick
	// while repeating one.
	LoopBound *segment.Bounds `json:"loopBound,omitempty"`

	LastAdvance       time.Time `json:"-"`
	AdvanceGeneration uint64    `json:"-"`

	// PendingSeek holds a seek requested before the duration was known.
	PendingSeek *float64 `json:"pendingSeek,omitempty"`

	PitchPercent float64 `json:"pitch"`
	Volume       float64 `json:"volume"`
}

// NewState returns the state of a freshly opened player.
func NewState() State {
	return State{
		Status: StatusPause,
		Repeat: RepeatOff,
		Volume: DefaultVolume,
	}
}

// Playing reports whether the transport believes media is playing.
func (s State) Playing() bool {
	return s.Status == StatusPlay
}

// Rate returns the playback rate for the current pitch.
func (s State) Rate() float64 {
	return PlaybackRate(s.PitchPercent)
}

// Gain returns the output gain for the current volume.
func (s State) Gain() float64 {
	return Gain(s.Volume)
}

// Timeline is the part of the session the machine reads: sorted cues and the
// media duration (0 while unknown).
type Timeline struct {
	Cues     []cue.CuePoint
	Duration float64
}

// Ready reports whether the duration is known.
func (tl Timeline) Ready() bool {
	return durationKnown(tl.Duration)
}

// ClampPitch limits p to [MinPitch, MaxPitch]. NaN becomes 0.
func ClampPitch(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(MinPitch, math.Min(MaxPitch, p))
}

// PlaybackRate maps a pitch percentage to a rate multiplier.
func PlaybackRate(pitchPercent float64) float64 {
	rate := 1 + ClampPitch(pitchPercent)/100
	return math.Max(MinRate, math.Min(MaxRate, rate))
}

// ClampVolume limits v to [0, MaxVolume]. NaN becomes 0.
func ClampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(MaxVolume, v))
}

// Gain maps a 0-100 volume to a 0-1 gain.
func Gain(volume float64) float64 {
	return ClampVolume(volume) / MaxVolume
}

func durationKnown(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}
