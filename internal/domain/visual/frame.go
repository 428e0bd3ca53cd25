package visual

import (
	"math"
	"time"
)

const (
	// MaxFrameStep caps dt so a stalled frame loop does not jump.
	MaxFrameStep = 0.05

	// RestEpsilon is the level below which decaying values count as settled.
	RestEpsilon = 0.01

	bassEMAKeep    = 0.9
	beatMargin     = 0.12
	beatHold       = 260 * time.Millisecond
	beatPulseDecay = 2.2 // per second

	fadeInRate  = 6.0 // per second, towards playing
	fadeOutRate = 2.0 // per second, towards paused
)

// FrameState is the visual state carried from one frame to the next.
type FrameState struct {
	Levels Levels `json:"levels"`

	BassEMA   float64   `json:"-"`
	BeatPulse float64   `json:"beatPulse"`
	LastBeat  time.Time `json:"-"`

	// PauseDecay moves towards 1 while playing and towards 0 while paused.
	PauseDecay float64 `json:"pauseDecay"`
	Playing    bool    `json:"playing"`

	LastFrame time.Time `json:"-"`
}

// Step advances the state to now. It reports whether this frame is a beat:
// bass above its running average by beatMargin, at least beatHold after the
// previous beat.
func (f FrameState) Step(now time.Time, playing bool, levels Levels) (FrameState, bool) {
	dt := 0.0
	if !f.LastFrame.IsZero() {
		dt = now.Sub(f.LastFrame).Seconds()
	}
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	dt = math.Min(dt, MaxFrameStep)
	f.LastFrame = now
	f.Playing = playing
	f.Levels = levels

	target, rate := 0.0, fadeOutRate
	if playing {
		target = 1
	}
	if target > f.PauseDecay {
		rate = fadeInRate
	}
	f.PauseDecay += (target - f.PauseDecay) * clamp01(rate*dt)

	f.BassEMA = f.BassEMA*bassEMAKeep + levels.Bass*(1-bassEMAKeep)
	beat := false
	if levels.Bass > f.BassEMA+beatMargin && (f.LastBeat.IsZero() || now.Sub(f.LastBeat) > beatHold) {
		beat = true
		f.LastBeat = now
		f.BeatPulse = 1
	}
	f.BeatPulse = math.Max(0, f.BeatPulse-dt*beatPulseDecay)

	return f, beat
}

// AtRest reports whether a paused visual has settled, so the frame loop can
// stop until playback resumes.
func (f FrameState) AtRest() bool {
	return !f.Playing && f.PauseDecay < RestEpsilon && f.BeatPulse < RestEpsilon
}
