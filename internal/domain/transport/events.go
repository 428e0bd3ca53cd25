package transport

import (
	"fmt"
	"time"
)

// Event is an input to Machine.Step.
type Event interface {
	event()
}

// Load resets per-file state before a new file is opened.
type Load struct{}

// Metadata reports that the host learned the media duration.
type Metadata struct {
	Duration float64
}

// Tick reports the playhead position, sampled at At.
type Tick struct {
	Time float64
	At   time.Time
}

// Ended reports that playback reached the end of the media.
type Ended struct {
	At time.Time
}

// Toggle flips between play and pause.
type Toggle struct{}

// PlayStarted and Paused report status changes made outside the machine.
type (
	PlayStarted struct{}
	Paused      struct{}
)

// Seek moves the playhead.
type Seek struct {
	Time float64
}

// Next and Previous navigate between cues relative to the playhead at Time.
type (
	Next struct {
		Time float64
	}
	Previous struct {
		Time float64
	}
)

// SetRepeat selects a repeat mode. CycleRepeat steps through off, one, all.
type (
	SetRepeat struct {
		Mode RepeatMode
	}
	CycleRepeat struct{}
)

// SetShuffle enables or disables shuffled navigation.
type SetShuffle struct {
	Enabled bool
}

// SetPitch sets the pitch in percent.
type SetPitch struct {
	Percent float64
}

// SetVolume sets the volume on a 0-100 scale.
type SetVolume struct {
	Level float64
}

// CuesChanged reports that cues were added, moved or removed, which can
// invalidate the remembered loop segment.
type CuesChanged struct{}

func (Load) event()        {}
func (Metadata) event()    {}
func (Tick) event()        {}
func (Ended) event()       {}
func (Toggle) event()      {}
func (PlayStarted) event() {}
func (Paused) event()      {}
func (Seek) event()        {}
func (Next) event()        {}
func (Previous) event()    {}
func (SetRepeat) event()   {}
func (CycleRepeat) event() {}
func (SetShuffle) event()  {}
func (SetPitch) event()    {}
func (SetVolume) event()   {}
func (CuesChanged) event() {}

// ActionKind names a command for the media host.
type ActionKind string

const (
	ActionSeek   ActionKind = "seek"
	ActionPlay   ActionKind = "play"
	ActionPause  ActionKind = "pause"
	ActionRate   ActionKind = "rate"
	ActionGain   ActionKind = "gain"
	ActionNotify ActionKind = "notify"
)

// Action is an output of Machine.Step. Value carries the seek time, rate or
// gain; Message carries the text of a notification.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Value   float64    `json:"value,omitempty"`
	Message string     `json:"message,omitempty"`
}

func (a Action) String() string {
	switch a.Kind {
	case ActionSeek, ActionRate, ActionGain:
		return fmt.Sprintf("%s(%.3f)", a.Kind, a.Value)
	case ActionNotify:
		return fmt.Sprintf("%s(%q)", a.Kind, a.Message)
	default:
		return string(a.Kind)
	}
}

func seekTo(t float64) Action  { return Action{Kind: ActionSeek, Value: t} }
func notify(msg string) Action { return Action{Kind: ActionNotify, Message: msg} }
func play() Action             { return Action{Kind: ActionPlay} }
func pause() Action            { return Action{Kind: ActionPause} }
func rate(r float64) Action    { return Action{Kind: ActionRate, Value: r} }
func gain(g float64) Action    { return Action{Kind: ActionGain, Value: g} }
