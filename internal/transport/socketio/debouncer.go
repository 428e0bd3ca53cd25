package socketio

import (
	"sync"
	"time"

	"github.com/edumarques81/stellar-cue/internal/domain/session"
)

// BroadcastDebouncer collapses rapid session change notifications into
// batched broadcasts. Multiple topic changes within the debounce window
// result in a single broadcast for each affected kind (state and/or playlist).
type BroadcastDebouncer struct {
	window           time.Duration
	stateCallback    func()
	playlistCallback func()

	mu              sync.Mutex
	pendingState    bool
	pendingPlaylist bool
	timer           *time.Timer
	stopped         bool
}

// NewBroadcastDebouncer creates a debouncer with the given window duration.
// stateCallback is called when any snapshot topic needs broadcasting.
// playlistCallback is called when the cue list changed.
func NewBroadcastDebouncer(window time.Duration, stateCallback, playlistCallback func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		window:           window,
		stateCallback:    stateCallback,
		playlistCallback: playlistCallback,
	}
}

// Trigger records that the given session topic has changed. Progress is not
// debounced and is ignored here.
func (d *BroadcastDebouncer) Trigger(topic session.Topic) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	switch topic {
	case session.TopicFile, session.TopicTransport, session.TopicView, session.TopicHover:
		d.pendingState = true
	case session.TopicCues:
		d.pendingState = true
		d.pendingPlaylist = true
	default:
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush fires callbacks for any pending flags and resets them.
func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	doState := d.pendingState
	doPlaylist := d.pendingPlaylist
	d.pendingState = false
	d.pendingPlaylist = false
	d.mu.Unlock()

	if doState && d.stateCallback != nil {
		d.stateCallback()
	}
	if doPlaylist && d.playlistCallback != nil {
		d.playlistCallback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pendingState = false
	d.pendingPlaylist = false
}
