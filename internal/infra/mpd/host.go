package mpd

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/edumarques81/stellar-cue/internal/domain/session"
	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// Host plays the session's file through MPD.
type Host struct {
	client   *Client
	musicDir string

	rateOnce sync.Once
}

// NewHost creates a media host. Files under musicDir are opened by their
// library path; anything else is handed to MPD as a file:// URI, which MPD
// only accepts over a local socket.
func NewHost(client *Client, musicDir string) *Host {
	return &Host{client: client, musicDir: musicDir}
}

// URI maps a local path to what MPD should queue.
func (h *Host) URI(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if h.musicDir != "" {
		if rel, err := filepath.Rel(h.musicDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	if filepath.IsAbs(path) {
		return "file://" + path
	}
	return filepath.ToSlash(path)
}

// Open queues path as the only song and leaves it paused at the start.
func (h *Host) Open(path string) error {
	uri := h.URI(path)
	log.Info().Str("uri", uri).Msg("Opening file in MPD")

	if err := h.client.Replace(uri); err != nil {
		return err
	}
	if err := h.client.Play(0); err != nil {
		return fmt.Errorf("failed to start %s: %w", uri, err)
	}
	return h.client.Pause(true)
}

// Status reads the playhead, duration and output format.
func (h *Host) Status() (session.HostStatus, error) {
	attrs, err := h.client.Status()
	if err != nil {
		return session.HostStatus{}, err
	}
	return statusFromAttrs(attrs), nil
}

func statusFromAttrs(attrs mpd.Attrs) session.HostStatus {
	st := session.HostStatus{
		Paused:  attrs["state"] == "pause",
		Stopped: attrs["state"] == "stop" || attrs["state"] == "",
	}

	st.CurrentTime, _ = strconv.ParseFloat(attrs["elapsed"], 64)
	st.Duration, _ = strconv.ParseFloat(attrs["duration"], 64)

	// Older servers only report "time" as "elapsed:total" in whole seconds.
	if elapsed, total, ok := strings.Cut(attrs["time"], ":"); ok {
		if st.CurrentTime == 0 {
			st.CurrentTime, _ = strconv.ParseFloat(elapsed, 64)
		}
		if st.Duration == 0 {
			st.Duration, _ = strconv.ParseFloat(total, 64)
		}
	}

	if f, ok := ParseAudioFormat(attrs["audio"]); ok {
		st.Format = f.String()
	}
	return st
}

// Seek moves the playhead in the current song.
func (h *Host) Seek(t float64) error {
	return h.client.SeekCur(t)
}

// Play resumes the current song, or starts it again after it ended.
func (h *Host) Play() error {
	attrs, err := h.client.Status()
	if err != nil {
		return err
	}
	if attrs["state"] == "pause" {
		return h.client.Pause(false)
	}
	return h.client.Play(0)
}

// Pause pauses playback.
func (h *Host) Pause() error {
	return h.client.Pause(true)
}

// SetPlaybackRate is accepted but ignored: MPD has no tempo control.
func (h *Host) SetPlaybackRate(rate float64) error {
	if rate != 1 {
		h.rateOnce.Do(func() {
			log.Warn().Float64("rate", rate).Msg("MPD cannot change playback rate, pitch is display only")
		})
	}
	return nil
}

// SetVolume sets the mixer volume from a 0-1 gain.
func (h *Host) SetVolume(gain float64) error {
	if math.IsNaN(gain) {
		gain = 0
	}
	return h.client.SetVolume(int(math.Round(gain * 100)))
}

// Watch calls onChange whenever MPD reports a player or mixer change, until
// ctx is done.
func (h *Host) Watch(ctx context.Context, onChange func()) error {
	events, err := h.client.Watch(ctx, "player", "mixer")
	if err != nil {
		return err
	}

	go func() {
		for subsystem := range events {
			log.Debug().Str("subsystem", subsystem).Msg("MPD change")
			onChange()
		}
	}()
	return nil
}

var _ session.Host = (*Host)(nil)
