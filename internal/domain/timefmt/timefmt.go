// Package timefmt renders playback positions in the textual forms used by the
// editor, the playlist exporters and the CUE sheet grammar.
package timefmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FramesPerSecond is the CD frame rate used by CUE sheet INDEX lines.
const FramesPerSecond = 75

// ErrInvalidTimecode is returned when a MM:SS:FF string cannot be parsed.
var ErrInvalidTimecode = errors.New("invalid timecode")

// Timecode is a CUE sheet position in minutes, seconds and frames.
// Minutes are unbounded.
type Timecode struct {
	Minutes int
	Seconds int
	Frames  int
}

// FromSeconds converts a position in seconds to a Timecode.
// The frame count is floored and clamped to [0, 74].
func FromSeconds(t float64) Timecode {
	t = sanitize(t)
	whole := math.Floor(t)
	frames := int(math.Floor((t - whole) * FramesPerSecond))
	if frames < 0 {
		frames = 0
	} else if frames > FramesPerSecond-1 {
		frames = FramesPerSecond - 1
	}
	secs := int(whole)
	return Timecode{Minutes: secs / 60, Seconds: secs % 60, Frames: frames}
}

// String returns the MM:SS:FF form.
func (tc Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", tc.Minutes, tc.Seconds, tc.Frames)
}

// InSeconds returns the position in seconds.
func (tc Timecode) InSeconds() float64 {
	return float64(tc.Minutes*60+tc.Seconds) + float64(tc.Frames)/FramesPerSecond
}

// ParseTimecode parses a MM:SS:FF string. Seconds must be below 60 and frames
// below 75.
func ParseTimecode(s string) (Timecode, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Timecode{}, fmt.Errorf("%w: %q must be MM:SS:FF", ErrInvalidTimecode, s)
	}

	minutes, err := strconv.Atoi(parts[0])
	if err != nil || minutes < 0 {
		return Timecode{}, fmt.Errorf("%w: bad minutes %q", ErrInvalidTimecode, parts[0])
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil || seconds < 0 {
		return Timecode{}, fmt.Errorf("%w: bad seconds %q", ErrInvalidTimecode, parts[1])
	}
	if seconds >= 60 {
		return Timecode{}, fmt.Errorf("%w: seconds %d exceed 59", ErrInvalidTimecode, seconds)
	}
	frames, err := strconv.Atoi(parts[2])
	if err != nil || frames < 0 {
		return Timecode{}, fmt.Errorf("%w: bad frames %q", ErrInvalidTimecode, parts[2])
	}
	if frames >= FramesPerSecond {
		return Timecode{}, fmt.Errorf("%w: frames %d must be below %d", ErrInvalidTimecode, frames, FramesPerSecond)
	}

	return Timecode{Minutes: minutes, Seconds: seconds, Frames: frames}, nil
}

// Frames formats t as MM:SS:FF.
func Frames(t float64) string {
	return FromSeconds(t).String()
}

// Clock formats t as HH:MM:SS.
func Clock(t float64) string {
	h, m, s := split(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Precise formats t as HH:MM:SS.CC where CC is hundredths of a second.
func Precise(t float64) string {
	t = sanitize(t)
	h, m, s := split(t)
	centis := int(math.Floor((t - math.Floor(t)) * 100))
	if centis > 99 {
		centis = 99
	}
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, centis)
}

// Short formats t as M:SS, the compact form used in marker tooltips.
func Short(t float64) string {
	secs := int(math.Floor(sanitize(t)))
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func split(t float64) (h, m, s int) {
	secs := int(math.Floor(sanitize(t)))
	return secs / 3600, (secs % 3600) / 60, secs % 60
}

// sanitize maps negative, NaN and infinite inputs to zero.
func sanitize(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return 0
	}
	return t
}
