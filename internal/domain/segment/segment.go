// Package segment resolves which cue owns a playback position and derives the
// segment boundaries that playback, looping and navigation work against.
//
// All functions expect cues sorted by time, as returned by cue.Store.Cues.
// When several cues share a timestamp the first of them owns the segment and
// the others are zero-width.
package segment

import (
	"math"
	"sort"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
)

// Bounds is a half-open time range [Start, End).
type Bounds struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns End - Start.
func (b Bounds) Length() float64 {
	return b.End - b.Start
}

// Contains reports whether t falls inside the range.
func (b Bounds) Contains(t float64) bool {
	return t >= b.Start && t < b.End
}

// Track is the resolved segment owning a playback position.
type Track struct {
	Cue    cue.CuePoint `json:"cue"`
	Index  int          `json:"index"`
	Number int          `json:"number"` // 1-based
	Bounds Bounds       `json:"bounds"`
}

// ActiveIndex returns the index of the cue owning time t, or -1 when there are
// no cues or t lies before the first one.
func ActiveIndex(cues []cue.CuePoint, t float64) int {
	if len(cues) == 0 || math.IsNaN(t) || t < cues[0].Time {
		return -1
	}
	i := sort.Search(len(cues), func(i int) bool { return cues[i].Time > t }) - 1
	for i > 0 && cues[i-1].Time == cues[i].Time {
		i--
	}
	return i
}

// Successor returns the index of the first cue strictly later than cue i, or
// -1 when cue i starts the last segment.
func Successor(cues []cue.CuePoint, i int) int {
	if i < 0 || i >= len(cues) {
		return -1
	}
	for j := i + 1; j < len(cues); j++ {
		if cues[j].Time > cues[i].Time {
			return j
		}
	}
	return -1
}

// At returns the bounds of the segment starting at cue i.
func At(cues []cue.CuePoint, i int, duration float64) Bounds {
	if i < 0 || i >= len(cues) {
		return Bounds{}
	}
	end := duration
	if j := Successor(cues, i); j >= 0 {
		end = cues[j].Time
	}
	return Bounds{Start: cues[i].Time, End: end}
}

// Resolve returns the bounds around time t. Without cues the whole file is one
// segment; before the first cue the range runs from 0 to that cue.
func Resolve(cues []cue.CuePoint, t, duration float64) Bounds {
	if len(cues) == 0 {
		return Bounds{Start: 0, End: duration}
	}
	i := ActiveIndex(cues, t)
	if i < 0 {
		return Bounds{Start: 0, End: cues[0].Time}
	}
	return At(cues, i, duration)
}

// Current returns the track owning time t. ok is false before the first cue.
func Current(cues []cue.CuePoint, t, duration float64) (Track, bool) {
	i := ActiveIndex(cues, t)
	if i < 0 {
		return Track{}, false
	}
	return Track{
		Cue:    cues[i],
		Index:  i,
		Number: i + 1,
		Bounds: At(cues, i, duration),
	}, true
}

// Partition splits [0, duration) into contiguous segments: an unowned lead-in
// when the first cue is after zero, then one segment per distinct cue time.
func Partition(cues []cue.CuePoint, duration float64) []Bounds {
	if len(cues) == 0 {
		return []Bounds{{Start: 0, End: duration}}
	}
	var parts []Bounds
	if cues[0].Time > 0 {
		parts = append(parts, Bounds{Start: 0, End: cues[0].Time})
	}
	for i := 0; i >= 0; i = Successor(cues, i) {
		parts = append(parts, At(cues, i, duration))
	}
	return parts
}
