// Package cue holds the cue-point data model and the time-ordered store that
// owns it.
package cue

import (
	"fmt"
	"strings"
)

// CuePoint marks the start of a track inside a continuous recording.
type CuePoint struct {
	ID        string  `json:"id"`
	Time      float64 `json:"time"` // Seconds from the start of the file
	Name      string  `json:"name"`
	Artist    string  `json:"artist,omitempty"`
	Title     string  `json:"title,omitempty"`
	Performer string  `json:"performer,omitempty"` // Export override for the artist field
	Locked    bool    `json:"locked,omitempty"`
	Confirmed bool    `json:"confirmed,omitempty"`
}

// DisplayName returns "Artist - Title" when both are set, otherwise whichever
// one is present, falling back to Name.
func (c CuePoint) DisplayName() string {
	switch {
	case c.Artist != "" && c.Title != "":
		return c.Artist + " - " + c.Title
	case c.Title != "":
		return c.Title
	case c.Artist != "":
		return c.Artist
	default:
		return c.Name
	}
}

// ExportTitle is the title written to playlists.
func (c CuePoint) ExportTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// ExportArtist resolves the exported artist: Performer, then Artist, then
// the supplied fallback.
func (c CuePoint) ExportArtist(fallback string) string {
	if c.Performer != "" {
		return c.Performer
	}
	if c.Artist != "" {
		return c.Artist
	}
	return fallback
}

// DefaultName is the placeholder name given to the n-th cue (1-based).
func DefaultName(n int) string {
	return fmt.Sprintf("Cue %d", n)
}

// SplitArtistTitle splits "Artist - Title" on the first " - ". ok is false
// when the separator is missing or either side is empty.
func SplitArtistTitle(s string) (artist, title string, ok bool) {
	artist, title, found := strings.Cut(s, " - ")
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if !found || artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Time      *float64 `json:"time,omitempty"`
	Name      *string  `json:"name,omitempty"`
	Artist    *string  `json:"artist,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Performer *string  `json:"performer,omitempty"`
	Locked    *bool    `json:"locked,omitempty"`
	Confirmed *bool    `json:"confirmed,omitempty"`
}

// TimePatch is shorthand for a patch that only moves a cue.
func TimePatch(t float64) Patch {
	return Patch{Time: &t}
}

func (p Patch) apply(c *CuePoint) (timeChanged bool) {
	if p.Time != nil && *p.Time != c.Time {
		c.Time = *p.Time
		timeChanged = true
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Artist != nil {
		c.Artist = *p.Artist
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Performer != nil {
		c.Performer = *p.Performer
	}
	if p.Locked != nil {
		c.Locked = *p.Locked
	}
	if p.Confirmed != nil {
		c.Confirmed = *p.Confirmed
	}
	return timeChanged
}
