// Package playlist serializes cue points into playlist and tracklist formats.
package playlist

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/timefmt"
)

// LastTrackLength is the length in seconds written for the final entry,
// whose real end is not known to the exporters.
const LastTrackLength = 180

// UnknownArtist is written when no performer can be resolved.
const UnknownArtist = "Unknown Artist"

// ErrUnknownFormat is returned by Render for an unregistered format id.
var ErrUnknownFormat = errors.New("unknown playlist format")

// Export is the input shared by every serializer.
type Export struct {
	FileName  string         // Audio file name referenced by the playlist
	Performer string         // Default performer for cues without one
	MixTitle  string         // Heading for tracklists; defaults to the file name without extension
	Cues      []cue.CuePoint // Sorted by time
}

func (e Export) baseName() string {
	return strings.TrimSuffix(e.FileName, filepath.Ext(e.FileName))
}

func (e Export) defaultPerformer() string {
	if e.Performer != "" {
		return e.Performer
	}
	return UnknownArtist
}

// length returns the seconds until the next cue, or LastTrackLength for the
// final one.
func (e Export) length(i int) float64 {
	if i+1 < len(e.Cues) {
		return e.Cues[i+1].Time - e.Cues[i].Time
	}
	return LastTrackLength
}

// CUE renders a cue sheet with one TRACK block per cue.
func CUE(e Export) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PERFORMER \"%s\"\n", e.defaultPerformer())
	fmt.Fprintf(&b, "TITLE \"%s\"\n", e.baseName())
	fmt.Fprintf(&b, "FILE \"%s\" MP3\n", e.FileName)

	for i, c := range e.Cues {
		fmt.Fprintf(&b, "  TRACK %02d AUDIO\n", i+1)
		fmt.Fprintf(&b, "    TITLE \"%s\"\n", c.ExportTitle())
		fmt.Fprintf(&b, "    PERFORMER \"%s\"\n", c.ExportArtist(e.defaultPerformer()))
		fmt.Fprintf(&b, "    INDEX 01 %s\n", timefmt.Frames(c.Time))
	}
	return b.String()
}

// M3U renders an extended M3U playlist with media fragment offsets.
func M3U(e Export) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")

	for i, c := range e.Cues {
		fmt.Fprintf(&b, "#EXTINF:%d,%s - %s\n", int(math.Floor(e.length(i))), c.ExportArtist(e.Performer), c.ExportTitle())
		fmt.Fprintf(&b, "%s#t=%d\n", e.FileName, int(math.Floor(c.Time)))
	}
	return b.String()
}

// M3U8 renders an HLS-style VOD playlist with millisecond precision.
func M3U8(e Export) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")

	for i, c := range e.Cues {
		fmt.Fprintf(&b, "#EXTINF:%.3f,%s - %s\n", e.length(i), c.ExportArtist(e.Performer), c.ExportTitle())
		fmt.Fprintf(&b, "%s#t=%.3f\n", e.FileName, c.Time)
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}

// PLS renders a version 2 PLS playlist.
func PLS(e Export) string {
	var b strings.Builder
	b.WriteString("[playlist]\n")

	for i, c := range e.Cues {
		n := i + 1
		fmt.Fprintf(&b, "File%d=%s#t=%d\n", n, e.FileName, int(math.Floor(c.Time)))
		fmt.Fprintf(&b, "Title%d=%s - %s\n", n, c.ExportArtist(e.Performer), c.ExportTitle())
		fmt.Fprintf(&b, "Length%d=%d\n", n, int(math.Floor(e.length(i))))
	}
	fmt.Fprintf(&b, "NumberOfEntries=%d\n", len(e.Cues))
	b.WriteString("Version=2\n")
	return b.String()
}

func (e Export) mixTitle() string {
	if e.MixTitle != "" {
		return e.MixTitle
	}
	return e.baseName()
}

// Tracklist renders a numbered "NN - Artist - Title" list under the mix title.
func Tracklist(e Export) string {
	if len(e.Cues) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(e.mixTitle())
	b.WriteString("\n\n")
	for i, c := range sorted(e.Cues) {
		switch {
		case c.Artist != "" && c.Title != "":
			fmt.Fprintf(&b, "%02d - %s - %s\n", i+1, c.Artist, c.Title)
		case c.Name != "":
			fmt.Fprintf(&b, "%02d - %s\n", i+1, c.Name)
		default:
			fmt.Fprintf(&b, "%02d - Unknown Track\n", i+1)
		}
	}
	return strings.TrimSpace(b.String())
}

// TracklistTable renders a tab separated "#, Artist, Track" table.
func TracklistTable(e Export) string {
	if len(e.Cues) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(e.mixTitle())
	b.WriteString("\n\n#\tArtist\tTrack\n")
	for i, c := range sorted(e.Cues) {
		artist, title := c.Artist, c.Title
		if artist == "" || title == "" {
			switch {
			case c.Name == "":
				artist, title = UnknownArtist, "Unknown Track"
			case strings.Contains(c.Name, " - "):
				artist, title, _ = strings.Cut(c.Name, " - ")
				title, _, _ = strings.Cut(title, " - ")
			default:
				artist, title = UnknownArtist, c.Name
			}
		}
		fmt.Fprintf(&b, "%d\t%s\t%s\n", i+1, artist, title)
	}
	return strings.TrimSpace(b.String())
}

func sorted(cues []cue.CuePoint) []cue.CuePoint {
	out := append([]cue.CuePoint(nil), cues...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
