package cuesheet

import (
	"math"
	"regexp"
	"strings"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
)

// Track is one artist/title pair from an untimed tracklist.
type Track struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// Tracklist line layouts, tried in order: "01 - Artist - Title", tab
// separated, columns separated by two or more spaces, "01. Artist - Title"
// and a bare "Artist - Title". Artist and title are the last two groups.
var tracklistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d+)\s*-\s*([^-]+?)\s*-\s*(.+)$`),
	regexp.MustCompile(`^(\d+)\s*\t+([^\t]+?)\t+(.+)$`),
	regexp.MustCompile(`^(\d+)\s+(.+?)\s{2,}(.+)$`),
	regexp.MustCompile(`^(\d+)\.?\s*(.+?)\s*[-–]\s*(.+)$`),
	regexp.MustCompile(`^(.+?)\s*[-–]\s*(.+)$`),
}

// ParseTracklist extracts artist/title pairs from pasted tracklist text.
// Table headers (a line naming "#", "Artist" and "Track") are ignored.
func ParseTracklist(text string) ([]Track, error) {
	var tracks []Track

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if line == "" || isTableHeader(line) {
			continue
		}

		for _, p := range tracklistPatterns {
			m := p.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			artist := strings.TrimSpace(m[len(m)-2])
			title := strings.TrimSpace(m[len(m)-1])
			if artist != "" && title != "" {
				tracks = append(tracks, Track{Artist: artist, Title: title})
			}
			break
		}
	}

	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	return tracks, nil
}

func isTableHeader(line string) bool {
	return strings.Contains(line, "#") && strings.Contains(line, "Artist") && strings.Contains(line, "Track")
}

// Distribute spreads tracks evenly over duration: track i starts at
// i*duration/n, and no start lands within the final second.
func Distribute(tracks []Track, duration float64) ([]cue.CuePoint, error) {
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return nil, ErrDurationUnknown
	}

	n := float64(len(tracks))
	cues := make([]cue.CuePoint, len(tracks))
	for i, t := range tracks {
		start := math.Min(float64(i)*duration/n, duration-1)
		cues[i] = cue.CuePoint{
			Time:      math.Max(0, start),
			Name:      t.Title,
			Artist:    t.Artist,
			Title:     t.Title,
			Performer: t.Artist,
		}
	}
	return cues, nil
}
