// Package cuesheet turns cue sheets, timestamped track lists and plain
// tracklists into cue points.
package cuesheet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/timefmt"
)

var (
	// ErrNoCuePoints is returned when a document yields no usable cue.
	ErrNoCuePoints = errors.New("no valid cue points found")

	// ErrNoTracks is returned when a tracklist contains no recognizable track.
	ErrNoTracks = errors.New("no tracks found")

	// ErrDurationUnknown is returned when cues must be spread over a file
	// whose length is not known yet.
	ErrDurationUnknown = errors.New("audio duration unknown")
)

// Format identifies the grammar a document was parsed with.
type Format string

const (
	FormatCueSheet   Format = "cue"
	FormatTimestamps Format = "timestamps"
)

var (
	timestampProbe = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}\s+.+`)
	timestampLine  = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})\s+(.+)$`)
	quotedArg      = regexp.MustCompile(`^\S+\s+"(.+)"`)
	bareArg        = regexp.MustCompile(`^\S+\s+(\S.*)$`)
	indexLine      = regexp.MustCompile(`^INDEX\s+01\s+(\d+:\d{1,2}:\d{1,2})`)
)

// LineError records an input line that was skipped.
type LineError struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Sheet is the result of parsing a cue document.
type Sheet struct {
	Format    Format
	Performer string // Sheet-level PERFORMER
	Title     string // Sheet-level TITLE
	File      string // FILE name, without the type
	Cues      []cue.CuePoint
	Skipped   []LineError
}

// Parse reads a cue sheet or a timestamped track list. Any line starting with
// H:MM:SS followed by text selects the timestamp grammar. Malformed lines are
// skipped and reported in Sheet.Skipped; a document with no usable cue fails
// with ErrNoCuePoints. Returned cues are sorted by time and carry no ids.
func Parse(r io.Reader) (*Sheet, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	var sheet *Sheet
	if Detect(lines) == FormatTimestamps {
		sheet = parseTimestamps(lines)
	} else {
		sheet = parseCueSheet(lines)
	}

	if len(sheet.Cues) == 0 {
		if n := len(sheet.Skipped); n > 0 {
			return sheet, fmt.Errorf("%w (%s)", ErrNoCuePoints, sheet.Skipped[n-1].Error())
		}
		return sheet, ErrNoCuePoints
	}

	sort.SliceStable(sheet.Cues, func(i, j int) bool {
		return sheet.Cues[i].Time < sheet.Cues[j].Time
	})
	return sheet, nil
}

// ParseString is Parse for in-memory content.
func ParseString(content string) (*Sheet, error) {
	return Parse(strings.NewReader(content))
}

// Detect reports which grammar applies to the given lines.
func Detect(lines []string) Format {
	for _, line := range lines {
		if timestampProbe.MatchString(strings.TrimSpace(line)) {
			return FormatTimestamps
		}
	}
	return FormatCueSheet
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cue content: %w", err)
	}
	return lines, nil
}

// trackDraft accumulates one TRACK block until the next one starts.
type trackDraft struct {
	cue     cue.CuePoint
	hasTime bool
	line    int
}

func parseCueSheet(lines []string) *Sheet {
	sheet := &Sheet{Format: FormatCueSheet}
	var current *trackDraft

	flush := func() {
		if current == nil {
			return
		}
		switch {
		case !current.hasTime:
			sheet.Skipped = append(sheet.Skipped, LineError{
				Line: current.line, Text: lines[current.line-1], Reason: "track has no valid INDEX 01",
			})
		case current.cue.Name == "":
			sheet.Skipped = append(sheet.Skipped, LineError{
				Line: current.line, Text: lines[current.line-1], Reason: "track has no TITLE",
			})
		default:
			sheet.Cues = append(sheet.Cues, current.cue)
		}
		current = nil
	}

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		keyword := strings.ToUpper(strings.Fields(trimmed)[0])
		// Only indented TITLE and PERFORMER lines belong to the open track.
		inTrack := current != nil && indented(raw)

		switch keyword {
		case "TRACK":
			flush()
			current = &trackDraft{line: i + 1}

		case "TITLE":
			value := argument(trimmed)
			if !inTrack {
				sheet.Title = value
				continue
			}
			current.cue.Title = value
			current.cue.Name = value

		case "PERFORMER":
			value := argument(trimmed)
			if !inTrack {
				sheet.Performer = value
				continue
			}
			current.cue.Performer = value
			current.cue.Artist = value

		case "FILE":
			if current == nil {
				sheet.File = fileArgument(trimmed)
			}

		case "INDEX":
			if current == nil {
				continue
			}
			m := indexLine.FindStringSubmatch(strings.ToUpper(trimmed))
			if m == nil {
				// INDEX 00 and other pregap markers are not track starts.
				continue
			}
			tc, err := timefmt.ParseTimecode(m[1])
			if err != nil {
				sheet.Skipped = append(sheet.Skipped, LineError{Line: i + 1, Text: raw, Reason: err.Error()})
				continue
			}
			current.cue.Time = tc.InSeconds()
			current.hasTime = true
		}
	}
	flush()

	for i := range sheet.Cues {
		if sheet.Cues[i].Performer == "" {
			sheet.Cues[i].Performer = sheet.Performer
		}
	}

	// A track title written as "Artist - Title" without a track performer
	// carries the artist in the title.
	for i := range sheet.Cues {
		c := &sheet.Cues[i]
		if c.Artist != "" {
			continue
		}
		if artist, title, ok := cue.SplitArtistTitle(c.Title); ok {
			c.Artist = artist
			c.Title = title
		}
	}

	return sheet
}

func indented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func parseTimestamps(lines []string) *Sheet {
	sheet := &Sheet{Format: FormatTimestamps}

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		m := timestampLine.FindStringSubmatch(trimmed)
		if m == nil {
			sheet.Skipped = append(sheet.Skipped, LineError{Line: i + 1, Text: raw, Reason: "no leading H:MM:SS timestamp"})
			continue
		}

		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])
		if minutes >= 60 || seconds >= 60 {
			sheet.Skipped = append(sheet.Skipped, LineError{Line: i + 1, Text: raw, Reason: "minutes and seconds must be below 60"})
			continue
		}

		info := strings.TrimSpace(m[4])
		c := cue.CuePoint{
			Time: float64(hours*3600 + minutes*60 + seconds),
			Name: info,
		}
		if artist, title, ok := cue.SplitArtistTitle(info); ok {
			c.Artist = artist
			c.Title = title
		}
		sheet.Cues = append(sheet.Cues, c)
	}

	return sheet
}

// argument returns the quoted argument of a command line, or the remainder of
// the line when it is not quoted.
func argument(line string) string {
	if m := quotedArg.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareArg.FindStringSubmatch(line); m != nil {
		return strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	return ""
}

// fileArgument strips the trailing file type from a FILE line.
func fileArgument(line string) string {
	if m := quotedArg.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		return fields[1]
	}
	return ""
}
