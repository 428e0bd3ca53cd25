package cuesheet_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/edumarques81/stellar-cue/internal/domain/cuesheet"
)

const fullSheet = `PERFORMER "DJ Example"
TITLE "Summer Mix"
FILE "summer mix.mp3" MP3
  TRACK 01 AUDIO
    TITLE "Opening"
    PERFORMER "Artist One"
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Second Song"
    INDEX 00 04:58:00
    INDEX 01 05:00:37
  TRACK 03 AUDIO
    TITLE "Artist Three - Closer"
    INDEX 01 71:10:74
`

func TestParseCueSheet(t *testing.T) {
	sheet, err := cuesheet.ParseString(fullSheet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sheet.Format != cuesheet.FormatCueSheet {
		t.Errorf("Format = %q, want cue", sheet.Format)
	}
	if sheet.Performer != "DJ Example" || sheet.Title != "Summer Mix" || sheet.File != "summer mix.mp3" {
		t.Errorf("header = %q / %q / %q", sheet.Performer, sheet.Title, sheet.File)
	}
	if len(sheet.Cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(sheet.Cues))
	}

	first := sheet.Cues[0]
	if first.Name != "Opening" || first.Artist != "Artist One" || first.Performer != "Artist One" || first.Time != 0 {
		t.Errorf("first = %+v", first)
	}

	second := sheet.Cues[1]
	if want := 300 + 37.0/75; math.Abs(second.Time-want) > 1e-9 {
		t.Errorf("second time = %v, want %v", second.Time, want)
	}
	if second.Performer != "DJ Example" {
		t.Errorf("second performer should fall back to sheet performer, got %q", second.Performer)
	}
	if second.Artist != "" {
		t.Errorf("second artist should stay empty, got %q", second.Artist)
	}

	third := sheet.Cues[2]
	if third.Artist != "Artist Three" || third.Title != "Closer" {
		t.Errorf("third should split artist from title: %+v", third)
	}
	if third.Name != "Artist Three - Closer" {
		t.Errorf("third name = %q", third.Name)
	}
	if want := 71*60 + 10 + 74.0/75; math.Abs(third.Time-want) > 1e-9 {
		t.Errorf("third time = %v, want %v (minutes are unbounded)", third.Time, want)
	}
}

func TestParseCueSheetSkipsMalformedIndex(t *testing.T) {
	content := `PERFORMER "X"
  TRACK 01 AUDIO
    TITLE "Good"
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Bad"
    INDEX 01 01:99:10
`
	sheet, err := cuesheet.ParseString(content)
	if err != nil {
		t.Fatalf("partial success must not fail: %v", err)
	}
	if len(sheet.Cues) != 1 {
		t.Fatalf("got %d cues, want 1", len(sheet.Cues))
	}
	if sheet.Cues[0].Name != "Good" {
		t.Errorf("kept the wrong cue: %+v", sheet.Cues[0])
	}
	if len(sheet.Skipped) == 0 {
		t.Error("the bad INDEX line should be reported")
	}
}

func TestParseCueSheetFramesOutOfRange(t *testing.T) {
	content := `  TRACK 01 AUDIO
    TITLE "Only"
    INDEX 01 00:10:75
`
	_, err := cuesheet.ParseString(content)
	if !errors.Is(err, cuesheet.ErrNoCuePoints) {
		t.Fatalf("expected ErrNoCuePoints, got %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := cuesheet.ParseString("")
	if !errors.Is(err, cuesheet.ErrNoCuePoints) {
		t.Fatalf("expected ErrNoCuePoints, got %v", err)
	}
}

func TestParseTrackWithoutTitleIsDropped(t *testing.T) {
	content := `  TRACK 01 AUDIO
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Named"
    INDEX 01 00:30:00
`
	sheet, err := cuesheet.ParseString(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sheet.Cues) != 1 || sheet.Cues[0].Name != "Named" {
		t.Errorf("cues = %+v", sheet.Cues)
	}
}

func TestParseCueSheetScopeFollowsIndentation(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantPerformer string
		wantTitle     string
		wantArtists   []string
		wantPerfs     []string
	}{
		{
			name: "unindented performer between tracks is global",
			content: "TRACK 01 AUDIO\n  TITLE \"A\"\n  INDEX 01 00:00:00\n" +
				"PERFORMER \"Global\"\n" +
				"TRACK 02 AUDIO\n  TITLE \"B\"\n  INDEX 01 01:00:00\n",
			wantPerformer: "Global",
			wantArtists:   []string{"", ""},
			wantPerfs:     []string{"Global", "Global"},
		},
		{
			name: "tab indented performer belongs to the track",
			content: "TRACK 01 AUDIO\n\tTITLE \"A\"\n\tPERFORMER \"Own\"\n\tINDEX 01 00:00:00\n" +
				"TRACK 02 AUDIO\n\tTITLE \"B\"\n\tINDEX 01 01:00:00\n" +
				"PERFORMER \"Late\"\n",
			wantPerformer: "Late",
			wantArtists:   []string{"Own", ""},
			wantPerfs:     []string{"Own", "Late"},
		},
		{
			name: "unindented title after a track names the sheet",
			content: "  TRACK 01 AUDIO\n    TITLE \"A\"\n    INDEX 01 00:00:00\n" +
				"TITLE \"Mix\"\n",
			wantTitle:   "Mix",
			wantArtists: []string{""},
			wantPerfs:   []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := cuesheet.ParseString(tt.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sheet.Performer != tt.wantPerformer || sheet.Title != tt.wantTitle {
				t.Errorf("header = %q / %q, want %q / %q", sheet.Performer, sheet.Title, tt.wantPerformer, tt.wantTitle)
			}
			if len(sheet.Cues) != len(tt.wantPerfs) {
				t.Fatalf("got %d cues, want %d", len(sheet.Cues), len(tt.wantPerfs))
			}
			for i, c := range sheet.Cues {
				if c.Artist != tt.wantArtists[i] || c.Performer != tt.wantPerfs[i] {
					t.Errorf("cue %d artist/performer = %q/%q, want %q/%q",
						i, c.Artist, c.Performer, tt.wantArtists[i], tt.wantPerfs[i])
				}
			}
		})
	}
}

func TestParseTimestampList(t *testing.T) {
	content := "Tracklist for tonight\r\n" +
		"0:00:00 Intro\r\n" +
		"1:02:03 Bonobo - Kerala\r\n" +
		"0:30:00 Four Tet - Baby\r\n" +
		"0:75:00 Broken - Line\r\n"

	sheet, err := cuesheet.ParseString(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sheet.Format != cuesheet.FormatTimestamps {
		t.Fatalf("Format = %q, want timestamps", sheet.Format)
	}
	if len(sheet.Cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(sheet.Cues))
	}

	// sorted by time
	if sheet.Cues[1].Time != 1800 || sheet.Cues[2].Time != 3723 {
		t.Errorf("times = %v, %v", sheet.Cues[1].Time, sheet.Cues[2].Time)
	}
	if sheet.Cues[0].Name != "Intro" || sheet.Cues[0].Artist != "" {
		t.Errorf("intro = %+v", sheet.Cues[0])
	}
	last := sheet.Cues[2]
	if last.Artist != "Bonobo" || last.Title != "Kerala" || last.Name != "Bonobo - Kerala" {
		t.Errorf("last = %+v", last)
	}
	if len(sheet.Skipped) != 2 {
		t.Errorf("expected the header and the invalid minutes line to be skipped, got %+v", sheet.Skipped)
	}
}

func TestDetect(t *testing.T) {
	if got := cuesheet.Detect(strings.Split(fullSheet, "\n")); got != cuesheet.FormatCueSheet {
		t.Errorf("Detect(cue) = %q", got)
	}
	if got := cuesheet.Detect([]string{"REM x", "  00:01:00 Something"}); got != cuesheet.FormatTimestamps {
		t.Errorf("Detect(timestamps) = %q", got)
	}
}
