package timefmt_test

import (
	"errors"
	"math"
	"testing"

	"github.com/edumarques81/stellar-cue/internal/domain/timefmt"
)

func TestFrames(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{"zero", 0, "00:00:00"},
		{"sub-second", 0.5, "00:00:37"},
		{"one minute five", 65.3, "01:05:22"},
		{"unbounded minutes", 6000, "100:00:00"},
		{"just below next second", 1.9999, "00:01:74"},
		{"negative clamps to zero", -4, "00:00:00"},
		{"NaN clamps to zero", math.NaN(), "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timefmt.Frames(tt.seconds); got != tt.expected {
				t.Errorf("Frames(%v) = %q, want %q", tt.seconds, got, tt.expected)
			}
		})
	}
}

func TestClockAndPrecise(t *testing.T) {
	tests := []struct {
		seconds float64
		clock   string
		precise string
		short   string
	}{
		{0, "00:00:00", "00:00:00.00", "0:00"},
		{59.99, "00:00:59", "00:00:59.99", "0:59"},
		{3725.5, "01:02:05", "01:02:05.50", "62:05"},
		{36000, "10:00:00", "10:00:00.00", "600:00"},
	}

	for _, tt := range tests {
		if got := timefmt.Clock(tt.seconds); got != tt.clock {
			t.Errorf("Clock(%v) = %q, want %q", tt.seconds, got, tt.clock)
		}
		if got := timefmt.Precise(tt.seconds); got != tt.precise {
			t.Errorf("Precise(%v) = %q, want %q", tt.seconds, got, tt.precise)
		}
		if got := timefmt.Short(tt.seconds); got != tt.short {
			t.Errorf("Short(%v) = %q, want %q", tt.seconds, got, tt.short)
		}
	}
}

func TestParseTimecode(t *testing.T) {
	tests := []struct {
		input   string
		want    timefmt.Timecode
		wantErr bool
	}{
		{"01:05:22", timefmt.Timecode{Minutes: 1, Seconds: 5, Frames: 22}, false},
		{"120:00:00", timefmt.Timecode{Minutes: 120}, false},
		{"1:2:3", timefmt.Timecode{Minutes: 1, Seconds: 2, Frames: 3}, false},
		{"01:60:00", timefmt.Timecode{}, true},
		{"01:00:75", timefmt.Timecode{}, true},
		{"01:00", timefmt.Timecode{}, true},
		{"aa:00:00", timefmt.Timecode{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := timefmt.ParseTimecode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, timefmt.ErrInvalidTimecode) {
					t.Fatalf("expected ErrInvalidTimecode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTimecode(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimecodeRoundTripWithinOneFrame(t *testing.T) {
	for _, secs := range []float64{0, 1.01, 65.3, 599.99, 3600.5} {
		back := timefmt.FromSeconds(secs).InSeconds()
		if diff := secs - back; diff < 0 || diff >= 1.0/timefmt.FramesPerSecond {
			t.Errorf("round trip of %v gave %v", secs, back)
		}
	}
}
