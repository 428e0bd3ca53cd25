package mpd

import (
	"strconv"
	"strings"
)

// AudioFormat is the output format MPD reports for the playing song.
type AudioFormat struct {
	SampleRate int    `json:"sampleRate"` // Sample rate in Hz (44100, 96000, 192000, etc.)
	BitDepth   int    `json:"bitDepth"`   // Bit depth (16, 24, 32), 0 for float or DSD
	Channels   int    `json:"channels"`   // Number of channels (usually 2)
	Format     string `json:"format"`     // Format string ("PCM", "DSD64", "DSD128", etc.)
}

// ParseAudioFormat parses MPD's audio field.
// Format: "samplerate:bits:channels" (e.g., "192000:24:2"); bits may be "f"
// for float or "dsd". DSD is indicated by special sample rates.
func ParseAudioFormat(audio string) (AudioFormat, bool) {
	parts := strings.Split(audio, ":")
	if len(parts) < 2 {
		return AudioFormat{}, false
	}

	sampleRate, err := strconv.Atoi(parts[0])
	if err != nil || sampleRate <= 0 {
		return AudioFormat{}, false
	}

	bitDepth, err := strconv.Atoi(parts[1])
	if err != nil {
		if parts[1] != "f" && parts[1] != "dsd" {
			return AudioFormat{}, false
		}
		bitDepth = 0
	}

	channels := 2 // Default to stereo
	if len(parts) >= 3 {
		if ch, err := strconv.Atoi(parts[2]); err == nil {
			channels = ch
		}
	}

	return AudioFormat{
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Channels:   channels,
		Format:     detectAudioFormatType(sampleRate),
	}, true
}

// String renders the format for display, e.g. "PCM 96kHz 24-bit".
func (f AudioFormat) String() string {
	if f.Format != "PCM" {
		return f.Format
	}
	s := f.Format + " " + FormatSampleRate(f.SampleRate)
	if f.BitDepth > 0 {
		s += " " + FormatBitDepth(f.BitDepth)
	}
	return s
}

// detectAudioFormatType returns a human-readable format type.
func detectAudioFormatType(sampleRate int) string {
	// DSD64 = 2822400 Hz (64x CD rate)
	switch sampleRate {
	case 2822400:
		return "DSD64"
	case 5644800:
		return "DSD128"
	case 11289600:
		return "DSD256"
	case 22579200:
		return "DSD512"
	default:
		return "PCM"
	}
}

// FormatSampleRate returns a human-readable sample rate string.
func FormatSampleRate(sampleRate int) string {
	if sampleRate >= 1000000 {
		return detectAudioFormatType(sampleRate)
	}
	if sampleRate >= 1000 {
		return strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64) + "kHz"
	}
	return strconv.Itoa(sampleRate) + "Hz"
}

// FormatBitDepth returns a human-readable bit depth string.
func FormatBitDepth(bitDepth int) string {
	return strconv.Itoa(bitDepth) + "-bit"
}
