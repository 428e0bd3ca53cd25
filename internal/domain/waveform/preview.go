package waveform

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/segment"
	"golang.org/x/image/draw"
)

// Preview colours.
var (
	BackgroundColor = color.RGBA{R: 0x12, G: 0x12, B: 0x18, A: 0xff}
	PlayedColor     = color.RGBA{R: 0x4f, G: 0xc3, B: 0xf7, A: 0xff}
	UnplayedColor   = color.RGBA{R: 0x55, G: 0x5b, B: 0x6e, A: 0xff}
	CueColor        = color.RGBA{R: 0xff, G: 0xb3, B: 0x00, A: 0xff}
	LockedCueColor  = color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	ActiveColor     = color.RGBA{R: 0x81, G: 0x8c, B: 0xa8, A: 0xff}
	PlayheadColor   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

const previewSourceHeight = 128

// PreviewOptions controls the size of a rendered preview.
type PreviewOptions struct {
	Width    int
	Height   int
	Playhead float64 // Seconds; bars before it use PlayedColor

	// Active highlights the unplayed part of the current segment. A zero
	// length range disables it.
	Active segment.Bounds
}

// Preview draws the visible part of the waveform with cue lines at one pixel
// per bar, then scales it to the requested size.
func (m *Mapper) Preview(cues []cue.CuePoint, opts PreviewOptions) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid preview size %dx%d", opts.Width, opts.Height)
	}

	first := int(m.pan)
	count := int(m.VisibleBars() + 0.5)
	if count < 1 {
		count = 1
	}

	src := image.NewRGBA(image.Rect(0, 0, count, previewSourceHeight))
	draw.Draw(src, src.Bounds(), &image.Uniform{C: BackgroundColor}, image.Point{}, draw.Src)

	playedIndex := m.TimeToIndex(opts.Playhead)
	activeStart, activeEnd := m.TimeToIndex(opts.Active.Start), m.TimeToIndex(opts.Active.End)
	mid := previewSourceHeight / 2
	for x := 0; x < count; x++ {
		idx := first + x
		if idx >= len(m.peaks) {
			break
		}
		half := int(m.peaks[idx] * float64(mid))
		c := UnplayedColor
		switch {
		case float64(idx) < playedIndex:
			c = PlayedColor
		case float64(idx) >= activeStart && float64(idx) < activeEnd:
			c = ActiveColor
		}
		for y := mid - half; y <= mid+half; y++ {
			src.SetRGBA(x, y, c)
		}
	}

	for _, cp := range cues {
		x := int(m.TimeToIndex(cp.Time)) - first
		if x < 0 || x >= count {
			continue
		}
		c := CueColor
		if cp.Locked {
			c = LockedCueColor
		}
		for y := 0; y < previewSourceHeight; y++ {
			src.SetRGBA(x, y, c)
		}
	}

	if x := int(playedIndex) - first; x >= 0 && x < count {
		for y := 0; y < previewSourceHeight; y++ {
			src.SetRGBA(x, y, PlayheadColor)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

// WritePreviewPNG renders a preview and encodes it as PNG.
func (m *Mapper) WritePreviewPNG(w io.Writer, cues []cue.CuePoint, opts PreviewOptions) error {
	img, err := m.Preview(cues, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}
