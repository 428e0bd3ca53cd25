package waveform_test

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/waveform"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func newMapper(t *testing.T) *waveform.Mapper {
	t.Helper()
	m := waveform.NewMapper(800)
	m.SetPeaks(make([]float64, 1000))
	m.SetDuration(600)
	return m
}

func TestInverseMappings(t *testing.T) {
	m := newMapper(t)

	views := []struct {
		name string
		zoom float64
		x    float64
	}{
		{"unzoomed", 1, 0},
		{"zoomed", 4, 200},
		{"max zoom", 20, 650},
	}

	for _, v := range views {
		t.Run(v.name, func(t *testing.T) {
			m.ResetZoom()
			m.ZoomAt(v.zoom, v.x)
			for _, idx := range []float64{0, 10, 333.3, 999} {
				if got := m.PixelToIndex(m.IndexToPixel(idx)); !approx(got, idx) {
					t.Errorf("index %v round-tripped to %v", idx, got)
				}
			}
			for _, sec := range []float64{0, 12.5, 300, 599} {
				if got := m.PixelToTime(m.TimeToPixel(sec)); !approx(got, sec) {
					t.Errorf("time %v round-tripped to %v", sec, got)
				}
			}
		})
	}
}

func TestZoomAnchorsBarUnderPointer(t *testing.T) {
	m := newMapper(t)

	// At zoom 1 one bar is 0.8px wide, so x=200 sits over bar 250.
	before := m.PixelToIndex(200)
	m.ZoomAt(4, 200)

	if m.Zoom() != 4 {
		t.Fatalf("zoom = %v, want 4", m.Zoom())
	}
	if got := m.PixelToIndex(200); !approx(got, before) {
		t.Errorf("anchor moved from bar %v to %v", before, got)
	}
	if !approx(m.Pan(), 187.5) {
		t.Errorf("pan = %v, want 187.5", m.Pan())
	}
}

func TestZoomAnchorWithPan(t *testing.T) {
	m := newMapper(t)
	m.ZoomAt(2, 0)
	m.SetPan(250)

	// 800px over 500 visible bars: x=200 is bar 375.
	if got := m.PixelToIndex(200); !approx(got, 375) {
		t.Fatalf("anchor bar = %v, want 375", got)
	}
	m.ZoomAt(8, 200)
	if got := m.PixelToIndex(200); !approx(got, 375) {
		t.Errorf("anchor moved to %v", got)
	}
	if !approx(m.Pan(), 343.75) {
		t.Errorf("pan = %v, want 343.75", m.Pan())
	}
}

func TestZoomClamps(t *testing.T) {
	m := newMapper(t)

	m.ZoomAt(100, 400)
	if m.Zoom() != waveform.MaxZoom {
		t.Errorf("zoom = %v, want %v", m.Zoom(), waveform.MaxZoom)
	}
	m.ZoomAt(0.1, 400)
	if m.Zoom() != waveform.MinZoom || m.Pan() != 0 {
		t.Errorf("zoom = %v pan = %v, want min zoom and zero pan", m.Zoom(), m.Pan())
	}
}

func TestPanStaysInRange(t *testing.T) {
	m := newMapper(t)
	m.ZoomAt(4, 0)

	m.PanBy(10_000)
	if m.Pan() != 0 {
		t.Errorf("pan = %v after dragging past start", m.Pan())
	}
	m.PanBy(-10_000)
	if m.Pan() != m.MaxPan() {
		t.Errorf("pan = %v, want max %v", m.Pan(), m.MaxPan())
	}
	if m.TimelinePosition() != 100 {
		t.Errorf("timeline = %v, want 100", m.TimelinePosition())
	}

	m.SetTimelinePosition(50)
	if !approx(m.Pan(), m.MaxPan()/2) {
		t.Errorf("pan = %v, want %v", m.Pan(), m.MaxPan()/2)
	}
}

func TestWheel(t *testing.T) {
	m := newMapper(t)
	m.Wheel(-1, 400)
	if !approx(m.Zoom(), waveform.WheelZoomIn) {
		t.Errorf("zoom after wheel up = %v", m.Zoom())
	}
	m.Wheel(1, 400)
	if !approx(m.Zoom(), waveform.WheelZoomIn*waveform.WheelZoomOut) {
		t.Errorf("zoom after wheel down = %v", m.Zoom())
	}
}

func TestFollow(t *testing.T) {
	m := newMapper(t)
	if m.Follow(500) {
		t.Error("unzoomed view should never follow")
	}

	m.ZoomAt(4, 0) // 250 bars visible, first 150s
	if m.Follow(100) {
		t.Error("playhead inside view should not move it")
	}
	if !m.Follow(300) {
		t.Fatal("playhead outside view should move it")
	}
	start, end := m.VisibleRange()
	if 300 < start || 300 > end {
		t.Errorf("playhead 300 outside view [%v, %v]", start, end)
	}
}

func TestSetPeaksFollowsLength(t *testing.T) {
	m := waveform.NewMapper(800)
	if m.Bars() != waveform.DefaultBars {
		t.Errorf("bars = %d, want %d", m.Bars(), waveform.DefaultBars)
	}
	m.SetPeaks([]float64{0.1, 0.2})
	if m.Bars() != 2 {
		t.Errorf("bars = %d, want 2", m.Bars())
	}
	m.SetPeaks(nil)
	if m.Bars() != waveform.DefaultBars {
		t.Errorf("bars = %d after reset", m.Bars())
	}
}

func TestHitTest(t *testing.T) {
	m := newMapper(t)
	cues := []cue.CuePoint{
		{ID: "a", Time: 60},  // x = 80
		{ID: "b", Time: 66},  // x = 88
		{ID: "c", Time: 300}, // x = 400
	}

	tests := []struct {
		name   string
		x, y   float64
		in     waveform.Interaction
		wantID string
	}{
		{"centre", 400, 10, waveform.Interaction{}, "c"},
		{"edge of radius", 408, 10, waveform.Interaction{}, "c"},
		{"just outside", 409, 10, waveform.Interaction{}, ""},
		{"hovered grows", 409, 10, waveform.Interaction{HoveredID: "c"}, "c"},
		{"dragging grows", 410, 10, waveform.Interaction{DraggingID: "c"}, "c"},
		{"below band", 400, 21, waveform.Interaction{}, ""},
		{"nearest wins", 85, 10, waveform.Interaction{}, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.HitTest(cues, tt.x, tt.y, tt.in)
			if tt.wantID == "" {
				if ok {
					t.Errorf("unexpected hit on %q", got.ID)
				}
				return
			}
			if !ok || got.ID != tt.wantID {
				t.Errorf("hit = %q (%v), want %q", got.ID, ok, tt.wantID)
			}
		})
	}
}

func TestHitTestLine(t *testing.T) {
	m := newMapper(t)
	cues := []cue.CuePoint{{ID: "a", Time: 300}}

	if c, ok := m.HitTestLine(cues, 407); !ok || c.ID != "a" {
		t.Errorf("expected line hit, got %v", ok)
	}
	if _, ok := m.HitTestLine(cues, 409); ok {
		t.Error("expected miss beyond tolerance")
	}
}

func TestDrawRadius(t *testing.T) {
	in := waveform.Interaction{HoveredID: "h", DraggingID: "d"}
	if in.DrawRadius("x") != waveform.MarkerRadius {
		t.Error("plain marker radius")
	}
	if in.DrawRadius("h") != waveform.HoverMarkerRadius {
		t.Error("hovered marker radius")
	}
	if in.DrawRadius("d") != waveform.DraggedMarkerRadius {
		t.Error("dragged marker radius")
	}
}

func TestBeginDrag(t *testing.T) {
	m := newMapper(t)
	cues := []cue.CuePoint{
		{ID: "free", Time: 60},
		{ID: "pinned", Time: 300, Locked: true},
	}

	d, err := m.BeginDrag(cues, 80, 10, waveform.Interaction{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.CueID != "free" || d.Origin != 60 {
		t.Errorf("drag = %+v", d)
	}

	if _, err := m.BeginDrag(cues, 400, 10, waveform.Interaction{}); !errors.Is(err, waveform.ErrCueLocked) {
		t.Errorf("expected ErrCueLocked, got %v", err)
	}
	if _, err := m.BeginDrag(cues, 600, 10, waveform.Interaction{}); !errors.Is(err, waveform.ErrNoCueAtPosition) {
		t.Errorf("expected ErrNoCueAtPosition, got %v", err)
	}
}

func TestDragMoveClamps(t *testing.T) {
	m := newMapper(t)
	d, err := m.BeginDrag([]cue.CuePoint{{ID: "a", Time: 60}}, 80, 10, waveform.Interaction{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := d.Move(-50); got != 0 {
		t.Errorf("Move(-50) = %v", got)
	}
	if got := d.Move(2000); got != 600 {
		t.Errorf("Move(2000) = %v", got)
	}
	if got := d.Move(400); !approx(got, 300) {
		t.Errorf("Move(400) = %v", got)
	}

	m.ZoomAt(2, 0)
	if got := d.Move(400); !approx(got, 150) {
		t.Errorf("Move(400) at zoom 2 = %v", got)
	}
}

func TestDownsample(t *testing.T) {
	samples := []float64{0.5, -0.5, 1, -1, 0.25, 0.25}
	got := waveform.Downsample(samples, 3)
	want := []float64{0.5, 1, 0.25}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("bar %d = %v, want %v", i, got[i], want[i])
		}
	}

	if waveform.Downsample(nil, 10) != nil {
		t.Error("empty input should give nil")
	}
	if got := waveform.Downsample([]float64{-2, 1}, 10); !approx(got[0], 1) || !approx(got[1], 0.5) {
		t.Errorf("short input = %v", got)
	}
}

func TestNormalize(t *testing.T) {
	got := waveform.Normalize([]float64{0, 2, math.NaN(), -1, 4})
	want := []float64{0, 0.5, 0, 0, 1}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
	for _, v := range waveform.Normalize([]float64{0, 0}) {
		if v != 0 {
			t.Errorf("all-zero input changed: %v", v)
		}
	}
}

func TestWritePreviewPNG(t *testing.T) {
	m := waveform.NewMapper(800)
	m.SetPeaks(waveform.Downsample([]float64{0.1, 0.9, 0.4, 0.7, 0.2, 0.3, 0.8, 0.5}, 4))
	m.SetDuration(8)

	var buf bytes.Buffer
	err := m.WritePreviewPNG(&buf, []cue.CuePoint{{ID: "a", Time: 4}}, waveform.PreviewOptions{Width: 64, Height: 16, Playhead: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 16 {
		t.Errorf("size = %v", b)
	}

	if _, err := m.Preview(nil, waveform.PreviewOptions{}); err == nil {
		t.Error("expected error for zero size")
	}
}
