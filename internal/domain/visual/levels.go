// Package visual holds the per-frame state that drives playback visuals:
// smoothed band levels, beat detection and the fade between playing and
// paused.
package visual

// Levels are band energies for one frame, each in [0, 1].
type Levels struct {
	Bass     float64 `json:"bass"`
	Mid      float64 `json:"mid"`
	Treble   float64 `json:"treble"`
	Centroid float64 `json:"centroid"`
}

// Band edges as fractions of the spectrum.
const (
	bassEdge   = 0.06
	midEdge    = 0.35
	trebleEdge = 0.8
	minBassBin = 4
)

// BandLevels reduces a byte magnitude spectrum (0-255 per bin) to band
// levels. The centroid is normalized over the bins up to the treble edge.
func BandLevels(spectrum []uint8) Levels {
	n := len(spectrum)
	if n == 0 {
		return Levels{}
	}

	bassBins := max(minBassBin, int(float64(n)*bassEdge))
	midStart := int(float64(n) * bassEdge)
	midEnd := int(float64(n) * midEdge)
	trebleEnd := int(float64(n) * trebleEdge)

	return Levels{
		Bass:     mean(spectrum, 0, bassBins),
		Mid:      mean(spectrum, midStart, midEnd),
		Treble:   mean(spectrum, midEnd, trebleEnd),
		Centroid: centroid(spectrum, trebleEnd),
	}
}

func mean(spectrum []uint8, from, to int) float64 {
	to = min(to, len(spectrum))
	if to <= from {
		return 0
	}
	var sum float64
	for _, v := range spectrum[from:to] {
		sum += float64(v)
	}
	return sum / (float64(to-from) * 255)
}

func centroid(spectrum []uint8, end int) float64 {
	end = min(end, len(spectrum))
	var num, den float64
	for i, v := range spectrum[:end] {
		num += float64(i) * float64(v)
		den += float64(v)
	}
	if den == 0 || end == 0 {
		return 0
	}
	return clamp01(num / den / float64(end))
}

// Smoother low-passes the bass level so visuals do not flicker.
type Smoother struct {
	bass float64
}

// Smooth blends the new bass level into the running value and returns the
// levels with the smoothed bass.
func (s *Smoother) Smooth(l Levels) Levels {
	s.bass = s.bass*0.85 + l.Bass*0.15
	l.Bass = s.bass
	return l
}

// Reset clears the running value.
func (s *Smoother) Reset() {
	s.bass = 0
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
