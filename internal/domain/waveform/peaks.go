package waveform

import "math"

// Downsample reduces raw samples to n bars: each bar is the mean absolute
// amplitude of its block, and the result is normalized so the loudest bar
// is 1. Inputs shorter than n keep one bar per sample.
func Downsample(samples []float64, n int) []float64 {
	if len(samples) == 0 || n <= 0 {
		return nil
	}
	if len(samples) <= n {
		return Normalize(abs(samples))
	}

	block := len(samples) / n
	peaks := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * block
		end := start + block
		if i == n-1 {
			end = len(samples)
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += math.Abs(s)
		}
		peaks[i] = sum / float64(end-start)
	}
	return Normalize(peaks)
}

// Normalize scales values so the largest is 1. Negative and non-finite values
// become 0. All-zero input is returned as zeros.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	var peak float64
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			v = 0
		}
		out[i] = v
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		return out
	}
	for i := range out {
		out[i] /= peak
	}
	return out
}

func abs(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Abs(v)
	}
	return out
}
