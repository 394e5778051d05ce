//go:build purego || js

package iqcalc

import "math"

// localMaxFilter computes, for every pixel, the maximum finite sample in
// the radius-sized window centered on it (non-finite samples count as
// -Inf). Pure Go fallback for builds without the OpenCV backend.
func localMaxFilter(f *Field, radius int) []float64 {
	w, h := f.Width(), f.Height()
	half := radius / 2
	out := make([]float64, w*h)

	// Separable max filter: horizontal pass then vertical pass.
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := math.Inf(-1)
			for dx := -half; dx <= half; dx++ {
				cx := x + dx
				if cx < 0 || cx >= w {
					continue
				}
				if v := f.At(cx, y); isFinite(v) && v > m {
					m = v
				}
			}
			tmp[y*w+x] = m
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := math.Inf(-1)
			for dy := -half; dy <= half; dy++ {
				cy := y + dy
				if cy < 0 || cy >= h {
					continue
				}
				if v := tmp[cy*w+x]; v > m {
					m = v
				}
			}
			out[y*w+x] = m
		}
	}
	return out
}
