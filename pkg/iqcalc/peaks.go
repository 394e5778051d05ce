package iqcalc

import (
	"image"
	"math"
)

// DefaultDetectionRadius sizes the local-maximum window used by FindPeaks.
const DefaultDetectionRadius = 5

// Peak is a coarse detection location. Coordinates come from a component
// bounding-box center and are refined later by profile fitting.
type Peak struct {
	X, Y float64
}

// FindPeaks locates bright peaks in the field. A pixel qualifies when it is
// finite, equals the local maximum of the radius-sized window around it,
// and exceeds the threshold. Qualifying pixels are grouped by 4-connected
// component labeling and one peak is emitted per component at its
// bounding-box center.
//
// Pass NaN as the threshold to derive it from the field via Threshold with
// the given sigma. An empty result is a valid outcome, not an error.
func FindPeaks(f *Field, threshold, sigma float64, radius int) []Peak {
	if math.IsNaN(threshold) {
		threshold = Threshold(f, sigma)
	}
	if math.IsNaN(threshold) {
		return nil
	}
	if radius < 1 {
		radius = DefaultDetectionRadius
	}

	w, h := f.Width(), f.Height()
	localMax := localMaxFilter(f, radius)

	mask := make([]bool, w*h)
	any := false
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := f.At(x, y)
			if isFinite(v) && v == localMax[y*w+x] && v > threshold {
				mask[y*w+x] = true
				any = true
			}
		}
	}
	if !any {
		return nil
	}
	return labelPeaks(mask, w, h)
}

// labelPeaks runs 4-connected component labeling over the qualifying mask
// and returns one peak per component at the bounding-box center.
func labelPeaks(mask []bool, w, h int) []Peak {
	peaks := make([]Peak, 0, 8)
	queue := make([]image.Point, 0, 64)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}

			mask[y*w+x] = false
			queue = append(queue[:0], image.Pt(x, y))
			minX, maxX := x, x
			minY, maxY := y, y

			for len(queue) > 0 {
				pt := queue[len(queue)-1]
				queue = queue[:len(queue)-1]

				if pt.X < minX {
					minX = pt.X
				}
				if pt.X > maxX {
					maxX = pt.X
				}
				if pt.Y < minY {
					minY = pt.Y
				}
				if pt.Y > maxY {
					maxY = pt.Y
				}

				for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := pt.X+d.X, pt.Y+d.Y
					if nx < 0 || nx >= w || ny < 0 || ny >= h || !mask[ny*w+nx] {
						continue
					}
					mask[ny*w+nx] = false
					queue = append(queue, image.Pt(nx, ny))
				}
			}

			peaks = append(peaks, Peak{
				X: float64(minX+maxX) / 2.0,
				Y: float64(minY+maxY) / 2.0,
			})
		}
	}
	return peaks
}
