//go:build !purego && !js

package iqcalc

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// localMaxFilter computes, for every pixel, the maximum finite sample in
// the radius-sized window centered on it, via an OpenCV grayscale dilation.
// Non-finite samples are replaced with -Inf so masked pixels never win the
// window maximum.
func localMaxFilter(f *Field, radius int) []float64 {
	w, h := f.Width(), f.Height()
	half := radius / 2
	side := 2*half + 1

	src := gocv.NewMatWithSize(h, w, gocv.MatTypeCV64F)
	defer src.Close()
	srcData, _ := src.DataPtrFloat64()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := f.At(x, y)
			if !isFinite(v) {
				v = math.Inf(-1)
			}
			srcData[y*w+x] = v
		}
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(side, side))
	defer kernel.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Dilate(src, &dst, kernel)

	dstData, _ := dst.DataPtrFloat64()
	out := make([]float64, w*h)
	copy(out, dstData[:w*h])
	return out
}
