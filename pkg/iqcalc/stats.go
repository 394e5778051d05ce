package iqcalc

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultSigma is the default noise-threshold multiplier.
const DefaultSigma = 5.0

// Mean returns the arithmetic mean over the finite samples of the field,
// or NaN when no finite sample exists. An entirely masked region is a
// representable result, not an error.
func Mean(f *Field) float64 {
	vals := f.finiteValues()
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// Median returns the median over the finite samples of the field, or NaN
// when no finite sample exists.
func Median(f *Field) float64 {
	return medianSlice(f.finiteValues())
}

// Threshold estimates a robust noise floor: median + sigma * mean absolute
// deviation over the finite samples. Mean absolute deviation rather than
// standard deviation keeps a handful of very bright pixels from inflating
// the estimate.
func Threshold(f *Field, sigma float64) float64 {
	vals := f.finiteValues()
	if len(vals) == 0 {
		return math.NaN()
	}
	median := medianSlice(vals)
	devs := make([]float64, len(vals))
	for i, v := range vals {
		devs[i] = math.Abs(v - median)
	}
	return median + sigma*stat.Mean(devs, nil)
}

// medianSlice computes the median of vals, skipping non-finite entries.
// NaN when nothing finite remains. vals is not modified.
func medianSlice(vals []float64) float64 {
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	sort.Float64s(finite)
	n := len(finite)
	if n%2 == 0 {
		return (finite[n/2-1] + finite[n/2]) / 2.0
	}
	return finite[n/2]
}
