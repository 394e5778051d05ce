package iqcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPeaksSingleBlob(t *testing.T) {
	t.Parallel()

	f := flatField(61, 61, 100.0)
	addGaussianStar(f, 30.2, 29.7, 2.5, 5000.0)

	peaks := FindPeaks(f, math.NaN(), DefaultSigma, DefaultDetectionRadius)
	require.Len(t, peaks, 1)
	assert.InDelta(t, 30.2, peaks[0].X, DefaultDetectionRadius/2.0)
	assert.InDelta(t, 29.7, peaks[0].Y, DefaultDetectionRadius/2.0)
}

func TestFindPeaksFlatField(t *testing.T) {
	t.Parallel()

	f := flatField(61, 61, 50.0)
	peaks := FindPeaks(f, math.NaN(), DefaultSigma, DefaultDetectionRadius)
	assert.Empty(t, peaks)
}

func TestFindPeaksTwoSeparatedBlobs(t *testing.T) {
	t.Parallel()

	f := flatField(101, 101, 100.0)
	addGaussianStar(f, 25.0, 25.0, 2.0, 4000.0)
	addGaussianStar(f, 75.0, 70.0, 2.0, 3000.0)

	peaks := FindPeaks(f, math.NaN(), DefaultSigma, DefaultDetectionRadius)
	require.Len(t, peaks, 2)
}

func TestFindPeaksExplicitThreshold(t *testing.T) {
	t.Parallel()

	f := flatField(61, 61, 100.0)
	addGaussianStar(f, 30.0, 30.0, 2.5, 500.0)

	// Threshold above the source peak suppresses detection entirely.
	peaks := FindPeaks(f, 1000.0, DefaultSigma, DefaultDetectionRadius)
	assert.Empty(t, peaks)

	peaks = FindPeaks(f, 300.0, DefaultSigma, DefaultDetectionRadius)
	require.Len(t, peaks, 1)
}

func TestFindPeaksIgnoresMaskedPixels(t *testing.T) {
	t.Parallel()

	f := flatField(61, 61, 100.0)
	addGaussianStar(f, 30.0, 30.0, 2.5, 5000.0)
	f.Set(10, 10, math.NaN())
	f.Set(50, 50, math.Inf(1))

	peaks := FindPeaks(f, math.NaN(), DefaultSigma, DefaultDetectionRadius)
	require.Len(t, peaks, 1)
	assert.InDelta(t, 30.0, peaks[0].X, DefaultDetectionRadius/2.0)
	assert.InDelta(t, 30.0, peaks[0].Y, DefaultDetectionRadius/2.0)
}

func TestLabelPeaksPlateauIsOnePeak(t *testing.T) {
	t.Parallel()

	mask := make([]bool, 10*10)
	// 2x2 plateau of qualifying pixels at (4,5)..(5,6)
	for _, p := range [][2]int{{4, 5}, {5, 5}, {4, 6}, {5, 6}} {
		mask[p[1]*10+p[0]] = true
	}
	peaks := labelPeaks(mask, 10, 10)
	require.Len(t, peaks, 1)
	assert.Equal(t, 4.5, peaks[0].X)
	assert.Equal(t, 5.5, peaks[0].Y)
}
