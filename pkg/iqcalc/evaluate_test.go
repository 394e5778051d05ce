package iqcalc

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSkipsDegeneratePeak(t *testing.T) {
	t.Parallel()

	f := flatField(101, 101, 100.0)
	addGaussianStar(f, 50.3, 50.6, 2.5, 4000.0)

	// One genuine peak plus a degenerate corner one injected by hand.
	peaks := []Peak{{X: 50, Y: 51}, {X: 0, Y: 0}}

	p := NewPickParams()
	progressCalls := 0
	p.Progress = func(done, total int) {
		progressCalls++
		assert.Equal(t, 2, total)
	}

	cands, err := Evaluate(context.Background(), f, peaks, NewFitter(p.Method), p)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, 2, progressCalls, "progress fires once per processed peak, including skipped ones")

	c := cands[0]
	assert.InDelta(t, 50.3, c.ObjX, 0.1)
	assert.InDelta(t, 50.6, c.ObjY, 0.1)
	assert.Greater(t, c.FWHM, 0.0)
	assert.Greater(t, c.Ellipticity, 0.0)
	assert.LessOrEqual(t, c.Ellipticity, 1.0)
	assert.InDelta(t, 100.0, c.Background, 1.0)
	assert.InDelta(t, 100.0*DefaultSkyMagnification+DefaultSkyOffset, c.Skylevel, 2.0)
	assert.Greater(t, c.Brightness, 0.0)
	assert.False(t, math.IsNaN(c.OidX), "centroid should succeed for the good peak")
	assert.False(t, math.IsNaN(c.OidY))
	assert.Greater(t, c.PositionScore, 0.9, "near-center source scores high")
	assert.LessOrEqual(t, c.PositionScore, 1.0)
}

func TestEvaluateCancellation(t *testing.T) {
	t.Parallel()

	f := flatField(61, 61, 100.0)
	addGaussianStar(f, 30.0, 30.0, 2.5, 5000.0)
	peaks := []Peak{{X: 30, Y: 30}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPickParams()
	cands, err := Evaluate(ctx, f, peaks, NewFitter(p.Method), p)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, cands, "cancellation never returns a partial result")
}

func TestEvaluateEmptyPeakListIsNotAnError(t *testing.T) {
	t.Parallel()

	f := flatField(31, 31, 100.0)
	p := NewPickParams()
	cands, err := Evaluate(context.Background(), f, nil, NewFitter(p.Method), p)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestAddOffset(t *testing.T) {
	t.Parallel()

	c := &ObjectCandidate{X: 1, Y: 2, ObjX: 1.5, ObjY: 2.5, OidX: 1.4, OidY: 2.4, FWHM: 3}
	shifted := c.AddOffset(100, 200)
	assert.Equal(t, 101.0, shifted.X)
	assert.Equal(t, 202.0, shifted.Y)
	assert.Equal(t, 101.5, shifted.ObjX)
	assert.Equal(t, 202.5, shifted.ObjY)
	assert.Equal(t, 101.4, shifted.OidX)
	assert.Equal(t, 202.4, shifted.OidY)
	// The original stays untouched.
	assert.Equal(t, 1.0, c.X)
	assert.Equal(t, 3.0, shifted.FWHM)
}

func TestPositionScoreFallsOffFromCenter(t *testing.T) {
	t.Parallel()

	f := flatField(121, 121, 100.0)
	addGaussianStar(f, 60.0, 60.0, 2.0, 3000.0)
	addGaussianStar(f, 100.0, 60.0, 2.0, 3000.0)
	addGaussianStar(f, 110.0, 110.0, 2.0, 3000.0)

	p := NewPickParams()
	fitter := NewFitter(p.Method)
	eval := func(x, y float64) *ObjectCandidate {
		background := Median(f)
		cand, err := evaluatePeak(f, Peak{X: x, Y: y}, fitter, p, background, background)
		require.NoError(t, err)
		return cand
	}

	center := eval(60, 60)
	mid := eval(100, 60)
	corner := eval(110, 110)

	assert.InDelta(t, 1.0, center.PositionScore, 1e-4)
	assert.Greater(t, center.PositionScore, mid.PositionScore)
	assert.Greater(t, mid.PositionScore, corner.PositionScore)

	// Exact empirical weighting: 1 - max(dx^2/(4w^2), dy^2/(4h^2)).
	w := 121.0
	dx := math.Abs(w/2.0 - mid.ObjX)
	assert.InDelta(t, 1.0-dx*dx/(w*4.0*w), mid.PositionScore, 1e-9)
}
