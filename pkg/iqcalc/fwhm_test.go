package iqcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateFWHMRecoversSyntheticSource(t *testing.T) {
	t.Parallel()

	f := flatField(61, 61, 100.0)
	addGaussianStar(f, 30.2, 29.7, 2.5, 5000.0)

	fitter := NewFitter(FitGaussian)
	res, err := fitter.EstimateFWHM(f, 30, 30, 15, 100.0)
	require.NoError(t, err)

	wantFWHM := 2.5 * 2.0 * math.Sqrt(2.0*math.Log(2.0))
	assert.InEpsilon(t, wantFWHM, res.FWHMX, 0.01)
	assert.InEpsilon(t, wantFWHM, res.FWHMY, 0.01)
	assert.InDelta(t, 30.2, res.CenterX, 0.05)
	assert.InDelta(t, 29.7, res.CenterY, 0.05)
	require.NotNil(t, res.FitX)
	require.NotNil(t, res.FitY)
	assert.Equal(t, FitGaussian, res.FitX.Method)
}

func TestEstimateFWHMOffCenterCut(t *testing.T) {
	t.Parallel()

	// Anchor the cut near the field edge so the profiles clamp; the
	// fitted center must still come back in absolute coordinates.
	f := flatField(61, 61, 10.0)
	addGaussianStar(f, 10.0, 10.0, 2.0, 2000.0)

	fitter := NewFitter(FitGaussian)
	res, err := fitter.EstimateFWHM(f, 10, 10, 15, 10.0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.CenterX, 0.05)
	assert.InDelta(t, 10.0, res.CenterY, 0.05)
}

func TestCentroid(t *testing.T) {
	t.Parallel()

	f := flatField(21, 21, 0)
	addGaussianStar(f, 10.4, 10.2, 1.5, 300.0)

	cx, cy, err := Centroid(f, 10, 10, 5)
	require.NoError(t, err)
	assert.InDelta(t, 10.4, cx, 0.1)
	assert.InDelta(t, 10.2, cy, 0.1)
}

func TestCentroidNoWeight(t *testing.T) {
	t.Parallel()

	f := flatField(21, 21, 0)
	_, _, err := Centroid(f, 10, 10, 5)
	assert.Error(t, err)

	masked := flatField(21, 21, math.NaN())
	_, _, err = Centroid(masked, 10, 10, 5)
	assert.Error(t, err)
}

func TestPeakBrightness(t *testing.T) {
	t.Parallel()

	f := flatField(21, 21, 100.0)
	addGaussianStar(f, 10.0, 10.0, 2.0, 500.0)

	assert.InDelta(t, 500.0, PeakBrightness(f, 10, 10, 2, 100.0), 1e-9)
	// Brightness is clipped at zero when the region sits below background.
	assert.Equal(t, 0.0, PeakBrightness(f, 2, 2, 1, 5000.0))
}

func TestStarSize(t *testing.T) {
	t.Parallel()

	want := (3.0*0.0001 + 4.0*0.0001) / 2.0 * 3600.0
	assert.Equal(t, want, StarSize(3.0, 0.0001, 4.0, 0.0001))
}
