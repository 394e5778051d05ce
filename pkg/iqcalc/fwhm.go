package iqcalc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// FWHMResult holds the per-axis profile fits for one object, with the
// fitted sub-pixel center translated back into field coordinates.
type FWHMResult struct {
	FWHMX, FWHMY     float64
	CenterX, CenterY float64
	FitX, FitY       *FitResult
}

// EstimateFWHM extracts a cross cut at (x, y) and fits each 1D profile
// independently. background is subtracted before fitting; pass NaN to use
// each profile's own median.
func (ft *Fitter) EstimateFWHM(f *Field, x, y float64, radius int, background float64) (*FWHMResult, error) {
	x0, y0, xProfile, yProfile := f.CutCross(x, y, radius)

	fitX, err := ft.FitProfile(xProfile, background)
	if err != nil {
		return nil, fmt.Errorf("x profile at (%.1f, %.1f): %w", x, y, err)
	}
	fitY, err := ft.FitProfile(yProfile, background)
	if err != nil {
		return nil, fmt.Errorf("y profile at (%.1f, %.1f): %w", x, y, err)
	}

	return &FWHMResult{
		FWHMX:   fitX.FWHM,
		FWHMY:   fitY.FWHM,
		CenterX: float64(x0) + fitX.Mu,
		CenterY: float64(y0) + fitY.Mu,
		FitX:    fitX,
		FitY:    fitY,
	}, nil
}

// Centroid computes the intensity-weighted center of mass of the box of
// the given radius around (x, y), in absolute field coordinates. Fails
// when the region carries no positive finite weight.
func Centroid(f *Field, x, y float64, radius int) (cx, cy float64, err error) {
	x0, y0, sub := f.CutRegion(x, y, radius)

	var sumW, sumWX, sumWY float64
	for iy := 0; iy < sub.Height(); iy++ {
		for ix := 0; ix < sub.Width(); ix++ {
			v := sub.At(ix, iy)
			if !isFinite(v) {
				continue
			}
			sumW += v
			sumWX += v * float64(ix)
			sumWY += v * float64(iy)
		}
	}
	if sumW <= 0 {
		return 0, 0, fmt.Errorf("iqcalc: centroid at (%.1f, %.1f): no positive weight", x, y)
	}
	return float64(x0) + sumWX/sumW, float64(y0) + sumWY/sumW, nil
}

// PeakBrightness measures the brightest finite sample above background in
// the box of the given radius around (x, y), clipped at zero.
func PeakBrightness(f *Field, x, y float64, radius int, background float64) float64 {
	_, _, sub := f.CutRegion(x, y, radius)
	vals := sub.finiteValues()
	if len(vals) == 0 {
		return 0
	}
	return math.Max(0.0, floats.Max(vals)-background)
}

// StarSize converts per-axis FWHM in pixels and degrees-per-pixel plate
// scales into an averaged angular size in arcseconds.
func StarSize(fwhmX, scaleX, fwhmY, scaleY float64) float64 {
	return (fwhmX*scaleX + fwhmY*scaleY) / 2.0 * 3600.0
}
