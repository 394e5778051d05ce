package iqcalc

import (
	"context"
	"math"

	"github.com/ejeschke/ginga-sub005/internal/log"
)

// Sky level is derived from the field background with empirical scaling
// constants inherited from the legacy pipeline. They are kept configurable
// rather than rederived.
const (
	DefaultSkyMagnification = 1.05
	DefaultSkyOffset        = 40.0
)

// PickParams contains all parameters for the detection and evaluation
// pipeline.
type PickParams struct {
	// Threshold is the detection floor; NaN derives it from Sigma.
	Threshold float64
	// Sigma is the MAD multiplier used when Threshold is NaN.
	Sigma float64
	// Radius sizes the local-maximum window of the peak detector.
	Radius int
	// FWHMRadius bounds the cross cut used for profile fitting.
	FWHMRadius int
	// BrightRadius bounds the box used for the brightness measurement.
	BrightRadius int
	// Method selects the profile model.
	Method FitMethod
	// SkyMagnification and SkyOffset scale the field background into a
	// sky level estimate.
	SkyMagnification float64
	SkyOffset        float64
	// Progress, when set, is called synchronously once per processed peak.
	Progress func(done, total int)
	// Criteria filters and ranks the evaluated candidates.
	Criteria SelectionCriteria
}

// NewPickParams returns parameters with the stock defaults.
func NewPickParams() *PickParams {
	return &PickParams{
		Threshold:        math.NaN(),
		Sigma:            DefaultSigma,
		Radius:           DefaultDetectionRadius,
		FWHMRadius:       15,
		BrightRadius:     2,
		Method:           FitGaussian,
		SkyMagnification: DefaultSkyMagnification,
		SkyOffset:        DefaultSkyOffset,
		Criteria:         DefaultSelectionCriteria(),
	}
}

// ObjectCandidate is one evaluated point source. Candidates are created
// once by Evaluate and never mutated afterward; the selector only filters
// and reorders them.
type ObjectCandidate struct {
	// X, Y is the coarse detection location.
	X, Y float64
	// ObjX, ObjY is the fitted sub-pixel center.
	ObjX, ObjY float64
	// OidX, OidY is the intensity-weighted centroid; NaN when the
	// centroid measurement failed (non-fatal).
	OidX, OidY float64
	// FWHMX, FWHMY are the per-axis fitted widths; FWHM is their RMS
	// combination.
	FWHM, FWHMX, FWHMY float64
	// Ellipticity is min/max of the two FWHM axes, in (0, 1].
	Ellipticity float64
	Background  float64
	Skylevel    float64
	Brightness  float64
	// PositionScore falls off quadratically with distance from the field
	// center.
	PositionScore float64
}

// AddOffset returns a copy of the candidate with its coordinates shifted
// into an enclosing image's space.
func (c *ObjectCandidate) AddOffset(dx, dy float64) *ObjectCandidate {
	out := *c
	out.X += dx
	out.Y += dy
	out.ObjX += dx
	out.ObjY += dy
	out.OidX += dx
	out.OidY += dy
	return &out
}

// Evaluate characterizes each detected peak: per-axis FWHM fit, sub-pixel
// center, optional centroid, brightness, sky level, and a position score.
// A FittingError on one peak skips that peak and continues; the batch is
// never aborted by a single bad peak. Cancellation is checked once per
// peak and surfaces the context's error, never a partial result.
func Evaluate(ctx context.Context, f *Field, peaks []Peak, fitter *Fitter, p *PickParams) ([]*ObjectCandidate, error) {
	background := Median(f)
	skylevel := background*p.SkyMagnification + p.SkyOffset

	candidates := make([]*ObjectCandidate, 0, len(peaks))
	for i, pk := range peaks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cand, err := evaluatePeak(f, pk, fitter, p, background, skylevel)
		if err != nil {
			log.Warn("peak evaluation skipped", "x", pk.X, "y", pk.Y, "err", err)
		} else {
			candidates = append(candidates, cand)
		}

		if p.Progress != nil {
			p.Progress(i+1, len(peaks))
		}
	}
	return candidates, nil
}

// evaluatePeak maps one peak to a candidate or an error, with no shared
// mutable state beyond the fitter lock.
func evaluatePeak(f *Field, pk Peak, fitter *Fitter, p *PickParams, background, skylevel float64) (*ObjectCandidate, error) {
	res, err := fitter.EstimateFWHM(f, pk.X, pk.Y, p.FWHMRadius, background)
	if err != nil {
		return nil, err
	}

	w := float64(f.Width())
	h := float64(f.Height())
	if res.CenterX < 0 || res.CenterX >= w || res.CenterY < 0 || res.CenterY >= h {
		return nil, fitErrorf("fitted center (%.2f, %.2f) outside field bounds", res.CenterX, res.CenterY)
	}

	cand := &ObjectCandidate{
		X:           pk.X,
		Y:           pk.Y,
		ObjX:        res.CenterX,
		ObjY:        res.CenterY,
		OidX:        math.NaN(),
		OidY:        math.NaN(),
		FWHM:        math.Sqrt(res.FWHMX*res.FWHMX+res.FWHMY*res.FWHMY) / math.Sqrt2,
		FWHMX:       res.FWHMX,
		FWHMY:       res.FWHMY,
		Ellipticity: math.Min(res.FWHMX, res.FWHMY) / math.Max(res.FWHMX, res.FWHMY),
		Background:  background,
		Skylevel:    skylevel,
		Brightness:  PeakBrightness(f, pk.X, pk.Y, p.BrightRadius, background),
	}

	// Centroid failure is non-fatal; the oid fields simply stay unset.
	if cx, cy, err := Centroid(f, pk.X, pk.Y, p.FWHMRadius); err == nil {
		cand.OidX = cx
		cand.OidY = cy
	}

	// Quadratic falloff from the geometric field center. The 4*width and
	// 4*height normalization terms are an empirical legacy weighting,
	// preserved as-is pending recalibration.
	dx := math.Abs(w/2.0 - cand.ObjX)
	dy := math.Abs(h/2.0 - cand.ObjY)
	cand.PositionScore = 1.0 - math.Max(dx*dx/(w*4.0*w), dy*dy/(h*4.0*h))

	return cand, nil
}
