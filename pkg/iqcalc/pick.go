package iqcalc

import (
	"context"
	"image"
)

// Pick runs the full pipeline on a field: peak detection, per-peak
// evaluation, candidate selection. It returns the top-ranked candidate, or
// ErrNoPeaksFound, ErrEvaluationFailed, or ErrNoCandidateMatched depending
// on where the pipeline came up empty. Aside from the fitter lock a call
// is a pure function of its inputs.
func Pick(ctx context.Context, f *Field, p *PickParams) (*ObjectCandidate, error) {
	peaks := FindPeaks(f, p.Threshold, p.Sigma, p.Radius)
	if len(peaks) == 0 {
		return nil, ErrNoPeaksFound
	}

	fitter := NewFitter(p.Method)
	candidates, err := Evaluate(ctx, f, peaks, fitter, p)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrEvaluationFailed
	}

	selected := Select(candidates, f.Width(), f.Height(), p.Criteria)
	if len(selected) == 0 {
		return nil, ErrNoCandidateMatched
	}
	return selected[0], nil
}

// PickRegion runs Pick on the intersection of r with the field and
// translates the returned coordinates back into full-field space. This is
// the entry point for a viewer that lets the user draw a region on the
// displayed image.
func PickRegion(ctx context.Context, f *Field, r image.Rectangle, p *PickParams) (*ObjectCandidate, error) {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return nil, ErrNoPeaksFound
	}

	cand, err := Pick(ctx, f.Region(r), p)
	if err != nil {
		return nil, err
	}
	return cand.AddOffset(float64(r.Min.X), float64(r.Min.Y)), nil
}
