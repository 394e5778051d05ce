package iqcalc

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPeaksFound indicates the detector produced no peaks at all.
	ErrNoPeaksFound = errors.New("iqcalc: no peaks found")
	// ErrEvaluationFailed indicates every detected peak failed evaluation.
	ErrEvaluationFailed = errors.New("iqcalc: no peak could be evaluated")
	// ErrNoCandidateMatched indicates the selection criteria filtered out
	// every evaluated candidate.
	ErrNoCandidateMatched = errors.New("iqcalc: no candidate matched selection criteria")
)

// FitError reports that a single profile fit could not be completed. The
// evaluator absorbs these per peak; one bad peak never invalidates a field.
type FitError struct {
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("iqcalc: fit failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("iqcalc: fit failed: %s", e.Reason)
}

func (e *FitError) Unwrap() error { return e.Err }

func fitErrorf(format string, args ...any) *FitError {
	return &FitError{Reason: fmt.Sprintf(format, args...)}
}
