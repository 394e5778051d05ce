package iqcalc

import (
	"math"
	"sort"
)

// SelectionCriteria filters and ranks evaluated candidates.
type SelectionCriteria struct {
	MinFWHM        float64 `yaml:"min_fwhm"`
	MaxFWHM        float64 `yaml:"max_fwhm"`
	MinEllipticity float64 `yaml:"min_ellipticity"`
	// EdgeFraction excludes candidates within this fraction of the field
	// width/height from any border.
	EdgeFraction float64 `yaml:"edge_fraction"`
}

// DefaultSelectionCriteria returns the stock selection bounds.
func DefaultSelectionCriteria() SelectionCriteria {
	return SelectionCriteria{
		MinFWHM:        2.0,
		MaxFWHM:        150.0,
		MinEllipticity: 0.5,
		EdgeFraction:   0.04,
	}
}

// Select filters candidates against the criteria and ranks the survivors
// descending by brightness * positionScore / sqrt(fwhm). The sort is
// stable, so ties keep detection order. The input slice is not modified.
func Select(candidates []*ObjectCandidate, width, height int, c SelectionCriteria) []*ObjectCandidate {
	xLo := c.EdgeFraction * float64(width)
	xHi := (1.0 - c.EdgeFraction) * float64(width)
	yLo := c.EdgeFraction * float64(height)
	yHi := (1.0 - c.EdgeFraction) * float64(height)

	out := make([]*ObjectCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.FWHM <= c.MinFWHM || cand.FWHM >= c.MaxFWHM {
			continue
		}
		if cand.Ellipticity <= c.MinEllipticity {
			continue
		}
		if cand.ObjX < xLo || cand.ObjX > xHi || cand.ObjY < yLo || cand.ObjY > yHi {
			continue
		}
		out = append(out, cand)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rankScore(out[i]) > rankScore(out[j])
	})
	return out
}

func rankScore(c *ObjectCandidate) float64 {
	return c.Brightness * c.PositionScore / math.Sqrt(c.FWHM)
}
