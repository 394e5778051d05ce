package iqcalc

import "math"

const (
	zoneEdgeFraction       = 0.25
	minCandidatesPerZone   = 3
	minTotalCandidatesTilt = 20
)

// ZonePosition identifies a zone in the 3x3 field grid.
type ZonePosition int

const (
	ZoneTopLeft ZonePosition = iota
	ZoneTop
	ZoneTopRight
	ZoneLeft
	ZoneCenter
	ZoneRight
	ZoneBottomLeft
	ZoneBottom
	ZoneBottomRight
)

var zoneLabels = map[ZonePosition]string{
	ZoneTopLeft:     "TL",
	ZoneTop:         "T",
	ZoneTopRight:    "TR",
	ZoneLeft:        "L",
	ZoneCenter:      "Center",
	ZoneRight:       "R",
	ZoneBottomLeft:  "BL",
	ZoneBottom:      "B",
	ZoneBottomRight: "BR",
}

var cornerPositions = []ZonePosition{ZoneTopLeft, ZoneTopRight, ZoneBottomLeft, ZoneBottomRight}

// ZoneData holds per-zone candidate statistics.
type ZoneData struct {
	Label          string
	MedianFWHM     float64
	MedianBright   float64
	CandidateCount int
}

// FieldQuality summarizes focus uniformity across the 3x3 grid.
type FieldQuality struct {
	Zones       map[ZonePosition]ZoneData
	TiltPct     float64
	OffAxisPct  float64
	BestCorner  string
	WorstCorner string
	Reliable    bool
}

// AnalyzeFieldQuality buckets evaluated candidates into a 3x3 grid and
// compares corner and off-axis sharpness against the field center. Returns
// nil when there are no candidates at all.
func AnalyzeFieldQuality(candidates []*ObjectCandidate, width, height int) *FieldQuality {
	if len(candidates) == 0 {
		return nil
	}

	xLo := float64(width) * zoneEdgeFraction
	xHi := float64(width) * (1.0 - zoneEdgeFraction)
	yLo := float64(height) * zoneEdgeFraction
	yHi := float64(height) * (1.0 - zoneEdgeFraction)

	zoneCands := make(map[ZonePosition][]*ObjectCandidate)
	for _, c := range candidates {
		pos := classifyZone(c.ObjX, c.ObjY, xLo, xHi, yLo, yHi)
		zoneCands[pos] = append(zoneCands[pos], c)
	}

	zones := make(map[ZonePosition]ZoneData, len(zoneLabels))
	for pos := ZoneTopLeft; pos <= ZoneBottomRight; pos++ {
		zones[pos] = computeZoneData(pos, zoneCands[pos])
	}

	result := &FieldQuality{Zones: zones}

	centerFWHM := zones[ZoneCenter].MedianFWHM
	if centerFWHM <= 0 {
		return result
	}

	var bestCorner, worstCorner ZonePosition
	bestFWHM := math.MaxFloat64
	worstFWHM := 0.0
	validCorners := 0

	for _, pos := range cornerPositions {
		z := zones[pos]
		if z.CandidateCount < minCandidatesPerZone {
			continue
		}
		validCorners++
		if z.MedianFWHM < bestFWHM {
			bestFWHM = z.MedianFWHM
			bestCorner = pos
		}
		if z.MedianFWHM > worstFWHM {
			worstFWHM = z.MedianFWHM
			worstCorner = pos
		}
	}

	if validCorners >= 2 && worstFWHM > 0 {
		result.TiltPct = (worstFWHM - bestFWHM) / centerFWHM * 100.0
		result.BestCorner = zoneLabels[bestCorner]
		result.WorstCorner = zoneLabels[worstCorner]
	}

	var offAxisSum float64
	offAxisCount := 0
	for pos, z := range zones {
		if pos == ZoneCenter || z.CandidateCount < minCandidatesPerZone {
			continue
		}
		offAxisSum += z.MedianFWHM
		offAxisCount++
	}
	if offAxisCount > 0 {
		avgOffAxis := offAxisSum / float64(offAxisCount)
		result.OffAxisPct = (avgOffAxis - centerFWHM) / centerFWHM * 100.0
	}

	result.Reliable = len(candidates) >= minTotalCandidatesTilt &&
		validCorners >= 4 &&
		zones[ZoneCenter].CandidateCount >= minCandidatesPerZone

	return result
}

func classifyZone(x, y, xLo, xHi, yLo, yHi float64) ZonePosition {
	var col, row int
	if x < xLo {
		col = 0
	} else if x < xHi {
		col = 1
	} else {
		col = 2
	}
	if y < yLo {
		row = 0
	} else if y < yHi {
		row = 1
	} else {
		row = 2
	}

	grid := [3][3]ZonePosition{
		{ZoneTopLeft, ZoneTop, ZoneTopRight},
		{ZoneLeft, ZoneCenter, ZoneRight},
		{ZoneBottomLeft, ZoneBottom, ZoneBottomRight},
	}
	return grid[row][col]
}

func computeZoneData(pos ZonePosition, candidates []*ObjectCandidate) ZoneData {
	zd := ZoneData{
		Label:          zoneLabels[pos],
		CandidateCount: len(candidates),
	}
	if len(candidates) == 0 {
		return zd
	}

	fwhm := make([]float64, len(candidates))
	bright := make([]float64, len(candidates))
	for i, c := range candidates {
		fwhm[i] = c.FWHM
		bright[i] = c.Brightness
	}
	zd.MedianFWHM = medianSlice(fwhm)
	zd.MedianBright = medianSlice(bright)
	return zd
}
