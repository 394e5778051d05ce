package iqcalc

import (
	"image"
	"math"
)

// Field is a 2D array of float64 samples in row-major order. Samples may be
// NaN or Inf to mark invalid/masked pixels; every statistic in this package
// skips non-finite samples. A Field is treated as immutable once handed to
// the pipeline.
//
// Sub-fields produced by Region share the backing array of their parent
// (stride may differ from width), the same layout the Mat views use in the
// detection code this was derived from.
type Field struct {
	data   []float64
	width  int
	height int
	stride int
	off    int
}

// NewField wraps a row-major sample slice. The slice is retained, not
// copied; len(data) must be at least width*height.
func NewField(data []float64, width, height int) *Field {
	if len(data) < width*height {
		panic("iqcalc: sample slice shorter than width*height")
	}
	return &Field{data: data, width: width, height: height, stride: width}
}

// NewEmptyField allocates a zero-filled field.
func NewEmptyField(width, height int) *Field {
	return NewField(make([]float64, width*height), width, height)
}

func (f *Field) Width() int  { return f.width }
func (f *Field) Height() int { return f.height }

// Bounds returns the field rectangle anchored at the origin.
func (f *Field) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// At returns the sample at (x, y). Coordinates must be within bounds.
func (f *Field) At(x, y int) float64 {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		panic("iqcalc: field coordinates out of bounds")
	}
	return f.data[f.off+y*f.stride+x]
}

// Set writes a sample at (x, y). Intended for constructing fields and test
// fixtures; the pipeline itself never mutates a field.
func (f *Field) Set(x, y int, v float64) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		panic("iqcalc: field coordinates out of bounds")
	}
	f.data[f.off+y*f.stride+x] = v
}

// Region returns a view of the intersection of r with the field bounds.
// The view shares backing storage with the parent.
func (f *Field) Region(r image.Rectangle) *Field {
	r = r.Intersect(f.Bounds())
	return &Field{
		data:   f.data,
		width:  r.Dx(),
		height: r.Dy(),
		stride: f.stride,
		off:    f.off + r.Min.Y*f.stride + r.Min.X,
	}
}

// CutRegion extracts a box of side 2*radius+1 centered at the rounded
// (x, y), clamped to the field bounds. It returns the origin of the box in
// field coordinates along with a view of its samples.
func (f *Field) CutRegion(x, y float64, radius int) (x0, y0 int, sub *Field) {
	cx := int(math.Round(x))
	cy := int(math.Round(y))
	r := image.Rect(cx-radius, cy-radius, cx+radius+1, cy+radius+1).Intersect(f.Bounds())
	return r.Min.X, r.Min.Y, f.Region(r)
}

// CutCross extracts the horizontal line through the rounded y and the
// vertical line through the rounded x, each spanning radius pixels either
// side of the anchor and clamped independently to the field bounds. x0 and
// y0 are the field coordinates of the first sample of the respective
// profiles.
func (f *Field) CutCross(x, y float64, radius int) (x0, y0 int, xProfile, yProfile []float64) {
	cx := int(math.Round(x))
	cy := int(math.Round(y))

	x0 = max(0, cx-radius)
	x1 := min(f.width-1, cx+radius)
	y0 = max(0, cy-radius)
	y1 := min(f.height-1, cy+radius)

	row := clampInt(cy, 0, f.height-1)
	col := clampInt(cx, 0, f.width-1)

	xProfile = make([]float64, 0, x1-x0+1)
	for ix := x0; ix <= x1; ix++ {
		xProfile = append(xProfile, f.At(ix, row))
	}
	yProfile = make([]float64, 0, y1-y0+1)
	for iy := y0; iy <= y1; iy++ {
		yProfile = append(yProfile, f.At(col, iy))
	}
	return x0, y0, xProfile, yProfile
}

// finiteValues collects the finite samples of the field into a flat slice.
func (f *Field) finiteValues() []float64 {
	vals := make([]float64, 0, f.width*f.height)
	for y := 0; y < f.height; y++ {
		rowOff := f.off + y*f.stride
		for x := 0; x < f.width; x++ {
			if v := f.data[rowOff+x]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals = append(vals, v)
			}
		}
	}
	return vals
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
