package iqcalc

import "math"

// flatField builds a width x height field filled with v.
func flatField(width, height int, v float64) *Field {
	f := NewEmptyField(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.Set(x, y, v)
		}
	}
	return f
}

// addGaussianStar adds a symmetric 2D Gaussian source to the field.
func addGaussianStar(f *Field, cx, cy, sigma, amp float64) {
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			f.Set(x, y, f.At(x, y)+amp*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))
		}
	}
}

// gaussianProfile samples a noiseless 1D Gaussian on 0..n-1.
func gaussianProfile(n int, mu, sdev, amp, background float64) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = background + Gaussian(float64(i), mu, sdev, amp)
	}
	return p
}

// moffatProfile samples a noiseless 1D Moffat on 0..n-1.
func moffatProfile(n int, mu, width, power, amp, background float64) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = background + Moffat(float64(i), mu, width, power, amp)
	}
	return p
}
