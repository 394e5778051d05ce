package iqcalc

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var sigmaToFWHM = 2.0 * math.Sqrt(2.0*math.Log(2.0))

// FitMethod selects the 1D profile model used by a Fitter.
type FitMethod int

const (
	FitGaussian FitMethod = iota
	FitMoffat
)

func (m FitMethod) String() string {
	switch m {
	case FitGaussian:
		return "gaussian"
	case FitMoffat:
		return "moffat"
	default:
		return "unknown"
	}
}

// ParseFitMethod maps a configuration string to a FitMethod. Dispatch on
// the method happens once, here; the fitting loop itself is enum-indexed.
func ParseFitMethod(s string) (FitMethod, error) {
	switch strings.ToLower(s) {
	case "gaussian":
		return FitGaussian, nil
	case "moffat":
		return FitMoffat, nil
	default:
		return 0, fmt.Errorf("iqcalc: unknown fit method %q", s)
	}
}

// Gaussian evaluates a 1D Gaussian profile at x.
func Gaussian(x, mu, sdev, amp float64) float64 {
	d := (x - mu) / sdev
	return amp * math.Exp(-d*d/2.0)
}

// Moffat evaluates a 1D Moffat profile at x.
func Moffat(x, mu, width, power, amp float64) float64 {
	d := (x - mu) / width
	return amp * math.Pow(1.0+d*d, -power)
}

// FitResult describes one converged 1D profile fit.
type FitResult struct {
	Method FitMethod
	// Mu is the sub-pixel center in profile-local coordinates.
	Mu float64
	// Amp is the fitted amplitude above background.
	Amp float64
	// FWHM is derived from the fitted shape parameters.
	FWHM float64
	// Params is the full solution vector in model order:
	// gaussian (mu, sdev, amp); moffat (mu, width, power, amp).
	Params []float64
}

// Fitter fits 1D profiles with a fixed model. The optimizer state is not
// reentrant, so every FitProfile call on one instance serializes through
// the instance mutex; independent instances may fit concurrently.
type Fitter struct {
	mu     sync.Mutex
	method FitMethod
}

func NewFitter(method FitMethod) *Fitter {
	return &Fitter{method: method}
}

func (ft *Fitter) Method() FitMethod { return ft.method }

// FitProfile fits the configured model to a 1D profile. background is
// subtracted before fitting; pass NaN to subtract the profile's own median.
// Values are clipped at zero after subtraction, and non-finite samples are
// excluded. Returns a FitError when the optimizer does not converge or the
// profile is degenerate.
func (ft *Fitter) FitProfile(profile []float64, background float64) (*FitResult, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if math.IsNaN(background) {
		background = medianSlice(profile)
	}
	if math.IsNaN(background) {
		return nil, fitErrorf("profile has no finite samples")
	}

	xs := make([]float64, 0, len(profile))
	ys := make([]float64, 0, len(profile))
	for i, v := range profile {
		if !isFinite(v) {
			continue
		}
		ys = append(ys, math.Max(0.0, v-background))
		xs = append(xs, float64(i))
	}

	n := float64(len(profile))
	amp0 := 0.0
	if len(ys) > 0 {
		amp0 = floats.Max(ys)
	}
	if amp0 <= 0 {
		return nil, fitErrorf("flat profile, nothing above background")
	}

	var (
		x0, lower, upper, scale []float64
		model                   profileModel
	)
	switch ft.method {
	case FitMoffat:
		x0 = []float64{n / 2.0, n / 4.0, 2.0, amp0}
		lower = []float64{0.0, 1e-3, 0.5, 0.0}
		upper = []float64{n - 1, 2.0 * n, 10.0, 2.0 * amp0}
		scale = []float64{1, 1, 0.1, amp0}
		model = moffatModel{}
	default:
		x0 = []float64{n / 2.0, n / 4.0, amp0}
		lower = []float64{0.0, 1e-3, 0.0}
		upper = []float64{n - 1, 2.0 * n, 2.0 * amp0}
		scale = []float64{1, 1, amp0}
		model = gaussianModel{}
	}

	if len(xs) < len(x0)+1 {
		return nil, fitErrorf("profile too small: %d finite samples for %d parameters", len(xs), len(x0))
	}

	solution, converged := levenbergMarquardt(model, xs, ys, x0, lower, upper, scale, 1e-12, 200)
	if !converged {
		return nil, fitErrorf("%s fit did not converge", ft.method)
	}

	res := &FitResult{
		Method: ft.method,
		Mu:     solution[0],
		Amp:    solution[len(solution)-1],
		Params: solution,
	}
	switch ft.method {
	case FitMoffat:
		width, power := solution[1], solution[2]
		res.FWHM = 2.0 * width * math.Sqrt(math.Pow(2.0, 1.0/power)-1.0)
	default:
		res.FWHM = solution[1] * sigmaToFWHM
	}
	if !isFinite(res.FWHM) || res.FWHM <= 0 {
		return nil, fitErrorf("%s fit produced non-positive width", ft.method)
	}
	return res, nil
}

// profileModel is a 1D model with analytic gradients for the LM loop.
type profileModel interface {
	value(p []float64, x float64) float64
	gradient(p []float64, x float64, grad []float64)
}

type gaussianModel struct{}

func (gaussianModel) value(p []float64, x float64) float64 {
	return Gaussian(x, p[0], p[1], p[2])
}

func (gaussianModel) gradient(p []float64, x float64, grad []float64) {
	mu, sdev, amp := p[0], p[1], p[2]
	d := (x - mu) / sdev
	e := math.Exp(-d * d / 2.0)
	grad[0] = amp * e * d / sdev
	grad[1] = amp * e * d * d / sdev
	grad[2] = e
}

type moffatModel struct{}

func (moffatModel) value(p []float64, x float64) float64 {
	return Moffat(x, p[0], p[1], p[2], p[3])
}

func (moffatModel) gradient(p []float64, x float64, grad []float64) {
	mu, width, power, amp := p[0], p[1], p[2], p[3]
	u := (x - mu) / width
	g := 1.0 + u*u
	gp := math.Pow(g, -power)
	grad[0] = amp * power * gp / g * 2.0 * u / width
	grad[1] = amp * power * gp / g * 2.0 * u * u / width
	grad[2] = -amp * gp * math.Log(g)
	grad[3] = gp
}

// levenbergMarquardt runs a damped least-squares descent with box
// constraints. The damped normal equations are solved by Cholesky
// factorization; a factorization failure is treated like a rejected step
// and the damping increases. Returns the best solution and whether the
// convergence criteria were met.
func levenbergMarquardt(
	model profileModel,
	xs, ys []float64,
	x0, lower, upper, scale []float64,
	tolerance float64, maxIter int,
) ([]float64, bool) {
	n := len(x0)
	m := len(xs)

	x := make([]float64, n)
	copy(x, x0)
	for j := 0; j < n; j++ {
		x[j] = clampLM(x[j], lower[j], upper[j])
	}

	fi := make([]float64, m)
	jac := make([][]float64, m)
	for i := range jac {
		jac[i] = make([]float64, n)
	}
	residualsAndJacobian(model, xs, ys, x, fi, jac)
	cost := sumOfSquares(fi)

	lambda := 1e-3
	nu := 2.0

	jtj := mat.NewSymDense(n, nil)
	jtf := make([]float64, n)
	damped := mat.NewSymDense(n, nil)
	var dx mat.VecDense
	xNew := make([]float64, n)
	fiNew := make([]float64, m)

	for iter := 0; iter < maxIter; iter++ {
		for i := 0; i < n; i++ {
			jtf[i] = 0
			for j := i; j < n; j++ {
				jtj.SetSym(i, j, 0)
			}
		}
		for k := 0; k < m; k++ {
			row := jac[k]
			for i := 0; i < n; i++ {
				jtf[i] += row[i] * fi[k]
				for j := i; j < n; j++ {
					jtj.SetSym(i, j, jtj.At(i, j)+row[i]*row[j])
				}
			}
		}

		if math.Sqrt(floats.Dot(jtf, jtf)) < tolerance*(1.0+cost) {
			return x, true
		}

		for tries := 0; tries < 20; tries++ {
			for i := 0; i < n; i++ {
				for j := i; j < n; j++ {
					damped.SetSym(i, j, jtj.At(i, j))
				}
				damped.SetSym(i, i, jtj.At(i, i)+lambda*scale[i]*scale[i])
			}

			var chol mat.Cholesky
			if !chol.Factorize(damped) {
				lambda *= nu
				continue
			}
			rhs := mat.NewVecDense(n, nil)
			for i := 0; i < n; i++ {
				rhs.SetVec(i, -jtf[i])
			}
			if err := chol.SolveVecTo(&dx, rhs); err != nil {
				lambda *= nu
				continue
			}

			for j := 0; j < n; j++ {
				xNew[j] = clampLM(x[j]+dx.AtVec(j), lower[j], upper[j])
			}
			for k := 0; k < m; k++ {
				fiNew[k] = model.value(xNew, xs[k]) - ys[k]
			}
			costNew := sumOfSquares(fiNew)

			if costNew < cost {
				improvement := (cost - costNew) / cost
				stepNorm := 0.0
				for j := 0; j < n; j++ {
					s := math.Abs(xNew[j]-x[j]) / (1.0 + math.Abs(x[j]))
					if s > stepNorm {
						stepNorm = s
					}
				}
				copy(x, xNew)
				cost = costNew
				lambda = math.Max(lambda/3.0, 1e-15)
				nu = 2.0
				residualsAndJacobian(model, xs, ys, x, fi, jac)
				if improvement < tolerance || stepNorm < 1e-10 {
					return x, true
				}
				break
			}

			lambda *= nu
			nu *= 2.0
			if lambda > 1e16 {
				return x, false
			}
		}
	}
	return x, false
}

func residualsAndJacobian(model profileModel, xs, ys, x, fi []float64, jac [][]float64) {
	for k := range xs {
		fi[k] = model.value(x, xs[k]) - ys[k]
		model.gradient(x, xs[k], jac[k])
	}
}

func sumOfSquares(fi []float64) float64 {
	return floats.Dot(fi, fi)
}

func clampLM(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
