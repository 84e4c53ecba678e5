package atlas

import (
	"math"
)

// MinWeibullSamples is the smallest positive-speed sample the fit accepts.
// Maximum-likelihood estimation is unstable below roughly this size, so
// smaller samples report undefined parameters instead of a bad fit.
const MinWeibullSamples = 20

const (
	weibullTol     = 1e-10
	weibullMaxIter = 100
)

// FitWeibull estimates the shape k and scale c of a two-parameter Weibull
// distribution by maximum likelihood, with the location fixed at zero.
// Absent and non-positive speeds are excluded first; if fewer than
// MinWeibullSamples remain, both parameters are NaN.
func FitWeibull(speeds []float64) (k, c float64) {
	var sample []float64
	for _, v := range speeds {
		if !math.IsNaN(v) && v > 0 {
			sample = append(sample, v)
		}
	}
	if len(sample) < MinWeibullSamples {
		return math.NaN(), math.NaN()
	}
	if degenerate(sample) {
		// all speeds identical, likelihood has no finite maximum
		return math.NaN(), math.NaN()
	}

	n := float64(len(sample))
	meanLog := 0.0
	for _, v := range sample {
		meanLog += math.Log(v)
	}
	meanLog /= n

	// Newton iteration on the profile likelihood equation for k:
	//   sum(x^k ln x)/sum(x^k) - 1/k - mean(ln x) = 0
	k = weibullInitialShape(sample)
	for i := 0; i < weibullMaxIter; i++ {
		var sumXk, sumXkLog, sumXkLog2 float64
		for _, v := range sample {
			xk := math.Pow(v, k)
			lx := math.Log(v)
			sumXk += xk
			sumXkLog += xk * lx
			sumXkLog2 += xk * lx * lx
		}

		f := sumXkLog/sumXk - 1/k - meanLog
		df := (sumXkLog2*sumXk-sumXkLog*sumXkLog)/(sumXk*sumXk) + 1/(k*k)

		step := f / df
		k -= step
		if k <= 0 {
			// Newton overshot; fall back toward a small positive shape
			k = weibullTol
		}
		if math.Abs(step) < weibullTol {
			break
		}
	}

	sumXk := 0.0
	for _, v := range sample {
		sumXk += math.Pow(v, k)
	}
	c = math.Pow(sumXk/n, 1/k)
	return k, c
}

func degenerate(sample []float64) bool {
	for _, v := range sample[1:] {
		if v != sample[0] {
			return false
		}
	}
	return true
}

// weibullInitialShape seeds the Newton iteration from the coefficient of
// variation, which approximates the shape well for wind-speed-like samples.
func weibullInitialShape(sample []float64) float64 {
	mean := Mean(sample)
	if mean <= 0 {
		return 1
	}
	var ss float64
	for _, v := range sample {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(sample)))
	if std <= 0 {
		return 1
	}
	k := math.Pow(mean/std, 1.086)
	if k < 0.1 {
		k = 0.1
	}
	return k
}
