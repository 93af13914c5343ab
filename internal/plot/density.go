package plot

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot/plotter"
)

// bins splits values into Sturges' number of equal-width bins. A column with a
// single distinct value gets one unit-wide bin centred on it.
func bins(values []float64) []plotter.HistogramBin {
	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		return []plotter.HistogramBin{{Min: lo - 0.5, Max: hi + 0.5, Weight: float64(len(values))}}
	}

	n := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	width := (hi - lo) / float64(n)
	out := make([]plotter.HistogramBin, n)
	for i := range out {
		out[i].Min = lo + float64(i)*width
		out[i].Max = lo + float64(i+1)*width
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1 // hi belongs to the last bin
		}
		out[i].Weight++
	}
	return out
}

// density returns a Gaussian kernel density estimate of values scaled to
// histogram counts for the given bin width, evaluated at points positions
// spanning three bandwidths beyond the data. It reports false when the
// bandwidth is undefined or zero.
func density(values []float64, binWidth float64, points int) (plotter.XYs, bool) {
	if len(values) < 2 {
		return nil, false
	}
	// Scott's rule.
	bw := stat.StdDev(values, nil) * math.Pow(float64(len(values)), -0.2)
	if bw <= 0 || math.IsNaN(bw) {
		return nil, false
	}

	lo := slices.Min(values) - 3*bw
	hi := slices.Max(values) + 3*bw
	step := (hi - lo) / float64(points-1)
	kernel := distuv.Normal{Mu: 0, Sigma: bw}

	xys := make(plotter.XYs, points)
	for i := range xys {
		x := lo + float64(i)*step
		var sum float64 // n times the density at x
		for _, v := range values {
			sum += kernel.Prob(x - v)
		}
		xys[i].X = x
		xys[i].Y = sum * binWidth
	}
	return xys, true
}
