// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Fit estimates the parameters of the named family from data. Estimation is
// closed form throughout: maximum likelihood where it is closed form,
// method of moments otherwise.
func Fit(name Name, data []float64) (Distribution, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: fitting needs at least 2 observations, got %d", ErrSampleTooSmall, len(data))
	}
	switch name {
	case Normal:
		return fitNormal(data)
	case LogNormal:
		return fitLogNormal(data)
	case Exponential:
		return fitExponential(data)
	case Gamma:
		return fitGamma(data)
	case Logistic:
		return fitLogistic(data)
	case Uniform:
		return fitUniform(data)
	case ChiSquared:
		return fitChiSquared(data)
	case Pareto:
		return fitPareto(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDistribution, name)
	}
}

func fitNormal(data []float64) (Distribution, error) {
	mean, variance := stat.MeanVariance(data, nil)
	if variance == 0 {
		return nil, fmt.Errorf("%w: normal fit needs a non-constant sample", ErrNoSpread)
	}
	sigma := math.Sqrt(variance)
	return fitted{
		name:       Normal,
		params:     []Param{{"mu", mean}, {"sigma", sigma}},
		continuous: distuv.Normal{Mu: mean, Sigma: sigma},
	}, nil
}

func fitLogNormal(data []float64) (Distribution, error) {
	logs := make([]float64, len(data))
	for i, v := range data {
		if v <= 0 {
			return nil, fmt.Errorf("%w: lognormal fit needs strictly positive data", ErrUnsupportedData)
		}
		logs[i] = math.Log(v)
	}
	mean, variance := stat.MeanVariance(logs, nil)
	if variance == 0 {
		return nil, fmt.Errorf("%w: lognormal fit needs a non-constant sample", ErrNoSpread)
	}
	sigma := math.Sqrt(variance)
	return fitted{
		name:       LogNormal,
		params:     []Param{{"mu", mean}, {"sigma", sigma}},
		continuous: distuv.LogNormal{Mu: mean, Sigma: sigma},
	}, nil
}

func fitExponential(data []float64) (Distribution, error) {
	for _, v := range data {
		if v < 0 {
			return nil, fmt.Errorf("%w: exponential fit needs non-negative data", ErrUnsupportedData)
		}
	}
	mean := stat.Mean(data, nil)
	if mean == 0 {
		return nil, fmt.Errorf("%w: exponential fit needs a positive mean", ErrNoSpread)
	}
	rate := 1 / mean
	return fitted{
		name:       Exponential,
		params:     []Param{{"rate", rate}},
		continuous: distuv.Exponential{Rate: rate},
	}, nil
}

func fitGamma(data []float64) (Distribution, error) {
	for _, v := range data {
		if v < 0 {
			return nil, fmt.Errorf("%w: gamma fit needs non-negative data", ErrUnsupportedData)
		}
	}
	mean, variance := stat.MeanVariance(data, nil)
	if mean == 0 {
		return nil, fmt.Errorf("%w: gamma fit needs a positive mean", ErrUnsupportedData)
	}
	if variance == 0 {
		return nil, fmt.Errorf("%w: gamma fit needs a non-constant sample", ErrNoSpread)
	}
	// Moment estimators: shape mean^2/var, rate mean/var.
	alpha := mean * mean / variance
	beta := mean / variance
	return fitted{
		name:       Gamma,
		params:     []Param{{"alpha", alpha}, {"beta", beta}},
		continuous: distuv.Gamma{Alpha: alpha, Beta: beta},
	}, nil
}

func fitLogistic(data []float64) (Distribution, error) {
	mean, variance := stat.MeanVariance(data, nil)
	if variance == 0 {
		return nil, fmt.Errorf("%w: logistic fit needs a non-constant sample", ErrNoSpread)
	}
	// Logistic variance is s^2*pi^2/3.
	s := math.Sqrt(3*variance) / math.Pi
	return fitted{
		name:       Logistic,
		params:     []Param{{"mu", mean}, {"s", s}},
		continuous: logisticDist{mu: mean, s: s},
	}, nil
}

func fitUniform(data []float64) (Distribution, error) {
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return nil, fmt.Errorf("%w: uniform fit needs a non-constant sample", ErrNoSpread)
	}
	return fitted{
		name:       Uniform,
		params:     []Param{{"min", lo}, {"max", hi}},
		continuous: distuv.Uniform{Min: lo, Max: hi},
	}, nil
}

func fitChiSquared(data []float64) (Distribution, error) {
	for _, v := range data {
		if v < 0 {
			return nil, fmt.Errorf("%w: chi-squared fit needs non-negative data", ErrUnsupportedData)
		}
	}
	// The mean of a chi-squared distribution equals its degrees of freedom.
	k := stat.Mean(data, nil)
	if k == 0 {
		return nil, fmt.Errorf("%w: chi-squared fit needs a positive mean", ErrNoSpread)
	}
	return fitted{
		name:       ChiSquared,
		params:     []Param{{"k", k}},
		continuous: distuv.ChiSquared{K: k},
	}, nil
}

func fitPareto(data []float64) (Distribution, error) {
	xm := data[0]
	for _, v := range data {
		if v <= 0 {
			return nil, fmt.Errorf("%w: pareto fit needs strictly positive data", ErrUnsupportedData)
		}
		if v < xm {
			xm = v
		}
	}
	var sum float64
	for _, v := range data {
		sum += math.Log(v / xm)
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: pareto fit needs a non-constant sample", ErrNoSpread)
	}
	alpha := float64(len(data)) / sum
	return fitted{
		name:       Pareto,
		params:     []Param{{"xm", xm}, {"alpha", alpha}},
		continuous: paretoDist{xm: xm, alpha: alpha},
	}, nil
}
