// SPDX-License-Identifier: MIT

package distribution

import "math"

// logisticDist is the logistic distribution with location mu and scale s.
// Not covered by distuv, so the closed forms live here.
type logisticDist struct {
	mu, s float64
}

// Prob uses the sech form, which underflows to zero in the tails instead of
// producing Inf/Inf.
func (l logisticDist) Prob(x float64) float64 {
	c := math.Cosh((x - l.mu) / (2 * l.s))
	return 1 / (4 * l.s * c * c)
}

func (l logisticDist) CDF(x float64) float64 {
	return 1 / (1 + math.Exp(-(x-l.mu)/l.s))
}

func (l logisticDist) Quantile(p float64) float64 {
	return l.mu + l.s*math.Log(p/(1-p))
}
