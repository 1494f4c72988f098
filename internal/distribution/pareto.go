// SPDX-License-Identifier: MIT

package distribution

import "math"

// paretoDist is the Pareto (type I) distribution with minimum xm and shape
// alpha. Closed forms throughout, support [xm, inf).
type paretoDist struct {
	xm, alpha float64
}

func (p paretoDist) Prob(x float64) float64 {
	if x < p.xm {
		return 0
	}
	return p.alpha / p.xm * math.Pow(p.xm/x, p.alpha+1)
}

func (p paretoDist) CDF(x float64) float64 {
	if x < p.xm {
		return 0
	}
	return 1 - math.Pow(p.xm/x, p.alpha)
}

func (p paretoDist) Quantile(q float64) float64 {
	return p.xm / math.Pow(1-q, 1/p.alpha)
}
