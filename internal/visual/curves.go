// SPDX-License-Identifier: MIT

package visual

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/john-james-ai/d8analysis/internal/distribution"
	"github.com/john-james-ai/d8analysis/internal/stattest"
)

// curvePoints is the polyline resolution for density and test curves.
const curvePoints = 500

// DensityCurve samples the PDF of a fitted distribution between its 0.001
// and 0.999 quantiles. n <= 1 uses the default resolution.
func DensityCurve(dist distribution.Distribution, n int) *ChartConfig {
	if n <= 1 {
		n = curvePoints
	}
	lo := dist.Quantile(0.001)
	hi := dist.Quantile(0.999)

	curve := Series{Name: string(dist.Name()), Points: make([]Point, n)}
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		x := lo + float64(i)*step
		curve.Points[i] = pt(x, dist.PDF(x))
	}
	return &ChartConfig{
		Type:   TypeLine,
		Title:  string(dist.Name()),
		XLabel: "x",
		YLabel: "density",
		Series: []Series{curve},
	}
}

// TestCurve renders the null distribution of a test result: the PDF
// polyline, the critical values at the chosen significance level and a
// marker at the observed statistic. Only tests with a Student's t or
// chi-squared null distribution have a rendering.
func TestCurve(result stattest.Result) (*ChartConfig, error) {
	pdf, quantile, twoSided, err := nullDistribution(result)
	if err != nil {
		return nil, err
	}

	lo := quantile(0.001)
	hi := quantile(0.999)

	curve := Series{Name: "pdf", Points: make([]Point, curvePoints)}
	step := (hi - lo) / float64(curvePoints-1)
	for i := 0; i < curvePoints; i++ {
		x := lo + float64(i)*step
		curve.Points[i] = pt(x, pdf(x))
	}

	critical := Series{Name: "critical"}
	if twoSided {
		// Two-sided: reject regions in both tails.
		cl := quantile(result.Alpha / 2)
		cu := quantile(1 - result.Alpha/2)
		critical.Points = []Point{pt(cl, pdf(cl)), pt(cu, pdf(cu))}
	} else {
		// Upper tail only.
		cu := quantile(1 - result.Alpha)
		critical.Points = []Point{pt(cu, pdf(cu))}
	}

	marker := Series{
		Name:   "statistic",
		Points: []Point{pt(result.Statistic, pdf(result.Statistic))},
	}

	return &ChartConfig{
		Type:       TypeLine,
		Title:      result.Test,
		Subtitle:   result.Verdict,
		XLabel:     "statistic",
		YLabel:     "density",
		Series:     []Series{curve, critical, marker},
		ShowLegend: true,
	}, nil
}

// nullDistribution maps a result to its null PDF and quantile function and
// reports whether the rejection region is two-sided.
func nullDistribution(result stattest.Result) (pdf, quantile func(float64) float64, twoSided bool, err error) {
	switch result.Test {
	case "one_sample_t", "two_sample_t":
		d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: result.DF}
		return d.Prob, d.Quantile, true, nil
	case "chi_square_gof", "chi_square_independence":
		d := distuv.ChiSquared{K: result.DF}
		return d.Prob, d.Quantile, false, nil
	default:
		return nil, nil, false, fmt.Errorf("%w: %s", ErrUnsupportedTest, result.Test)
	}
}
