// SPDX-License-Identifier: MIT

package distribution

import (
	"math"
	"testing"
)

func TestParetoClosedForms(t *testing.T) {
	p := paretoDist{xm: 1, alpha: 2}

	if got := p.CDF(2); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("CDF(2) = %v, want 0.75", got)
	}
	if got := p.Quantile(0.75); math.Abs(got-2) > 1e-12 {
		t.Errorf("Quantile(0.75) = %v, want 2", got)
	}
	if got := p.Prob(2); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("Prob(2) = %v, want 0.25", got)
	}
}

func TestParetoBelowSupport(t *testing.T) {
	p := paretoDist{xm: 1, alpha: 2}

	if got := p.Prob(0.5); got != 0 {
		t.Errorf("Prob(0.5) = %v, want 0", got)
	}
	if got := p.CDF(0.5); got != 0 {
		t.Errorf("CDF(0.5) = %v, want 0", got)
	}
	if got := p.CDF(1); got != 0 {
		t.Errorf("CDF(xm) = %v, want 0", got)
	}
}
