// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"sort"

	"github.com/john-james-ai/d8analysis/internal/stattest"
)

// Candidate is one fitted family ranked against the data.
type Candidate struct {
	Distribution Distribution `json:"-"`
	Name         Name         `json:"name"`
	Params       []Param      `json:"params"`
	KSStatistic  float64      `json:"ks_statistic"`
	KSPValue     float64      `json:"ks_p_value"`
}

// Candidates fits every family whose support admits the data and ranks the
// fits by the Kolmogorov-Smirnov statistic, best first. Ties break toward
// the family with fewer parameters. Families the data cannot support are
// skipped silently.
func Candidates(data []float64, alpha float64) ([]Candidate, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: ranking needs at least 2 observations, got %d", ErrSampleTooSmall, len(data))
	}
	if !hasSpread(data) {
		// A constant sample admits no continuous fit, even where the
		// moment estimators are formally defined.
		return nil, ErrNoCandidates
	}

	var out []Candidate
	for _, name := range Names() {
		dist, err := Fit(name, data)
		if err != nil {
			continue
		}
		res, err := stattest.KolmogorovSmirnov(data, dist.CDF, alpha)
		if err != nil {
			continue
		}
		out = append(out, Candidate{
			Distribution: dist,
			Name:         dist.Name(),
			Params:       dist.Params(),
			KSStatistic:  res.Statistic,
			KSPValue:     res.PValue,
		})
	}
	if len(out) == 0 {
		return nil, ErrNoCandidates
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].KSStatistic != out[j].KSStatistic {
			return out[i].KSStatistic < out[j].KSStatistic
		}
		return len(out[i].Params) < len(out[j].Params)
	})
	return out, nil
}

func hasSpread(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return true
		}
	}
	return false
}
