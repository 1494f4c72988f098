// SPDX-License-Identifier: MIT

// Package distribution fits parametric distributions to samples and
// generates synthetic variates from the fitted parameters. The supported
// families mirror the ones the profiling pipeline ranks as candidates.
package distribution

import (
	"errors"
	"math/rand"
)

// Name identifies a supported distribution family.
type Name string

const (
	Normal      Name = "normal"
	LogNormal   Name = "lognormal"
	Exponential Name = "exponential"
	Gamma       Name = "gamma"
	Logistic    Name = "logistic"
	Uniform     Name = "uniform"
	ChiSquared  Name = "chisquared"
	Pareto      Name = "pareto"
)

// Names lists the supported families in registry order.
func Names() []Name {
	return []Name{Normal, LogNormal, Exponential, Gamma, Logistic, Uniform, ChiSquared, Pareto}
}

var (
	// ErrUnknownDistribution indicates a family name outside the registry.
	ErrUnknownDistribution = errors.New("distribution: unknown distribution")
	// ErrUnsupportedData indicates data outside the family's support.
	ErrUnsupportedData = errors.New("distribution: data outside the distribution support")
	// ErrSampleTooSmall indicates too few observations to estimate parameters.
	ErrSampleTooSmall = errors.New("distribution: sample too small")
	// ErrNoSpread indicates a constant sample where spread is required.
	ErrNoSpread = errors.New("distribution: sample has no spread")
	// ErrNoCandidates indicates that no family admitted the data.
	ErrNoCandidates = errors.New("distribution: no candidate distribution fits the data")
)

// Param is a named distribution parameter. Order is family-specific and
// stable.
type Param struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Distribution is a fitted parametric distribution.
type Distribution interface {
	Name() Name
	Params() []Param
	PDF(x float64) float64
	CDF(x float64) float64
	Quantile(p float64) float64
	Rand() float64
}

// continuous is the slice of gonum's distuv surface the registry relies on.
// The locally implemented families satisfy it too.
type continuous interface {
	Prob(x float64) float64
	CDF(x float64) float64
	Quantile(p float64) float64
}

// fitted adapts a continuous implementation into a Distribution.
type fitted struct {
	name   Name
	params []Param
	continuous
}

func (f fitted) Name() Name { return f.name }

func (f fitted) Params() []Param {
	out := make([]Param, len(f.params))
	copy(out, f.params)
	return out
}

func (f fitted) PDF(x float64) float64 { return f.Prob(x) }

// Rand draws one variate by inverse transform sampling from the process-wide
// source. Deterministic sampling goes through Generator.
func (f fitted) Rand() float64 {
	return f.Quantile(unitOpen(rand.Float64))
}

// unitOpen draws from the open interval (0, 1) so that quantiles of
// unbounded supports stay finite.
func unitOpen(next func() float64) float64 {
	for {
		if u := next(); u > 0 {
			return u
		}
	}
}
