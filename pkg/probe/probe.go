// Package probe computes target-token probabilities and Shannon entropy
// from a next-token distribution.
//
// Entropy is reported in bits (base-2), matching the summary column
// convention. Probabilities are read from the distribution verbatim,
// never renormalized, so probe output is directly comparable across
// distributions of different support size.
package probe

import (
	"fmt"
	"math"
	"time"

	"entrowatt/pkg/model"
)

// DefaultSumTolerance is how far a distribution's total mass may drift
// from 1 before it is rejected.
const DefaultSumTolerance = 1e-6

// Options tune validation.
type Options struct {
	// SumTolerance overrides DefaultSumTolerance when > 0.
	SumTolerance float64
}

func (o Options) tolerance() float64 {
	if o.SumTolerance > 0 {
		return o.SumTolerance
	}
	return DefaultSumTolerance
}

// Result is one probe observation. Immutable once returned.
type Result struct {
	// TokenProb holds the probability of each requested target token,
	// exactly as it appears in the distribution.
	TokenProb map[model.Token]float64

	// EntropyBits is the Shannon entropy of the full distribution.
	EntropyBits float64

	// Pos is the sequence position the distribution was taken at.
	Pos int

	// At is when the probe was taken.
	At time.Time
}

// Prob returns the probability recorded for tok, or 0 if tok was not a
// target of this probe.
func (r Result) Prob(tok model.Token) float64 { return r.TokenProb[tok] }

// Probe validates dist and returns the probability of every target
// token plus full-distribution entropy. Pure with respect to its
// numeric outputs: a fixed distribution always yields the same
// probabilities and entropy.
func Probe(dist model.Distribution, targets []model.Token, pos int, opts Options) (Result, error) {
	if len(targets) == 0 {
		return Result{}, fmt.Errorf("%w: empty target set", ErrUnknownToken)
	}
	if err := validate(dist, opts.tolerance()); err != nil {
		return Result{}, err
	}

	probs := make(map[model.Token]float64, len(targets))
	for _, tok := range targets {
		p, ok := dist[tok]
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownToken, tok)
		}
		probs[tok] = p
	}

	return Result{
		TokenProb:   probs,
		EntropyBits: EntropyBits(dist),
		Pos:         pos,
		At:          time.Now(),
	}, nil
}

// EntropyBits computes Shannon entropy over the whole distribution in
// bits. Zero-mass entries are skipped rather than fed to the logarithm.
func EntropyBits(dist model.Distribution) float64 {
	var h float64
	for _, p := range dist {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h / math.Ln2
}

func validate(dist model.Distribution, tol float64) error {
	if len(dist) == 0 {
		return fmt.Errorf("%w: empty distribution", ErrInvalidDistribution)
	}
	var sum float64
	for tok, p := range dist {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("%w: token %q has mass %g", ErrInvalidDistribution, tok, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > tol {
		return fmt.Errorf("%w: total mass %g (tolerance %g)", ErrInvalidDistribution, sum, tol)
	}
	return nil
}
