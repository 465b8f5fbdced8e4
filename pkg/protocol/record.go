package protocol

import (
	"time"

	"entrowatt/pkg/model"
	"entrowatt/pkg/probe"
)

// Label names one intervention step within a run.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
)

// StepRecord captures one forced-token injection: the probe taken just
// before forcing, the forced token, and the probe taken just after.
type StepRecord struct {
	Label  Label
	Forced model.Token
	Pre    probe.Result
	Post   probe.Result
	Pos    int
}

// DeltaEntropyBits is the entropy change caused by this step.
func (s StepRecord) DeltaEntropyBits() float64 {
	return s.Post.EntropyBits - s.Pre.EntropyBits
}

// DeltaForcedProb is the change in the forced token's own probability
// across the step.
func (s StepRecord) DeltaForcedProb() float64 {
	return s.Post.Prob(s.Forced) - s.Pre.Prob(s.Forced)
}

// RunRecord is the sealed result of one protocol run. It is mutated
// only by its owning Runner; once the run finalizes, it is handed off
// and treated as immutable.
type RunRecord struct {
	RunID       string
	Mode        Mode
	SessionID   string
	Fingerprint string
	SessionNote string
	Started     time.Time
	Finished    time.Time
	Steps       []StepRecord
}

// DeltaEntropyBits is the run-level entropy change: last post-probe
// entropy minus first pre-probe entropy.
func (r *RunRecord) DeltaEntropyBits() float64 {
	if len(r.Steps) == 0 {
		return 0
	}
	first := r.Steps[0].Pre.EntropyBits
	last := r.Steps[len(r.Steps)-1].Post.EntropyBits
	return last - first
}

// Step returns the step with the given label, if present.
func (r *RunRecord) Step(l Label) (StepRecord, bool) {
	for _, s := range r.Steps {
		if s.Label == l {
			return s, true
		}
	}
	return StepRecord{}, false
}

// OrderEffectBits compares the two orders of the same run pair:
// ΔH(A→B) − ΔH(B→A). In general this is nonzero; a degenerate model
// for which it vanishes is a valid observation, not an error.
func OrderEffectBits(a2b, b2a *RunRecord) float64 {
	return a2b.DeltaEntropyBits() - b2a.DeltaEntropyBits()
}
