// Package protocol implements the order-dependent forced-token
// intervention protocol. A run forces token A and token B into one
// exclusively owned model generation state in a fixed order, probing
// the next-token distribution before and after each injection. Because
// every injection mutates the state, the two orders (A→B vs B→A) are
// executed over independently loaded states and compared afterwards.
package protocol

import (
	"fmt"
	"time"

	"entrowatt/pkg/model"
	"entrowatt/pkg/probe"
)

// Mode selects the intervention order.
type Mode string

const (
	ModeA2B  Mode = "A2B"
	ModeB2A  Mode = "B2A"
	ModeBoth Mode = "BOTH"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeA2B, ModeB2A, ModeBoth:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q (want A2B, B2A or BOTH)", ErrBadMode, s)
}

// order returns the step labels for a directly runnable mode.
func (m Mode) order() []Label {
	switch m {
	case ModeA2B:
		return []Label{LabelA, LabelB}
	case ModeB2A:
		return []Label{LabelB, LabelA}
	}
	return nil
}

type runState int

const (
	stateInit runState = iota
	stateRunning
	stateFinalized
	stateAborted
)

// Spec configures a protocol run.
type Spec struct {
	RunID       string
	SessionID   string
	SessionNote string
	TokenA      model.Token
	TokenB      model.Token
	Probe       probe.Options
}

func (s Spec) token(l Label) model.Token {
	if l == LabelA {
		return s.TokenA
	}
	return s.TokenB
}

// targets is the shared token set probed at every checkpoint.
func (s Spec) targets() []model.Token {
	return []model.Token{s.TokenA, s.TokenB}
}

// Runner drives one run of one order over one model state. Steps are
// strictly sequential; each depends on the generation state left by the
// previous one. A Runner is single-use.
type Runner struct {
	spec  Spec
	mode  Mode
	st    model.State
	state runState
}

// NewRunner creates a runner for a directly runnable mode (A2B or B2A).
// BOTH is a composition of two runners; see Execute.
func NewRunner(spec Spec, mode Mode, st model.State) (*Runner, error) {
	if len(mode.order()) == 0 {
		return nil, fmt.Errorf("%w: %q is not directly runnable", ErrBadMode, mode)
	}
	return &Runner{spec: spec, mode: mode, st: st}, nil
}

// Run executes the full step sequence and seals the run record. A run
// is all-or-nothing: any probe or injection failure aborts it and
// discards the steps captured so far, since a partial record in one
// order cannot be compared against a complete record in the other.
func (r *Runner) Run() (*RunRecord, error) {
	if r.state != stateInit {
		return nil, ErrRunFinalized
	}
	r.state = stateRunning

	rec := &RunRecord{
		RunID:       r.spec.RunID,
		Mode:        r.mode,
		SessionID:   r.spec.SessionID,
		SessionNote: r.spec.SessionNote,
		Fingerprint: r.st.Fingerprint(),
		Started:     time.Now(),
	}

	for _, lbl := range r.mode.order() {
		step, err := r.step(lbl)
		if err != nil {
			r.state = stateAborted
			return nil, fmt.Errorf("run %s %s: step %s: %w", rec.RunID, rec.Mode, lbl, err)
		}
		rec.Steps = append(rec.Steps, step)
	}

	rec.Finished = time.Now()
	r.state = stateFinalized
	return rec, nil
}

// step probes, forces one token, and probes again.
func (r *Runner) step(lbl Label) (StepRecord, error) {
	tok := r.spec.token(lbl)
	pos := r.st.Pos()

	dist, err := r.st.NextTokenDistribution()
	if err != nil {
		return StepRecord{}, fmt.Errorf("pre distribution: %w", err)
	}
	pre, err := probe.Probe(dist, r.spec.targets(), pos, r.spec.Probe)
	if err != nil {
		return StepRecord{}, err
	}

	if err := r.st.ForceAppend(tok); err != nil {
		return StepRecord{}, fmt.Errorf("%w: %w", ErrTokenInjection, err)
	}

	dist, err = r.st.NextTokenDistribution()
	if err != nil {
		return StepRecord{}, fmt.Errorf("post distribution: %w", err)
	}
	post, err := probe.Probe(dist, r.spec.targets(), r.st.Pos(), r.spec.Probe)
	if err != nil {
		return StepRecord{}, err
	}

	return StepRecord{Label: lbl, Forced: tok, Pre: pre, Post: post, Pos: pos}, nil
}

// Execute runs the requested mode against a model artifact. BOTH
// decomposes into two independent runs over two independently loaded
// states, so the second order starts from a pristine distribution.
// Records come back in execution order (A2B before B2A for BOTH).
func Execute(loader model.Loader, modelPath string, spec Spec, mode Mode) ([]*RunRecord, error) {
	modes := []Mode{mode}
	if mode == ModeBoth {
		modes = []Mode{ModeA2B, ModeB2A}
	}

	var recs []*RunRecord
	for _, m := range modes {
		st, err := loader.Load(modelPath)
		if err != nil {
			return nil, fmt.Errorf("load model for %s: %w", m, err)
		}
		runner, err := NewRunner(spec, m, st)
		if err != nil {
			return nil, err
		}
		rec, err := runner.Run()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
