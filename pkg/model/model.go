package model

// Token is a single vocabulary entry in decoded text form. Leading
// whitespace is significant: " Yes" and "Yes" are distinct tokens.
type Token string

// Distribution maps each candidate next token to its probability mass
// at one generation position. A well-formed distribution is non-negative
// and sums to 1 within floating-point tolerance; callers that need that
// guarantee validate it themselves (see pkg/probe).
type Distribution map[Token]float64

// Sum returns the total probability mass.
func (d Distribution) Sum() float64 {
	var s float64
	for _, p := range d {
		s += p
	}
	return s
}

// Clone returns an independent copy of the distribution.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	for t, p := range d {
		out[t] = p
	}
	return out
}

// State is one model generation cursor: an append-only token sequence
// plus whatever the runtime needs to produce the next-token distribution.
// A State is mutable and exclusively owned; it must never be shared
// between protocol runs, because forcing a token changes every
// distribution the state produces afterwards.
type State interface {
	// NextTokenDistribution returns the candidate distribution at the
	// current position. Deterministic for a fixed sequence.
	NextTokenDistribution() (Distribution, error)

	// ForceAppend appends tok to the sequence, bypassing sampling.
	// Returns ErrTokenRejected (possibly wrapping ErrContextFull) if the
	// runtime refuses the token.
	ForceAppend(tok Token) error

	// Pos returns the number of tokens appended so far.
	Pos() int

	// Fingerprint identifies the loaded model artifact, for run records.
	Fingerprint() string
}

// Loader opens a model artifact and returns a fresh State positioned at
// the start of its sequence. Each Load call must yield an independent
// State.
type Loader interface {
	Load(path string) (State, error)
}
