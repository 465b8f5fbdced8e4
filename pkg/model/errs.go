package model

import "errors"

var (
	// ErrTokenRejected indicates the runtime refused a forced token,
	// typically because it is not in the vocabulary.
	ErrTokenRejected = errors.New("model: token rejected")

	// ErrContextFull indicates the sequence has reached the runtime's
	// context limit and no further token can be appended.
	ErrContextFull = errors.New("model: context full")

	// ErrEmptyScript indicates a script model file with no base
	// distribution.
	ErrEmptyScript = errors.New("model: script has no base distribution")
)
