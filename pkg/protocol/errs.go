package protocol

import "errors"

var (
	// ErrRunFinalized indicates a step or run request against a Runner
	// that has already finalized or aborted.
	ErrRunFinalized = errors.New("protocol: run already finalized")

	// ErrTokenInjection indicates the model runtime rejected a forced
	// token mid-run.
	ErrTokenInjection = errors.New("protocol: token injection failed")

	// ErrBadMode indicates an unrecognized protocol mode string.
	ErrBadMode = errors.New("protocol: bad mode")
)
