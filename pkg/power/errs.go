package power

import "errors"

var (
	// ErrMalformedLog indicates a power log with no recognizable
	// time/power columns or no parsable data rows.
	ErrMalformedLog = errors.New("power: malformed log")

	// ErrInsufficientSamples indicates too few samples to trust an idle
	// baseline.
	ErrInsufficientSamples = errors.New("power: insufficient samples")

	// ErrEmptyOverlap indicates no power samples fall inside the run
	// window, usually clock skew or a mislabeled file.
	ErrEmptyOverlap = errors.New("power: no samples in window")
)
