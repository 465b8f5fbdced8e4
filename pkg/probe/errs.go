package probe

import "errors"

var (
	// ErrInvalidDistribution indicates the distribution is empty, has
	// negative mass, or does not sum to 1 within tolerance.
	ErrInvalidDistribution = errors.New("probe: invalid distribution")

	// ErrUnknownToken indicates a target token absent from the
	// distribution's support, or an empty target set.
	ErrUnknownToken = errors.New("probe: unknown token")
)
