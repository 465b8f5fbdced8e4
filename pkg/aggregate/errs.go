package aggregate

import "errors"

var (
	// ErrMissingPowerLog indicates no power log matched a run's naming
	// convention. The run's row is omitted, not the whole aggregation.
	ErrMissingPowerLog = errors.New("aggregate: missing power log")

	// ErrNoSummaries indicates the summaries directory held nothing to
	// aggregate.
	ErrNoSummaries = errors.New("aggregate: no summaries found")
)
