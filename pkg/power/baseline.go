package power

import "fmt"

// DefaultMinIdleSamples is the smallest idle series worth averaging. A
// near-empty baseline says more about the logger than the system.
const DefaultMinIdleSamples = 10

// Baseline reduces a dedicated idle power series to its scalar mean.
// Comparability with experimental runs (same power plan, AC state) is
// an environmental precondition the caller documents, not something
// this code can detect.
func Baseline(samples []Sample, minCount int) (float64, error) {
	if minCount <= 0 {
		minCount = DefaultMinIdleSamples
	}
	if len(samples) < minCount {
		return 0, fmt.Errorf("%w: got %d idle samples, need %d", ErrInsufficientSamples, len(samples), minCount)
	}
	return Mean(samples), nil
}
