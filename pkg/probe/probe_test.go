package probe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entrowatt/pkg/model"
)

func TestProbe_ReadsProbabilityVerbatim(t *testing.T) {
	dist := model.Distribution{" Yes": 0.7, " No": 0.2, " Maybe": 0.1}

	res, err := Probe(dist, []model.Token{" Yes", " No"}, 3, Options{})
	require.NoError(t, err)

	// Exact reads, no renormalization over the target subset.
	assert.Equal(t, 0.7, res.Prob(" Yes"))
	assert.Equal(t, 0.2, res.Prob(" No"))
	assert.Equal(t, 0.0, res.Prob(" Maybe"), "non-target reads as zero")
	assert.Equal(t, 3, res.Pos)
	assert.False(t, res.At.IsZero())
}

func TestEntropyBits(t *testing.T) {
	tests := []struct {
		name string
		dist model.Distribution
		want float64
	}{
		{"point mass", model.Distribution{"a": 1}, 0},
		{"uniform pair", model.Distribution{"a": 0.5, "b": 0.5}, 1},
		{"uniform quad", model.Distribution{"a": 0.25, "b": 0.25, "c": 0.25, "d": 0.25}, 2},
		{"zero mass skipped", model.Distribution{"a": 0.5, "b": 0.5, "c": 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EntropyBits(tt.dist), 1e-12)
		})
	}
}

func TestEntropy_NonNegative(t *testing.T) {
	dists := []model.Distribution{
		{"a": 1},
		{"a": 0.9, "b": 0.1},
		{"a": 1e-9, "b": 1 - 1e-9},
		{"a": 0.3, "b": 0.3, "c": 0.4},
	}
	for _, d := range dists {
		h := EntropyBits(d)
		assert.GreaterOrEqual(t, h, 0.0)
		if h == 0 {
			// Entropy hits zero only for a point mass.
			var nonzero int
			for _, p := range d {
				if p > 0 {
					nonzero++
				}
			}
			assert.Equal(t, 1, nonzero)
		}
	}
}

func TestProbe_InvalidDistribution(t *testing.T) {
	targets := []model.Token{"a"}

	_, err := Probe(model.Distribution{}, targets, 0, Options{})
	assert.ErrorIs(t, err, ErrInvalidDistribution)

	_, err = Probe(model.Distribution{"a": 0.5, "b": 0.6}, targets, 0, Options{})
	assert.ErrorIs(t, err, ErrInvalidDistribution)

	_, err = Probe(model.Distribution{"a": -0.5, "b": 1.5}, targets, 0, Options{})
	assert.ErrorIs(t, err, ErrInvalidDistribution)

	_, err = Probe(model.Distribution{"a": math.NaN(), "b": 1}, targets, 0, Options{})
	assert.ErrorIs(t, err, ErrInvalidDistribution)

	// A generous tolerance admits the same drift.
	_, err = Probe(model.Distribution{"a": 0.5, "b": 0.55}, targets, 0, Options{SumTolerance: 0.1})
	assert.NoError(t, err)
}

func TestProbe_UnknownToken(t *testing.T) {
	dist := model.Distribution{"a": 1}

	_, err := Probe(dist, []model.Token{"zzz"}, 0, Options{})
	assert.ErrorIs(t, err, ErrUnknownToken)

	_, err = Probe(dist, nil, 0, Options{})
	assert.ErrorIs(t, err, ErrUnknownToken)
}
