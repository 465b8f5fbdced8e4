package protocol

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entrowatt/pkg/model"
)

// orderScript reacts differently to " Yes" and " No" so the two orders
// leave measurably different distributions behind.
const orderScript = `
context_limit: 8
base:
  " Yes": 5
  " No": 3
  " Maybe": 2
rules:
  - suffix: [" Yes"]
    next:
      " Yes": 1
      " No": 8
      " Maybe": 1
  - suffix: [" No"]
    next:
      " Yes": 4
      " No": 4
      " Maybe": 2
  - suffix: [" Yes", " No"]
    next:
      " Yes": 9
      " No": 1
      " Maybe": 0
  - suffix: [" No", " Yes"]
    next:
      " Yes": 2
      " No": 2
      " Maybe": 6
`

func loadScript(t *testing.T) (model.Loader, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(orderScript), 0o644))
	return model.ScriptLoader{}, path
}

func spec(runID string) Spec {
	return Spec{
		RunID:     runID,
		SessionID: "sess-test",
		TokenA:    " Yes",
		TokenB:    " No",
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"A2B", "B2A", "BOTH"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}
	_, err := ParseMode("sideways")
	assert.ErrorIs(t, err, ErrBadMode)
}

func TestRunner_TwoStepRun(t *testing.T) {
	loader, path := loadScript(t)
	st, err := loader.Load(path)
	require.NoError(t, err)

	r, err := NewRunner(spec("001"), ModeA2B, st)
	require.NoError(t, err)
	rec, err := r.Run()
	require.NoError(t, err)

	require.Len(t, rec.Steps, 2)
	assert.Equal(t, LabelA, rec.Steps[0].Label)
	assert.Equal(t, LabelB, rec.Steps[1].Label)
	assert.Equal(t, model.Token(" Yes"), rec.Steps[0].Forced)
	assert.Equal(t, model.Token(" No"), rec.Steps[1].Forced)
	assert.Equal(t, 0, rec.Steps[0].Pos)
	assert.Equal(t, 1, rec.Steps[1].Pos)

	// 4 probe checkpoints, each carrying both targets.
	for _, s := range rec.Steps {
		assert.Len(t, s.Pre.TokenProb, 2)
		assert.Len(t, s.Post.TokenProb, 2)
	}

	assert.Equal(t, "001", rec.RunID)
	assert.Equal(t, ModeA2B, rec.Mode)
	assert.NotEmpty(t, rec.Fingerprint)
	assert.False(t, rec.Started.IsZero())
	assert.False(t, rec.Finished.Before(rec.Started))

	// Step B's pre-probe sees the distribution token A left behind.
	assert.InDelta(t, 0.8, rec.Steps[1].Pre.Prob(" No"), 1e-12)
}

func TestRunner_SingleUse(t *testing.T) {
	loader, path := loadScript(t)
	st, err := loader.Load(path)
	require.NoError(t, err)

	r, err := NewRunner(spec("002"), ModeB2A, st)
	require.NoError(t, err)
	_, err = r.Run()
	require.NoError(t, err)

	_, err = r.Run()
	assert.ErrorIs(t, err, ErrRunFinalized)
}

func TestRunner_BothNotDirectlyRunnable(t *testing.T) {
	loader, path := loadScript(t)
	st, err := loader.Load(path)
	require.NoError(t, err)

	_, err = NewRunner(spec("003"), ModeBoth, st)
	assert.ErrorIs(t, err, ErrBadMode)
}

// rejectingState accepts a fixed number of injections then refuses.
type rejectingState struct {
	accepted int
	limit    int
}

func (s *rejectingState) NextTokenDistribution() (model.Distribution, error) {
	return model.Distribution{" Yes": 0.5, " No": 0.5}, nil
}

func (s *rejectingState) ForceAppend(tok model.Token) error {
	if s.accepted >= s.limit {
		return model.ErrTokenRejected
	}
	s.accepted++
	return nil
}

func (s *rejectingState) Pos() int            { return s.accepted }
func (s *rejectingState) Fingerprint() string { return "reject-fixture" }

func TestRunner_AbortDiscardsPartialSteps(t *testing.T) {
	// First injection lands, second is refused: the whole run aborts.
	r, err := NewRunner(spec("004"), ModeA2B, &rejectingState{limit: 1})
	require.NoError(t, err)

	rec, err := r.Run()
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrTokenInjection)
	assert.ErrorIs(t, err, model.ErrTokenRejected)

	// Aborted is terminal, same as finalized for further requests.
	_, err = r.Run()
	assert.ErrorIs(t, err, ErrRunFinalized)
}

func TestExecute_BothIsOrderSensitive(t *testing.T) {
	loader, path := loadScript(t)

	recs, err := Execute(loader, path, spec("005"), ModeBoth)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, ModeA2B, recs[0].Mode)
	assert.Equal(t, ModeB2A, recs[1].Mode)

	// Both runs start from a pristine state: identical pre-probes.
	a, b := recs[0], recs[1]
	assert.InDelta(t, a.Steps[0].Pre.EntropyBits, b.Steps[0].Pre.EntropyBits, 1e-12)

	// But the orders end in different places.
	assert.NotEqual(t, a.Steps[1].Post.EntropyBits, b.Steps[1].Post.EntropyBits)
	assert.NotZero(t, OrderEffectBits(a, b))
}

func TestRunRecord_Deltas(t *testing.T) {
	loader, path := loadScript(t)
	recs, err := Execute(loader, path, spec("006"), ModeA2B)
	require.NoError(t, err)
	rec := recs[0]

	stepA, ok := rec.Step(LabelA)
	require.True(t, ok)
	assert.InDelta(t, stepA.Post.EntropyBits-stepA.Pre.EntropyBits, stepA.DeltaEntropyBits(), 1e-12)

	want := rec.Steps[1].Post.EntropyBits - rec.Steps[0].Pre.EntropyBits
	assert.InDelta(t, want, rec.DeltaEntropyBits(), 1e-12)

	_, ok = rec.Step(Label("C"))
	assert.False(t, ok)
}

func TestExecute_LoadFailure(t *testing.T) {
	_, err := Execute(model.ScriptLoader{}, filepath.Join(t.TempDir(), "nope.yaml"), spec("007"), ModeA2B)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
