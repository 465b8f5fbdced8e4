package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entrowatt/pkg/protocol"
	"entrowatt/pkg/summary"
)

const cliScript = `
context_limit: 8
base:
  " Yes": 5
  " No": 3
  " Maybe": 2
rules:
  - suffix: [" Yes"]
    next:
      " Yes": 0
      " No": 8
      " Maybe": 2
`

func TestRunCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(modelPath, []byte(cliScript), 0o644))
	outDir := filepath.Join(dir, "logs")

	rootCmd.SetArgs([]string{
		"run",
		"--run-id", "001",
		"--mode", "A2B",
		"--model", modelPath,
		"--out-dir", outDir,
	})
	require.NoError(t, rootCmd.Execute())

	s, err := summary.Read(filepath.Join(outDir, "summary_001_A2B.csv"))
	require.NoError(t, err)

	assert.Equal(t, "001", s.RunID)
	assert.Equal(t, protocol.ModeA2B, s.Mode)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, protocol.LabelA, s.Steps[0].Label)
	assert.Equal(t, protocol.LabelB, s.Steps[1].Label)
	assert.NotEmpty(t, s.Fingerprint)

	// Re-running without --overwrite must not clobber the summary.
	rootCmd.SetArgs([]string{
		"run",
		"--run-id", "001",
		"--mode", "A2B",
		"--model", modelPath,
		"--out-dir", outDir,
	})
	err = rootCmd.Execute()
	assert.ErrorIs(t, err, summary.ErrWriteConflict)
}
