package summary

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"entrowatt/pkg/protocol"
)

// Writer serializes run records under Dir. Existing files are protected
// unless Overwrite is set, so a mistyped run id cannot clobber a prior
// run.
type Writer struct {
	Dir       string
	Overwrite bool
}

// Write persists one run record and returns the file path.
func (w Writer) Write(rec *protocol.RunRecord) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}

	path := filepath.Join(w.Dir, FileName(rec.RunID, rec.Mode))
	if !w.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", ErrWriteConflict, path)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", err
	}
	for _, s := range rec.Steps {
		row := []string{
			rec.RunID,
			string(rec.Mode),
			rec.SessionID,
			rec.Fingerprint,
			rec.SessionNote,
			rec.Started.Format(time.RFC3339Nano),
			rec.Finished.Format(time.RFC3339Nano),
			string(s.Label),
			string(s.Forced),
			strconv.Itoa(s.Pos),
			fmtFloat(s.Pre.Prob(s.Forced)),
			fmtFloat(s.Post.Prob(s.Forced)),
			fmtFloat(s.Pre.EntropyBits),
			fmtFloat(s.Post.EntropyBits),
			fmtFloat(s.DeltaEntropyBits()),
		}
		if err := cw.Write(row); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// fmtFloat keeps full float64 precision so summaries round-trip.
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
