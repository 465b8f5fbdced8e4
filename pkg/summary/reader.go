package summary

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"entrowatt/pkg/model"
	"entrowatt/pkg/protocol"
)

// Step is one intervention step as read back from a summary file.
type Step struct {
	Label     protocol.Label
	Forced    model.Token
	Pos       int
	PreProb   float64
	PostProb  float64
	PreHBits  float64
	PostHBits float64
}

// Summary is a run record reconstructed from disk.
type Summary struct {
	RunID       string
	Mode        protocol.Mode
	SessionID   string
	Fingerprint string
	SessionNote string
	Started     time.Time
	Finished    time.Time
	Steps       []Step
}

// DeltaEntropyBits mirrors protocol.RunRecord: last post-probe entropy
// minus first pre-probe entropy.
func (s *Summary) DeltaEntropyBits() float64 {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].PostHBits - s.Steps[0].PreHBits
}

// Step returns the step with the given label, if present.
func (s *Summary) Step(l protocol.Label) (Step, bool) {
	for _, st := range s.Steps {
		if st.Label == l {
			return st, true
		}
	}
	return Step{}, false
}

// Read parses one summary file. Column order is taken from the header,
// so files written by older layouts still load as long as the columns
// exist.
func Read(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open summary: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSummary, path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s: no data rows", ErrMalformedSummary, path)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, name := range header {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrMalformedSummary, path, name)
		}
	}

	get := func(row []string, name string) string { return row[col[name]] }
	first := records[1]

	started, err := time.Parse(time.RFC3339Nano, get(first, "run_start"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: run_start: %v", ErrMalformedSummary, path, err)
	}
	finished, err := time.Parse(time.RFC3339Nano, get(first, "run_end"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: run_end: %v", ErrMalformedSummary, path, err)
	}

	out := &Summary{
		RunID:       get(first, "run_id"),
		Mode:        protocol.Mode(get(first, "mode")),
		SessionID:   get(first, "session_id"),
		Fingerprint: get(first, "fingerprint"),
		SessionNote: get(first, "session_note"),
		Started:     started,
		Finished:    finished,
	}

	for _, row := range records[1:] {
		pos, err := strconv.Atoi(get(row, "pos"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: pos: %v", ErrMalformedSummary, path, err)
		}
		step := Step{
			Label:  protocol.Label(get(row, "step_label")),
			Forced: model.Token(get(row, "forced_token")),
			Pos:    pos,
		}
		for _, fld := range []struct {
			name string
			dst  *float64
		}{
			{"pre_p_forced", &step.PreProb},
			{"post_p_forced", &step.PostProb},
			{"pre_h_bits", &step.PreHBits},
			{"post_h_bits", &step.PostHBits},
		} {
			v, err := strconv.ParseFloat(get(row, fld.name), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %s: %v", ErrMalformedSummary, path, fld.name, err)
			}
			*fld.dst = v
		}
		out.Steps = append(out.Steps, step)
	}
	return out, nil
}
