// Package summary persists finalized run records as per-run CSV files
// and reads them back for aggregation. One row per intervention step;
// run-level metadata is repeated on every row so a file is
// self-describing.
package summary

import (
	"fmt"
	"regexp"

	"entrowatt/pkg/protocol"
)

// Columns, in file order.
var header = []string{
	"run_id", "mode", "session_id", "fingerprint", "session_note",
	"run_start", "run_end",
	"step_label", "forced_token", "pos",
	"pre_p_forced", "post_p_forced",
	"pre_h_bits", "post_h_bits", "delta_h_bits",
}

var nameRe = regexp.MustCompile(`^summary_(.+?)_(A2B|B2A)\.csv$`)

// FileName is the deterministic per-run summary name.
func FileName(runID string, mode protocol.Mode) string {
	return fmt.Sprintf("summary_%s_%s.csv", runID, mode)
}

// ParseFileName extracts run id and mode from a summary file name.
func ParseFileName(name string) (runID string, mode protocol.Mode, ok bool) {
	m := nameRe.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], protocol.Mode(m[2]), true
}
