package aggregate

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
)

// csvHeader matches the Row field order used by WriteCSV.
var csvHeader = []string{
	"run_id", "mode", "session_id", "fingerprint",
	"idle_avg_power_w", "gross_avg_power_w", "net_avg_power_w", "net_energy_j", "duration_s",
	"delta_h_a_bits", "delta_h_b_bits", "delta_p_a", "delta_p_b",
	"run_delta_h_bits", "order_effect_bits",
}

// WriteCSV renders the aggregate table. NaN fields (unknown idle, no
// order-effect pair yet) become empty cells, the same convention the
// per-run summaries use for absent values.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.RunID, string(r.Mode), r.SessionID, r.Fingerprint,
			cell(r.IdleW), cell(r.GrossAvgW), cell(r.NetAvgW), cell(r.NetEnergyJ), cell(r.DurationS),
			cell(r.DeltaHABits), cell(r.DeltaHBBits), cell(r.DeltaPA), cell(r.DeltaPB),
			cell(r.RunDeltaH), cell(r.OrderEffect),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
