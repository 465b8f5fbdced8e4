// Package aggregate joins per-run summaries with their power logs,
// subtracts the idle baseline, and integrates net power into net
// energy: one row per run, idempotently persisted.
package aggregate

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"entrowatt/pkg/power"
	"entrowatt/pkg/protocol"
	"entrowatt/pkg/summary"
)

// Status classifies the outcome of aggregating one run.
type Status string

const (
	StatusOK             Status = "ok"
	StatusMissingPower   Status = "missing_power_log"
	StatusEmptyOverlap   Status = "empty_overlap"
	StatusMalformedPower Status = "malformed_power_log"
	StatusBadSummary     Status = "malformed_summary"
)

// Report is the per-run status surfaced alongside the table. One bad
// run never fails the batch.
type Report struct {
	RunID  string
	Mode   protocol.Mode
	Status Status
	Detail string
}

// Row is one line of the aggregate table. Net fields are NaN when no
// idle baseline was available; order effect is NaN until the opposite
// order of the same run id has been summarized.
type Row struct {
	RunID       string
	Mode        protocol.Mode
	SessionID   string
	Fingerprint string

	DeltaHABits float64
	DeltaHBBits float64
	DeltaPA     float64
	DeltaPB     float64
	RunDeltaH   float64
	OrderEffect float64

	IdleW      float64
	GrossAvgW  float64
	NetAvgW    float64
	NetEnergyJ float64
	DurationS  float64
}

// Result is the aggregation output: the table plus per-run reports.
type Result struct {
	Rows    []Row
	Reports []Report
	IdleW   float64
	IdleOK  bool
}

// Options configure one aggregation pass.
type Options struct {
	SummariesDir   string
	PowerDir       string
	IdlePath       string
	MinIdleSamples int
	Log            *slog.Logger
}

// PowerFileName is the vendor log name matching a run, by convention.
func PowerFileName(runID string, mode protocol.Mode) string {
	return fmt.Sprintf("run_%s_%s.csv", runID, mode)
}

// Aggregate runs one pass over every summary in the summaries
// directory. Row order follows summary file name order, so repeated
// passes over the same inputs produce identical tables.
func Aggregate(opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	res := &Result{}

	if opts.IdlePath == "" {
		log.Warn("no idle baseline configured, net power/energy will be blank")
	} else {
		idle, err := readIdle(opts.IdlePath, opts.MinIdleSamples)
		if err != nil {
			log.Warn("idle baseline unavailable, net power/energy will be blank", "path", opts.IdlePath, "err", err)
		} else {
			res.IdleW, res.IdleOK = idle, true
		}
	}

	entries, err := os.ReadDir(opts.SummariesDir)
	if err != nil {
		return nil, fmt.Errorf("read summaries dir: %w", err)
	}

	// First pass: parse every summary, so order effects can pair the
	// two directions of a run even when one side lacks power data.
	type unit struct {
		runID string
		mode  protocol.Mode
		sum   *summary.Summary // nil when the file failed to parse
		err   error
	}
	var units []unit
	deltaH := map[string]map[protocol.Mode]float64{}

	for _, e := range entries {
		runID, mode, ok := summary.ParseFileName(e.Name())
		if !ok {
			continue
		}
		path := filepath.Join(opts.SummariesDir, e.Name())
		s, err := summary.Read(path)
		if err != nil {
			log.Warn("skipping unreadable summary", "path", path, "err", err)
			units = append(units, unit{runID: runID, mode: mode, err: err})
			continue
		}
		units = append(units, unit{runID: runID, mode: mode, sum: s})
		if deltaH[runID] == nil {
			deltaH[runID] = map[protocol.Mode]float64{}
		}
		deltaH[runID][mode] = s.DeltaEntropyBits()
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSummaries, opts.SummariesDir)
	}

	for _, u := range units {
		if u.sum == nil {
			res.Reports = append(res.Reports, Report{RunID: u.runID, Mode: u.mode, Status: StatusBadSummary, Detail: u.err.Error()})
			continue
		}
		row, report := aggregateOne(u.sum, opts, res, log)
		res.Reports = append(res.Reports, report)
		if report.Status != StatusOK {
			continue
		}
		row.OrderEffect = orderEffect(deltaH[u.runID])
		res.Rows = append(res.Rows, *row)
	}
	return res, nil
}

func aggregateOne(s *summary.Summary, opts Options, res *Result, log *slog.Logger) (*Row, Report) {
	report := Report{RunID: s.RunID, Mode: s.Mode, Status: StatusOK}

	powerPath := filepath.Join(opts.PowerDir, PowerFileName(s.RunID, s.Mode))
	if _, err := os.Stat(powerPath); err != nil {
		log.Warn("power log missing, omitting run from table", "run_id", s.RunID, "mode", s.Mode, "want", powerPath)
		report.Status = StatusMissingPower
		report.Detail = fmt.Sprintf("%v: %s", ErrMissingPowerLog, powerPath)
		return nil, report
	}

	// Clock-of-day vendor timestamps resolve against the run's own date.
	samples, err := power.ReadLogAt(powerPath, s.Started)
	if err != nil {
		log.Warn("power log unreadable, omitting run from table", "run_id", s.RunID, "mode", s.Mode, "err", err)
		report.Status = StatusMalformedPower
		report.Detail = err.Error()
		return nil, report
	}

	window := power.Window(samples, s.Started, s.Finished)
	if len(window) == 0 {
		log.Warn("no power samples inside run window, likely clock skew or a mislabeled file",
			"run_id", s.RunID, "mode", s.Mode, "run_start", s.Started, "run_end", s.Finished)
		report.Status = StatusEmptyOverlap
		report.Detail = fmt.Sprintf("%v: window %s..%s", power.ErrEmptyOverlap, s.Started.Format(time.RFC3339), s.Finished.Format(time.RFC3339))
		return nil, report
	}

	row := &Row{
		RunID:       s.RunID,
		Mode:        s.Mode,
		SessionID:   s.SessionID,
		Fingerprint: s.Fingerprint,
		RunDeltaH:   s.DeltaEntropyBits(),
		OrderEffect: math.NaN(),
		GrossAvgW:   power.Mean(window),
		DurationS:   s.Finished.Sub(s.Started).Seconds(),
		IdleW:       math.NaN(),
		NetAvgW:     math.NaN(),
		NetEnergyJ:  math.NaN(),
	}
	if stepA, ok := s.Step(protocol.LabelA); ok {
		row.DeltaHABits = stepA.PostHBits - stepA.PreHBits
		row.DeltaPA = stepA.PostProb - stepA.PreProb
	}
	if stepB, ok := s.Step(protocol.LabelB); ok {
		row.DeltaHBBits = stepB.PostHBits - stepB.PreHBits
		row.DeltaPB = stepB.PostProb - stepB.PreProb
	}
	if res.IdleOK {
		row.IdleW = res.IdleW
		// Negative net power is reported as-is; it flags a bad baseline.
		row.NetAvgW = row.GrossAvgW - res.IdleW
		row.NetEnergyJ = power.Integrate(window, res.IdleW)
	}
	return row, report
}

func readIdle(path string, minSamples int) (float64, error) {
	samples, err := power.ReadLog(path)
	if err != nil {
		return 0, err
	}
	return power.Baseline(samples, minSamples)
}

// orderEffect pairs the two directions of one run id.
func orderEffect(byMode map[protocol.Mode]float64) float64 {
	a, okA := byMode[protocol.ModeA2B]
	b, okB := byMode[protocol.ModeB2A]
	if !okA || !okB {
		return math.NaN()
	}
	return a - b
}
