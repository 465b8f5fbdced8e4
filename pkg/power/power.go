// Package power reads vendor power-sampling logs and reduces them to
// the scalars the aggregator needs: windowed means, idle baselines, and
// trapezoidal energy integrals.
//
// Vendor CSV layouts vary, so column detection is heuristic: the time
// column is matched on "elapsed"/"time", the power column on
// "power"/"watt" with package/processor/cpu preferred. Non-data header
// and footer regions are skipped rather than treated as fatal.
package power

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sample is one externally produced power reading. Read-only to this
// system.
type Sample struct {
	At    time.Time
	Watts float64
}

// ReadLog parses a power log, resolving clock-of-day timestamps against
// the file's modification date.
func ReadLog(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open power log: %w", err)
	}
	defer f.Close()

	ref := time.Now()
	if fi, err := f.Stat(); err == nil {
		ref = fi.ModTime()
	}
	return readLog(f, path, ref)
}

// ReadLogAt is ReadLog with an explicit reference date for
// clock-of-day timestamps.
func ReadLogAt(path string, ref time.Time) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open power log: %w", err)
	}
	defer f.Close()
	return readLog(f, path, ref)
}

func readLog(r io.Reader, path string, ref time.Time) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // vendor footers have ragged rows

	var (
		timeCol  = -1
		powerCol = -1
		samples  []Sample
	)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedLog, path, err)
		}

		if timeCol < 0 {
			timeCol, powerCol = detectColumns(row)
			continue
		}
		if timeCol >= len(row) || powerCol >= len(row) {
			continue // footer or summary line
		}

		at, ok := parseTimestamp(strings.TrimSpace(row[timeCol]), ref)
		if !ok {
			continue
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(row[powerCol]), 64)
		if err != nil {
			continue
		}
		samples = append(samples, Sample{At: at, Watts: w})
	}

	if timeCol < 0 {
		return nil, fmt.Errorf("%w: %s: no time/power header found", ErrMalformedLog, path)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s: no parsable data rows", ErrMalformedLog, path)
	}
	return samples, nil
}

// detectColumns returns (timeCol, powerCol) or (-1, -1) if the row does
// not look like a header.
func detectColumns(row []string) (int, int) {
	timeCol, powerCol := -1, -1
	for i, h := range row {
		l := strings.ToLower(strings.TrimSpace(h))
		if timeCol < 0 && (strings.Contains(l, "elapsed") || strings.Contains(l, "time")) {
			timeCol = i
		}
		if strings.Contains(l, "power") || strings.Contains(l, "watt") {
			switch {
			case powerCol < 0:
				powerCol = i
			case preferred(l) && !preferred(strings.ToLower(row[powerCol])):
				powerCol = i
			}
		}
	}
	if timeCol < 0 || powerCol < 0 {
		return -1, -1
	}
	return timeCol, powerCol
}

func preferred(header string) bool {
	for _, tok := range []string{"package", "processor", "cpu"} {
		if strings.Contains(header, tok) {
			return true
		}
	}
	return false
}

// parseTimestamp accepts RFC3339(.nano), unix seconds (integer or
// fractional), or vendor clock-of-day forms HH:MM:SS:mmm and
// HH:MM:SS.mmm resolved on ref's date.
func parseTimestamp(s string, ref time.Time) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(sec)
		frac := sec - float64(whole)
		return time.Unix(whole, int64(frac*1e9)), true
	}

	clock := s
	// Intel Power Gadget writes HH:MM:SS:mmm; rewrite the last colon
	// into a decimal point.
	if strings.Count(clock, ":") == 3 {
		i := strings.LastIndex(clock, ":")
		clock = clock[:i] + "." + clock[i+1:]
	}
	for _, layout := range []string{"15:04:05.000", "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			y, m, d := ref.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), ref.Location()), true
		}
	}
	return time.Time{}, false
}

// Window restricts samples to [from, to], preserving order.
func Window(samples []Sample, from, to time.Time) []Sample {
	var out []Sample
	for _, s := range samples {
		if s.At.Before(from) || s.At.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Mean is the arithmetic mean power of the samples.
func Mean(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Watts
	}
	return sum / float64(len(samples))
}
