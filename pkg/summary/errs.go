package summary

import "errors"

var (
	// ErrWriteConflict indicates the target summary file already exists
	// and overwrite was not requested.
	ErrWriteConflict = errors.New("summary: file exists")

	// ErrMalformedSummary indicates a summary file that cannot be read
	// back (missing columns, no data rows, unparsable fields).
	ErrMalformedSummary = errors.New("summary: malformed file")
)
