package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// rowReader decodes dataset rows from a CSV stream, skipping malformed lines.
type rowReader struct {
	cr      *csv.Reader
	skill   int
	problem int
	correct int
	skipped int
}

// newRowReader consumes the header line and resolves column positions.
// An empty stream yields io.EOF.
func newRowReader(r io.Reader, cols Columns) (*rowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	rr := &rowReader{cr: cr, skill: -1, problem: -1, correct: -1}
	if i, ok := index[cols.Skill]; ok {
		rr.skill = i
	} else {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, cols.Skill)
	}
	if i, ok := index[cols.Problem]; ok {
		rr.problem = i
	}
	if i, ok := index[cols.Correct]; ok {
		rr.correct = i
	}
	return rr, nil
}

// Next returns the next well-formed row, io.EOF at the end of input, or the
// stream error that stopped reading.
func (rr *rowReader) Next() (Row, error) {
	for {
		record, err := rr.cr.Read()
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && isRecoverable(perr.Err) {
				rr.skipped++
				continue
			}
			return Row{}, err
		}
		if rr.skill >= len(record) {
			rr.skipped++
			continue
		}
		return Row{
			Skill:     field(record, rr.skill),
			ProblemID: field(record, rr.problem),
			Correct:   field(record, rr.correct),
		}, nil
	}
}

// Skipped counts malformed lines seen so far.
func (rr *rowReader) Skipped() int {
	return rr.skipped
}

func isRecoverable(err error) bool {
	return errors.Is(err, csv.ErrQuote) ||
		errors.Is(err, csv.ErrBareQuote) ||
		errors.Is(err, csv.ErrFieldCount)
}

// field copies record[i] so the value outlives the reused record slice.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.Clone(record[i])
}
