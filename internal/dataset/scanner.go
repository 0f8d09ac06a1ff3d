package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// DefaultChunkSize is how many rows are read between budget checks.
const DefaultChunkSize = 5000

// readGrace is how long a blocked network read may outlive the time budget
// before the request context aborts it.
const readGrace = 2 * time.Second

// ScannerConfig configures a streaming Scanner.
type ScannerConfig struct {
	Budget    Budget
	ChunkSize int
	Columns   Columns
}

// Scanner streams the dataset once per search and keeps only the current
// chunk and the matches in memory.
type Scanner struct {
	opener Opener
	cfg    ScannerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewScanner creates a streaming Scanner.
func NewScanner(opener Opener, cfg ScannerConfig, logger *slog.Logger) *Scanner {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Columns == (Columns{}) {
		cfg.Columns = DefaultColumns
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{opener: opener, cfg: cfg, logger: logger, now: time.Now}
}

// Search scans the dataset for rows whose skill label matches any term.
func (s *Scanner) Search(ctx context.Context, terms []string) ScanResult {
	start := s.now()
	result := ScanResult{Rows: []Row{}}

	pattern := CompileTerms(terms)
	if pattern == nil {
		result.Stop = StopNoTerms
		return result
	}

	if s.cfg.Budget.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Budget.TimeLimit+readGrace)
		defer cancel()
	}

	opened := s.opener.Open(ctx)
	body, err := opened.Unwrap()
	if err != nil {
		result.Stop = StopError
		result.Err = err
		result.Elapsed = s.now().Sub(start)
		return result
	}
	defer body.Close()

	s.scan(ctx, body, pattern, start, &result)
	result.Elapsed = s.now().Sub(start)

	s.logger.Debug("dataset scan finished",
		"terms", terms,
		"matches", len(result.Rows),
		"rows_scanned", result.RowsScanned,
		"skipped", result.Skipped,
		"stop", result.Stop,
		"elapsed", result.Elapsed,
	)
	return result
}

// scan reads chunk by chunk and evaluates the budget after every chunk.
func (s *Scanner) scan(ctx context.Context, r io.Reader, pattern *regexp.Regexp, start time.Time, result *ScanResult) {
	rr, err := newRowReader(r, s.cfg.Columns)
	if err != nil {
		if errors.Is(err, io.EOF) {
			result.Stop = StopExhausted
			return
		}
		result.Stop = s.failureStop(ctx)
		result.Err = err
		return
	}

	budget := s.cfg.Budget
	chunk := make([]Row, 0, s.cfg.ChunkSize)

	for {
		size := s.cfg.ChunkSize
		if budget.MaxRows > 0 && budget.MaxRows-result.RowsScanned < size {
			size = budget.MaxRows - result.RowsScanned
		}

		chunk = chunk[:0]
		var readErr error
		for len(chunk) < size {
			row, err := rr.Next()
			if err != nil {
				readErr = err
				break
			}
			chunk = append(chunk, row)
		}
		result.RowsScanned += len(chunk)
		result.Skipped = rr.Skipped()

		for _, row := range chunk {
			if !pattern.MatchString(row.Skill) {
				continue
			}
			result.Rows = append(result.Rows, row)
			if budget.MaxMatches > 0 && len(result.Rows) >= budget.MaxMatches {
				result.Stop = StopMatches
				return
			}
		}

		switch {
		case errors.Is(readErr, io.EOF):
			result.Stop = StopExhausted
			return
		case readErr != nil:
			result.Stop = s.failureStop(ctx)
			if result.Stop == StopError {
				result.Err = readErr
			}
			return
		}

		switch {
		case budget.TimeLimit > 0 && s.now().Sub(start) >= budget.TimeLimit:
			result.Stop = StopTime
			return
		case budget.MaxRows > 0 && result.RowsScanned >= budget.MaxRows:
			result.Stop = StopRows
			return
		case ctx.Err() != nil:
			result.Stop = StopCancelled
			return
		}
	}
}

// failureStop classifies a read failure: an expired scan deadline is a
// budget stop, not an error.
func (s *Scanner) failureStop(ctx context.Context) StopReason {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return StopTime
	case errors.Is(ctx.Err(), context.Canceled):
		return StopCancelled
	default:
		return StopError
	}
}

// CompileTerms builds one case-insensitive alternation from the terms.
// Terms are literal text; nil is returned when no usable term remains.
func CompileTerms(terms []string) *regexp.Regexp {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(t))
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
}
