package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// CachedSource loads the whole dataset into memory on first use and serves
// every later search from that copy. It trades startup latency and memory for
// per-request latency.
type CachedSource struct {
	opener Opener
	cfg    ScannerConfig
	logger *slog.Logger
	now    func() time.Time

	loaded atomic.Bool

	mu       sync.Mutex
	rows     []Row
	inflight *loadCall
}

// loadCall is one in-progress fetch shared by every caller waiting on it.
type loadCall struct {
	done chan struct{}
	err  error
}

// NewCachedSource creates a CachedSource. Nothing is fetched until Load or
// Search is called.
func NewCachedSource(opener Opener, cfg ScannerConfig, logger *slog.Logger) *CachedSource {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Columns == (Columns{}) {
		cfg.Columns = DefaultColumns
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{opener: opener, cfg: cfg, logger: logger, now: time.Now}
}

// Load fetches the dataset once. Concurrent callers share one fetch, and each
// stops waiting when its own ctx ends. The fetch itself is detached from the
// caller that started it. A failed load is not remembered so a later call can
// try again.
func (c *CachedSource) Load(ctx context.Context) error {
	call := c.begin(ctx)
	if call == nil {
		return nil
	}
	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loaded reports whether the dataset is in memory. It never waits on a load.
func (c *CachedSource) Loaded() bool {
	return c.loaded.Load()
}

// begin returns the running load, starting one if needed, or nil once the
// dataset is in memory.
func (c *CachedSource) begin(ctx context.Context) *loadCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded.Load() {
		return nil
	}
	if c.inflight == nil {
		c.inflight = &loadCall{done: make(chan struct{})}
		go c.run(context.WithoutCancel(ctx), c.inflight)
	}
	return c.inflight
}

func (c *CachedSource) run(ctx context.Context, call *loadCall) {
	rows, err := c.fetch(ctx)

	c.mu.Lock()
	if err == nil {
		c.rows = rows
		c.loaded.Store(true)
	}
	c.inflight = nil
	c.mu.Unlock()

	call.err = err
	close(call.done)
}

func (c *CachedSource) fetch(ctx context.Context) ([]Row, error) {
	start := c.now()
	body, err := c.opener.Open(ctx).Unwrap()
	if err != nil {
		return nil, err
	}
	defer body.Close()

	rows, skipped, err := readAll(body, c.cfg.Columns)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	c.logger.Info("dataset loaded into memory",
		"rows", len(rows),
		"skipped", skipped,
		"elapsed", c.now().Sub(start),
	)
	return rows, nil
}

// Search filters the in-memory dataset, loading it first if needed.
// The time budget and match ceiling apply as they do for streaming scans,
// including the time spent waiting for the load.
func (c *CachedSource) Search(ctx context.Context, terms []string) ScanResult {
	start := c.now()
	result := ScanResult{Rows: []Row{}}

	pattern := CompileTerms(terms)
	if pattern == nil {
		result.Stop = StopNoTerms
		return result
	}

	budget := c.cfg.Budget
	if !c.Loaded() {
		waitCtx := ctx
		if budget.TimeLimit > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, budget.TimeLimit)
			defer cancel()
		}
		if err := c.Load(waitCtx); err != nil {
			switch {
			case errors.Is(waitCtx.Err(), context.DeadlineExceeded):
				result.Stop = StopTime
			case errors.Is(waitCtx.Err(), context.Canceled):
				result.Stop = StopCancelled
			default:
				result.Stop = StopError
				result.Err = err
			}
			result.Elapsed = c.now().Sub(start)
			return result
		}
	}

	c.mu.Lock()
	rows := c.rows
	c.mu.Unlock()

	result.Stop = StopExhausted
	for i, row := range rows {
		if i > 0 && i%c.cfg.ChunkSize == 0 {
			if budget.TimeLimit > 0 && c.now().Sub(start) >= budget.TimeLimit {
				result.Stop = StopTime
				break
			}
			if ctx.Err() != nil {
				result.Stop = StopCancelled
				break
			}
		}
		if budget.MaxRows > 0 && result.RowsScanned >= budget.MaxRows {
			result.Stop = StopRows
			break
		}
		result.RowsScanned++

		if !pattern.MatchString(row.Skill) {
			continue
		}
		result.Rows = append(result.Rows, row)
		if budget.MaxMatches > 0 && len(result.Rows) >= budget.MaxMatches {
			result.Stop = StopMatches
			break
		}
	}
	result.Elapsed = c.now().Sub(start)
	return result
}

func readAll(r io.Reader, cols Columns) ([]Row, int, error) {
	rr, err := newRowReader(r, cols)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []Row{}, 0, nil
		}
		return nil, 0, err
	}

	var rows []Row
	for {
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return rows, rr.Skipped(), nil
		}
		if err != nil {
			return nil, rr.Skipped(), err
		}
		rows = append(rows, row)
	}
}
