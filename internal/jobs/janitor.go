package jobs

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

// HistoryPruner drops plan records and topic lookup counters older than a
// cutoff.
type HistoryPruner interface {
	DeletePlansBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteTopicLookupsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor removes generated documents older than a TTL from the output
// directory, and the matching history rows when a pruner is set.
type Janitor struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
	history  HistoryPruner
	now      func() time.Time
}

// NewJanitor creates a new output janitor. history may be nil.
func NewJanitor(dir string, ttl, interval time.Duration, history HistoryPruner) *Janitor {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Janitor{
		dir:      dir,
		ttl:      ttl,
		interval: interval,
		history:  history,
		now:      time.Now,
	}
}

// Serve runs the sweep loop until ctx is cancelled. It implements
// suture.Service.
func (j *Janitor) Serve(ctx context.Context) error {
	log.Printf("Output janitor started (dir: %s, ttl: %v, interval: %v)", j.dir, j.ttl, j.interval)

	// Run immediately on start
	j.Sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Output janitor stopped")
			return ctx.Err()
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep deletes expired files once and returns how many were removed.
func (j *Janitor) Sweep(ctx context.Context) int {
	if j.ttl <= 0 {
		return 0
	}
	cutoff := j.now().Add(-j.ttl)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		log.Printf("Output janitor: failed to read %s: %v", j.dir, err)
		return 0
	}

	removed := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return removed
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, e.Name())); err != nil {
			log.Printf("Output janitor: failed to remove %s: %v", e.Name(), err)
			continue
		}
		removed++
	}

	if j.history != nil {
		j.prune(ctx, cutoff)
	}

	if removed > 0 {
		log.Printf("Output janitor: removed %d expired files", removed)
	}
	return removed
}

func (j *Janitor) prune(ctx context.Context, cutoff time.Time) {
	n, err := j.history.DeletePlansBefore(ctx, cutoff)
	if err != nil {
		log.Printf("Output janitor: failed to prune plan history: %v", err)
	} else if n > 0 {
		log.Printf("Output janitor: pruned %d plan records", n)
	}

	n, err = j.history.DeleteTopicLookupsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("Output janitor: failed to prune topic lookups: %v", err)
	} else if n > 0 {
		log.Printf("Output janitor: pruned %d topic lookup counters", n)
	}
}

// String names the service in supervisor logs.
func (j *Janitor) String() string {
	return "output-janitor"
}
