package dataset

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Storage is the subset of a fiber storage backend the search cache needs.
// Get returns nil, nil on a miss.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
}

// Observer is notified after every search.
type Observer interface {
	ObserveSearch(o Outcome)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Cache    Storage
	CacheTTL time.Duration
	Observer Observer
	Logger   *slog.Logger
}

// Service answers topic searches: it resolves terms, consults the result
// cache and scans the source. It never fails; every problem degrades to an
// empty result.
type Service struct {
	resolver *Resolver
	source   Source
	cache    Storage
	cacheTTL time.Duration
	observer Observer
	logger   *slog.Logger
}

// NewService creates a search Service.
func NewService(resolver *Resolver, source Source, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: resolver,
		source:   source,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		observer: cfg.Observer,
		logger:   logger,
	}
}

// Search finds dataset rows for a topic.
func (s *Service) Search(ctx context.Context, topic string) Outcome {
	out := Outcome{Topic: topic}
	out.Terms = s.resolver.Resolve(ctx, topic)

	if len(out.Terms.Values) == 0 {
		out.Scan = ScanResult{Rows: []Row{}, Stop: StopNoTerms}
		s.notify(out)
		return out
	}

	key := cacheKey(out.Terms.Values)
	if entry, ok := s.cached(key); ok {
		out.Scan = ScanResult{
			Rows:        entry.Rows,
			RowsScanned: entry.RowsScanned,
			Skipped:     entry.Skipped,
			Stop:        entry.Stop,
		}
		out.Cached = true
		s.notify(out)
		return out
	}

	out.Scan = s.source.Search(ctx, out.Terms.Values)
	if out.Scan.Rows == nil {
		out.Scan.Rows = []Row{}
	}

	if out.Scan.Err != nil {
		s.logger.Warn("dataset scan failed, continuing without personalization",
			"topic", topic,
			"terms", out.Terms.Values,
			"stop", out.Scan.Stop,
			"error", out.Scan.Err,
		)
	} else {
		s.logger.Info("dataset scan complete",
			"topic", topic,
			"strategy", out.Terms.Strategy,
			"matches", len(out.Scan.Rows),
			"rows_scanned", out.Scan.RowsScanned,
			"stop", out.Scan.Stop,
			"elapsed", out.Scan.Elapsed,
		)
		s.store(key, out.Scan)
	}

	s.notify(out)
	return out
}

func (s *Service) notify(o Outcome) {
	if s.observer != nil {
		s.observer.ObserveSearch(o)
	}
}

// cacheEntry is a stored scan. The stop reason travels with the rows so a
// partial scan served from cache is still reported as partial.
type cacheEntry struct {
	Rows        []Row      `json:"rows"`
	RowsScanned int        `json:"rows_scanned"`
	Skipped     int        `json:"skipped"`
	Stop        StopReason `json:"stop"`
}

func (s *Service) cached(key string) (cacheEntry, bool) {
	if s.cache == nil {
		return cacheEntry{}, false
	}
	data, err := s.cache.Get(key)
	if err != nil {
		s.logger.Warn("scan cache read failed", "key", key, "error", err)
		return cacheEntry{}, false
	}
	if len(data) == 0 {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Stop == "" || len(entry.Rows) == 0 {
		// A corrupt or outdated entry is a miss and is overwritten by the next scan.
		return cacheEntry{}, false
	}
	return entry, true
}

func (s *Service) store(key string, scan ScanResult) {
	if s.cache == nil || len(scan.Rows) == 0 {
		return
	}
	data, err := json.Marshal(cacheEntry{
		Rows:        scan.Rows,
		RowsScanned: scan.RowsScanned,
		Skipped:     scan.Skipped,
		Stop:        scan.Stop,
	})
	if err != nil {
		return
	}
	if err := s.cache.Set(key, data, s.cacheTTL); err != nil {
		s.logger.Warn("scan cache write failed", "key", key, "error", err)
	}
}

func cacheKey(terms []string) string {
	return "scan:" + strings.ToLower(strings.Join(terms, "|"))
}
