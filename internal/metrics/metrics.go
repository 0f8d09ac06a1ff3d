package metrics

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"studyplan/internal/dataset"
	"studyplan/internal/models"
)

var (
	topicLookupDesc = prometheus.NewDesc(
		"studyplan_topic_lookups_total",
		"Total topic lookup count by outcome",
		[]string{"topic", "outcome"},
		nil,
	)
)

// LookupStore persists per-topic lookup counts.
type LookupStore interface {
	IncrementTopicLookup(ctx context.Context, topic, outcome string) error
	GetAllTopicLookups(ctx context.Context) ([]models.TopicLookup, error)
}

// TopicCollector is a custom Prometheus collector that reads topic lookup
// counts from the database on each scrape.
type TopicCollector struct {
	store LookupStore
}

// Describe sends the metric descriptor to the channel.
func (c *TopicCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- topicLookupDesc
}

// Collect queries the database for all topic lookups and emits them as counters.
func (c *TopicCollector) Collect(ch chan<- prometheus.Metric) {
	lookups, err := c.store.GetAllTopicLookups(context.Background())
	if err != nil {
		slog.Error("failed to collect topic lookup metrics", "error", err)
		return
	}
	for _, l := range lookups {
		ch <- prometheus.MustNewConstMetric(
			topicLookupDesc,
			prometheus.CounterValue,
			float64(l.Count),
			l.Topic,
			l.Outcome,
		)
	}
}

// Observer turns search, completion and generation events into metrics.
type Observer struct {
	scans       *prometheus.CounterVec
	scanRows    prometheus.Histogram
	scanSeconds prometheus.Histogram
	cacheHits   prometheus.Counter
	completions *prometheus.CounterVec
	llmSeconds  *prometheus.HistogramVec
	generations *prometheus.CounterVec
	genSeconds  prometheus.Histogram
	breaker     *prometheus.GaugeVec

	store LookupStore
}

// NewObserver creates an Observer and registers its metrics with reg.
// store may be nil, in which case topic lookups are not persisted.
func NewObserver(reg prometheus.Registerer, store LookupStore) *Observer {
	o := &Observer{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyplan_dataset_scans_total",
			Help: "Dataset scans by stop reason",
		}, []string{"stop"}),
		scanRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "studyplan_dataset_scan_rows",
			Help:    "Rows read per dataset scan",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 8),
		}),
		scanSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "studyplan_dataset_scan_seconds",
			Help:    "Wall time per dataset scan",
			Buckets: []float64{0.1, 0.5, 1, 2, 4, 8, 16},
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studyplan_dataset_cache_hits_total",
			Help: "Topic searches answered from the scan cache",
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyplan_llm_completions_total",
			Help: "Language model calls by client and outcome",
		}, []string{"client", "outcome"}),
		llmSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studyplan_llm_completion_seconds",
			Help:    "Language model call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"client"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyplan_plan_generations_total",
			Help: "Plan generations by outcome",
		}, []string{"outcome"}),
		genSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "studyplan_plan_generation_seconds",
			Help:    "End to end plan generation time",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
		}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "studyplan_llm_circuit_open",
			Help: "1 when the client's circuit breaker is open",
		}, []string{"client"}),
		store: store,
	}
	reg.MustRegister(o.scans, o.scanRows, o.scanSeconds, o.cacheHits,
		o.completions, o.llmSeconds, o.generations, o.genSeconds, o.breaker)
	return o
}

// ObserveSearch records a topic search.
func (o *Observer) ObserveSearch(out dataset.Outcome) {
	if out.Cached {
		o.cacheHits.Inc()
	} else if out.Scan.Stop != dataset.StopNoTerms {
		o.scans.WithLabelValues(string(out.Scan.Stop)).Inc()
		o.scanRows.Observe(float64(out.Scan.RowsScanned))
		o.scanSeconds.Observe(out.Scan.Elapsed.Seconds())
	}
	if out.Terms.Strategy != dataset.StrategyEmpty && strings.TrimSpace(out.Topic) != "" {
		o.recordTopicLookup(LookupTopic(out), LookupOutcome(out))
	}
}

// ObserveCompletion records one language model call.
func (o *Observer) ObserveCompletion(client, outcome string, elapsed time.Duration) {
	o.completions.WithLabelValues(client, outcome).Inc()
	if elapsed > 0 {
		o.llmSeconds.WithLabelValues(client).Observe(elapsed.Seconds())
	}
}

// ObserveBreaker records a circuit breaker state change.
func (o *Observer) ObserveBreaker(client string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	o.breaker.WithLabelValues(client).Set(v)
}

// ObserveGenerate records how a plan generation ended.
func (o *Observer) ObserveGenerate(outcome string, elapsed time.Duration) {
	o.generations.WithLabelValues(outcome).Inc()
	o.genSeconds.Observe(elapsed.Seconds())
}

// recordTopicLookup asynchronously records a topic lookup outcome.
func (o *Observer) recordTopicLookup(topic, outcome string) {
	if o.store == nil {
		return
	}
	go func() {
		if err := o.store.IncrementTopicLookup(context.Background(), topic, outcome); err != nil {
			slog.Error("failed to record topic lookup", "topic", topic, "outcome", outcome, "error", err)
		}
	}()
}

// OtherTopic is the label shared by every topic outside the topic map.
const OtherTopic = "other"

// LookupTopic returns the label a search is counted under. Free-text topics
// collapse into OtherTopic so the lookup table and its series stay bounded
// by the topic map.
func LookupTopic(out dataset.Outcome) string {
	if out.Terms.Strategy == dataset.StrategyMapped && out.Terms.Key != "" {
		return out.Terms.Key
	}
	return OtherTopic
}

// LookupOutcome classifies a search for the topic lookup table.
func LookupOutcome(out dataset.Outcome) string {
	switch {
	case out.Scan.Err != nil:
		return models.OutcomeFailed
	case len(out.Scan.Rows) > 0:
		return models.OutcomeMatched
	default:
		return models.OutcomeEmpty
	}
}

var (
	observer     *Observer
	observerOnce sync.Once
)

// Init registers the custom collector and the observer metrics with the
// default registry. Must be called once at startup; store may be nil.
func Init(store LookupStore) *Observer {
	observerOnce.Do(func() {
		observer = NewObserver(prometheus.DefaultRegisterer, store)
		if store != nil {
			prometheus.MustRegister(&TopicCollector{store: store})
		}
	})
	return observer
}
