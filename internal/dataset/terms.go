package dataset

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"studyplan/internal/fn"
)

// Translator turns a natural-language topic into a single technical term in
// the dataset's language.
type Translator interface {
	Translate(ctx context.Context, text string) fn.Result[string]
}

// Resolver derives search terms from a topic. It never looks at dataset rows.
type Resolver struct {
	topics     map[string][]string
	translator Translator
	logger     *slog.Logger
}

// NewResolver creates a Resolver over DefaultTopicMap extended with extra
// entries. Built-in entries win when a key appears in both. translator may be
// nil, in which case unmapped topics are searched as typed.
func NewResolver(extra map[string][]string, translator Translator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	topics := make(map[string][]string, len(DefaultTopicMap)+len(extra))
	for k, v := range extra {
		key := normalizeTopic(k)
		if key == "" || len(v) == 0 {
			continue
		}
		topics[key] = v
	}
	for k, v := range DefaultTopicMap {
		topics[k] = v
	}
	return &Resolver{topics: topics, translator: translator, logger: logger}
}

// Resolve returns the search terms for topic. A mapped topic yields its code
// list verbatim. Otherwise the topic itself is always a term, joined by its
// translation when one is available.
func (r *Resolver) Resolve(ctx context.Context, topic string) Terms {
	key := normalizeTopic(topic)
	if key == "" {
		return Terms{Values: []string{}, Strategy: StrategyEmpty}
	}

	if mapKey, codes, ok := r.match(topic); ok {
		values := make([]string, len(codes))
		copy(values, codes)
		return Terms{Values: values, Strategy: StrategyMapped, Key: mapKey}
	}

	if r.translator == nil {
		return Terms{Values: []string{key}, Strategy: StrategyUntranslated}
	}

	translated, err := r.translator.Translate(ctx, strings.TrimSpace(topic)).Unwrap()
	if err != nil {
		r.logger.Warn("topic translation failed, searching original topic only",
			"topic", topic,
			"error", err,
		)
		return Terms{Values: []string{key}, Strategy: StrategyUntranslated}
	}

	values := []string{key}
	if t := strings.ToLower(strings.TrimSpace(translated)); t != "" && t != key {
		values = append(values, t)
	}
	return Terms{Values: values, Strategy: StrategyTranslated}
}

// Lookup reports the mapped codes for topic, if any. Both plain and Turkish
// lowercasing are tried so "OLASILIK" finds "olasılık".
func (r *Resolver) Lookup(topic string) ([]string, bool) {
	_, codes, ok := r.match(topic)
	return codes, ok
}

func (r *Resolver) match(topic string) (string, []string, bool) {
	key := normalizeTopic(topic)
	if codes, ok := r.topics[key]; ok {
		return key, codes, true
	}
	key = cases.Lower(language.Turkish).String(strings.TrimSpace(topic))
	codes, ok := r.topics[key]
	return key, codes, ok
}

func normalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
