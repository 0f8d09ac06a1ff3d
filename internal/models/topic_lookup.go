package models

import "time"

// Topic lookup outcome constants
const (
	OutcomeMatched = "matched"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)

// TopicLookup represents a per-topic search count by outcome.
type TopicLookup struct {
	Topic      string
	Outcome    string
	Count      int64
	LastSeenAt time.Time
}
