// Package dataset searches the remote skills dataset for rows related to a
// learning topic. Scans are bounded by time, rows read and matches found, and
// every failure degrades to an empty result instead of an error.
package dataset

import (
	"context"
	"time"
)

// Row is one attempt record from the skills dataset.
type Row struct {
	Skill     string `json:"skills"`
	ProblemID string `json:"problem_id"`
	Correct   string `json:"correct"`
}

// Columns names the CSV header fields a Row is read from.
type Columns struct {
	Skill   string
	Problem string
	Correct string
}

// DefaultColumns matches the header of the public skill builder export.
var DefaultColumns = Columns{
	Skill:   "skills",
	Problem: "problem_id",
	Correct: "correct",
}

// Budget bounds the work done by a single scan. Zero values disable a limit.
type Budget struct {
	TimeLimit  time.Duration
	MaxRows    int
	MaxMatches int
}

// DefaultBudget mirrors the limits the web form has always used.
var DefaultBudget = Budget{
	TimeLimit:  8 * time.Second,
	MaxRows:    0,
	MaxMatches: 50,
}

// StopReason records why a scan ended.
type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopTime      StopReason = "time"
	StopRows      StopReason = "rows"
	StopMatches   StopReason = "matches"
	StopCancelled StopReason = "cancelled"
	StopNoTerms   StopReason = "no_terms"
	StopError     StopReason = "error"
)

// ScanResult is the outcome of one scan. Rows is never nil on return from
// a Source so callers can range over it without checks.
type ScanResult struct {
	Rows        []Row
	RowsScanned int
	Skipped     int
	Stop        StopReason
	Elapsed     time.Duration
	Err         error
}

// Source finds rows whose skill label matches any of the given terms.
type Source interface {
	Search(ctx context.Context, terms []string) ScanResult
}

// Strategy says how search terms were derived from a topic.
type Strategy string

const (
	StrategyMapped       Strategy = "mapped"
	StrategyTranslated   Strategy = "translated"
	StrategyUntranslated Strategy = "untranslated"
	StrategyEmpty        Strategy = "empty"
)

// Terms is the ordered search term set for a topic.
type Terms struct {
	Values   []string
	Strategy Strategy
	Key      string // topic map entry, set only for StrategyMapped
}

// Outcome is everything a topic search produced.
type Outcome struct {
	Topic  string
	Terms  Terms
	Scan   ScanResult
	Cached bool
}

// Rows returns the matched rows.
func (o Outcome) Rows() []Row {
	return o.Scan.Rows
}
