package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultHardestProblems is how many problems an Assessment lists by default.
const DefaultHardestProblems = 5

// Tier is the study guidance level derived from overall correctness.
type Tier int

const (
	TierNone Tier = iota
	TierFundamentals
	TierPractice
	TierRepetition
)

// String returns the tier's stable identifier.
func (t Tier) String() string {
	switch t {
	case TierFundamentals:
		return "needs_fundamentals"
	case TierPractice:
		return "needs_practice"
	case TierRepetition:
		return "reinforce_repetition"
	default:
		return "none"
	}
}

// MarshalText encodes the tier by its identifier.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Message returns the advice shown to the learner for the tier.
func (t Tier) Message() string {
	switch t {
	case TierFundamentals:
		return "Temel kavramları tekrar edin."
	case TierPractice:
		return "Daha fazla pratik yapın."
	case TierRepetition:
		return "Tekrar çözerek pekiştirin."
	default:
		return ""
	}
}

// TierFor maps a mean correctness to a guidance tier.
func TierFor(mean float64) Tier {
	switch {
	case mean < 0.30:
		return TierFundamentals
	case mean < 0.60:
		return TierPractice
	default:
		return TierRepetition
	}
}

// Problem is the aggregated correctness of one problem identifier.
type Problem struct {
	ID       string  `json:"problem_id"`
	Mean     float64 `json:"mean_correct"`
	Attempts int     `json:"attempts"`
}

// Assessment summarizes matched rows for plan generation.
type Assessment struct {
	Problems    []Problem `json:"problems"`
	OverallMean float64   `json:"overall_mean"`
	Tier        Tier      `json:"tier"`
	Guidance    string    `json:"guidance,omitempty"`
}

// HasData reports whether the assessment can personalize a plan.
func (a Assessment) HasData() bool {
	return len(a.Problems) > 0 && a.Tier != TierNone
}

// ProblemIDs lists the hardest problem identifiers in order.
func (a Assessment) ProblemIDs() []string {
	ids := make([]string, len(a.Problems))
	for i, p := range a.Problems {
		ids[i] = p.ID
	}
	return ids
}

// Assess groups rows by problem, averages correctness and picks the n
// hardest problems. Unparsable correctness values are ignored.
func Assess(rows []Row, n int) Assessment {
	if n <= 0 {
		n = DefaultHardestProblems
	}

	type group struct {
		id    string
		sum   float64
		count int
	}
	var groups []*group
	byID := make(map[string]*group)

	var total float64
	var valid int
	for _, row := range rows {
		v, ok := ParseCorrect(row.Correct)
		if !ok {
			continue
		}
		g, seen := byID[row.ProblemID]
		if !seen {
			g = &group{id: row.ProblemID}
			byID[row.ProblemID] = g
			groups = append(groups, g)
		}
		g.sum += v
		g.count++
		total += v
		valid++
	}

	if valid == 0 {
		return Assessment{Problems: []Problem{}}
	}

	problems := make([]Problem, len(groups))
	for i, g := range groups {
		problems[i] = Problem{ID: g.id, Mean: g.sum / float64(g.count), Attempts: g.count}
	}
	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].Mean < problems[j].Mean
	})
	if len(problems) > n {
		problems = problems[:n]
	}

	overall := total / float64(valid)
	tier := TierFor(overall)
	return Assessment{
		Problems:    problems,
		OverallMean: overall,
		Tier:        tier,
		Guidance:    tier.Message(),
	}
}

// ParseCorrect reads a correctness value. Blank, non-numeric, NaN and
// infinite values are reported as missing.
func ParseCorrect(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
