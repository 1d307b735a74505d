package engine

import (
	"fmt"
	"time"
)

// Default resource limits.
const (
	DefaultIterationLimit = 30
	DefaultNodeLimit      = 10000
	DefaultTimeLimit      = 5 * time.Second
	DefaultMatchLimit     = 1000
)

// StopReason explains why a run ended. Every reason other than
// StopSaturated is a soft stop: the graph is still valid for extraction.
type StopReason string

const (
	StopSaturated      StopReason = "saturated"
	StopIterationLimit StopReason = "iteration_limit"
	StopNodeLimit      StopReason = "node_limit"
	StopTimeLimit      StopReason = "time_limit"
)

// Limits bounds one saturation run.
type Limits struct {
	Iterations int           // maximum passes
	Nodes      int           // maximum e-nodes
	Time       time.Duration // maximum wall time
	Matches    int           // maximum substitutions per rule per pass; 0 = unbounded
	Strict     bool          // treat a truncated search as fatal
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() Limits {
	return Limits{
		Iterations: DefaultIterationLimit,
		Nodes:      DefaultNodeLimit,
		Time:       DefaultTimeLimit,
		Matches:    DefaultMatchLimit,
	}
}

// String prints the limits for logs.
func (l Limits) String() string {
	return fmt.Sprintf("iter=%d nodes=%d time=%s matches=%d strict=%t",
		l.Iterations, l.Nodes, l.Time, l.Matches, l.Strict)
}

// check returns the stop reason after a pass, in priority order:
// saturated, iteration limit, node limit, time limit. A pass whose search
// was truncated is never saturated, since unseen matches may remain.
// ok is false when the run should continue.
func (l Limits) check(unions, truncated, passes, nodes int, elapsed time.Duration) (StopReason, bool) {
	switch {
	case unions == 0 && truncated == 0:
		return StopSaturated, true
	case passes >= l.Iterations:
		return StopIterationLimit, true
	case nodes > l.Nodes:
		return StopNodeLimit, true
	case elapsed > l.Time:
		return StopTimeLimit, true
	}
	return "", false
}

// matchBudget tracks the effective per-rule match limit within one run.
// A rule whose search is truncated gets twice the limit on its next pass,
// so a truncated rule cannot keep re-finding the same prefix of matches.
type matchBudget struct {
	base   int
	byRule map[string]int
}

func newMatchBudget(base int) *matchBudget {
	return &matchBudget{base: base, byRule: make(map[string]int)}
}

// limit returns the current cap for rule; 0 means unbounded.
func (b *matchBudget) limit(rule string) int {
	if n, ok := b.byRule[rule]; ok {
		return n
	}
	return b.base
}

func (b *matchBudget) grow(rule string) {
	if n := b.limit(rule); n > 0 {
		b.byRule[rule] = n * 2
	}
}
