package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/rewrite"
)

// Observer is notified as a run progresses. Calls are made synchronously
// from the run's goroutine.
type Observer interface {
	IterationDone(runID string, it Iteration)
	RunDone(report *Report)
}

// Iteration summarizes one scheduler pass.
type Iteration struct {
	Index       int // 1-based
	Matches     int // substitutions found by search
	Applied     int // matches that passed their guards and were applied
	Unions      int // merges from applications and rebuild
	Rejected    int // matches whose guard returned false
	GuardErrors int // matches whose guard failed
	Repeats     int // matches skipped as already fired this pass
	Truncated   []string
	Nodes       int
	Classes     int
	Elapsed     time.Duration
}

// Diagnostic is a non-fatal problem raised during a run.
type Diagnostic struct {
	Iteration int
	Code      RuntimeErrorCode
	Rule      string
	Class     egraph.ClassID
	Message   string
}

// Report describes a finished run.
type Report struct {
	RunID       string
	StopReason  StopReason
	Iterations  []Iteration
	Nodes       int
	Classes     int
	Diagnostics []Diagnostic
	Elapsed     time.Duration
}

// Unions returns the total number of merges across all passes.
func (r *Report) Unions() int {
	n := 0
	for _, it := range r.Iterations {
		n += it.Unions
	}
	return n
}

// Runner saturates e-graphs under a rule set.
//
// A Runner holds only configuration and may be reused for many runs, but
// a single Run call must not share its graph with any other goroutine.
type Runner struct {
	limits       Limits
	extractLimit int
	clock        Clock
	ids          RunIDGenerator
	observers    []Observer
	logger       *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithIterationLimit caps the number of passes. Default: 30.
func WithIterationLimit(n int) RunnerOption {
	return func(r *Runner) {
		r.limits.Iterations = n
	}
}

// WithNodeLimit stops the run once the graph holds more than n nodes.
// Default: 10000.
func WithNodeLimit(n int) RunnerOption {
	return func(r *Runner) {
		r.limits.Nodes = n
	}
}

// WithTimeLimit stops the run once d has elapsed. Default: 5s.
func WithTimeLimit(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.limits.Time = d
	}
}

// WithMatchLimit caps substitutions per rule per pass. Zero disables the
// cap. Default: 1000.
func WithMatchLimit(n int) RunnerOption {
	return func(r *Runner) {
		r.limits.Matches = n
	}
}

// WithStrictMatchLimit makes a truncated search fail the run with
// MATCH_LIMIT instead of continuing with the truncated matches.
func WithStrictMatchLimit() RunnerOption {
	return func(r *Runner) {
		r.limits.Strict = true
	}
}

// WithLimits replaces all limits at once.
func WithLimits(l Limits) RunnerOption {
	return func(r *Runner) {
		r.limits = l
	}
}

// WithClock sets the clock used for the time limit. Default: SystemClock.
func WithClock(c Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) RunnerOption {
	return func(r *Runner) {
		r.ids = g
	}
}

// WithObserver adds an observer. Observers are called in the order added.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithExtractIterationLimit caps extraction relaxation passes used by
// Simplify. Zero keeps the extractor's default.
func WithExtractIterationLimit(n int) RunnerOption {
	return func(r *Runner) {
		r.extractLimit = n
	}
}

// NewRunner creates a Runner with default limits and the given options.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		limits: DefaultLimits(),
		clock:  SystemClock{},
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Limits returns the runner's limits.
func (r *Runner) Limits() Limits {
	return r.limits
}

// Run saturates g with rules until a stop condition holds.
//
// Limit stops return a report and a nil error. An error is returned only
// when an application fails (for example an arity conflict introduced by
// an applier) or when a search is truncated under WithStrictMatchLimit; the
// graph may then hold a partially applied pass.
func (r *Runner) Run(g *egraph.EGraph, rules *rewrite.RuleSet) (*Report, error) {
	runID := r.ids.Generate()
	start := r.clock.Now()
	log := r.logger.With("run_id", runID)

	g.Rebuild()
	report := &Report{RunID: runID}
	log.Info("saturation starting",
		"rules", rules.Len(),
		"nodes", g.NumNodes(),
		"classes", g.NumClasses(),
		"limits", r.limits.String(),
	)

	if r.limits.Iterations <= 0 {
		return r.finish(g, report, StopIterationLimit, start, log), nil
	}

	ruleList := rules.Rules()
	fired := NewFiringSet()
	budget := newMatchBudget(r.limits.Matches)
	for pass := 1; ; pass++ {
		it, err := r.step(g, ruleList, fired, budget, pass, runID, report, log)
		if err != nil {
			log.Error("saturation failed", "iteration", pass, "error", err)
			return nil, err
		}

		elapsed := r.clock.Now().Sub(start)
		report.Iterations = append(report.Iterations, it)
		for _, o := range r.observers {
			o.IterationDone(runID, it)
		}

		if reason, stop := r.limits.check(it.Unions, len(it.Truncated), pass, g.NumNodes(), elapsed); stop {
			return r.finish(g, report, reason, start, log), nil
		}
	}
}

// step runs one search/apply/rebuild pass.
func (r *Runner) step(g *egraph.EGraph, rules []*rewrite.Rule, fired *FiringSet, budget *matchBudget, pass int, runID string, report *Report, log *slog.Logger) (Iteration, error) {
	passStart := r.clock.Now()
	unionsBefore := g.Unions()
	it := Iteration{Index: pass}

	found := searchAll(g, rules, budget.limit)
	for _, rm := range found {
		it.Matches += rm.total
		if !rm.truncated {
			continue
		}
		if r.limits.Strict {
			return it, NewMatchLimitError(runID, rm.rule.Name(), r.limits.Matches)
		}
		it.Truncated = append(it.Truncated, rm.rule.Name())
		log.Warn("match limit reached",
			"rule", rm.rule.Name(),
			"iteration", pass,
			"limit", budget.limit(rm.rule.Name()),
		)
		budget.grow(rm.rule.Name())
	}

	fired.Begin(pass)
	for _, rm := range found {
		for _, m := range rm.matches {
			for _, s := range m.Substs {
				key := matchKey(g, m.Class, s)
				if fired.WouldRepeat(rm.rule.Name(), key) {
					it.Repeats++
					continue
				}
				fired.Record(rm.rule.Name(), key)

				ok, err := rm.rule.Check(g, m.Class, s)
				if err != nil {
					it.GuardErrors++
					d := Diagnostic{
						Iteration: pass,
						Code:      ErrCodeGuardFailed,
						Rule:      rm.rule.Name(),
						Class:     g.Find(m.Class),
						Message:   err.Error(),
					}
					report.Diagnostics = append(report.Diagnostics, d)
					log.Warn("guard evaluation failed",
						"rule", d.Rule,
						"class", d.Class,
						"iteration", pass,
						"error", err,
						"event", "guard_error",
					)
					continue
				}
				if !ok {
					it.Rejected++
					continue
				}

				if _, _, err := rm.rule.ApplyOne(g, m.Class, s); err != nil {
					code := ErrCodeApplyFailed
					if egraph.IsArityError(err) {
						code = ErrCodeArityMismatch
					}
					return it, newApplyError(runID, rm.rule.Name(), code, err)
				}
				it.Applied++
			}
		}
	}

	g.Rebuild()

	it.Unions = g.Unions() - unionsBefore
	it.Nodes = g.NumNodes()
	it.Classes = g.NumClasses()
	it.Elapsed = r.clock.Now().Sub(passStart)

	log.Debug("iteration complete",
		"iteration", pass,
		"matches", it.Matches,
		"applied", it.Applied,
		"unions", it.Unions,
		"nodes", it.Nodes,
		"classes", it.Classes,
	)
	return it, nil
}

func (r *Runner) finish(g *egraph.EGraph, report *Report, reason StopReason, start time.Time, log *slog.Logger) *Report {
	report.StopReason = reason
	report.Nodes = g.NumNodes()
	report.Classes = g.NumClasses()
	report.Elapsed = r.clock.Now().Sub(start)

	log.Info("saturation stopped",
		"stop_reason", string(reason),
		"iterations", len(report.Iterations),
		"nodes", report.Nodes,
		"classes", report.Classes,
		"diagnostics", len(report.Diagnostics),
	)
	for _, o := range r.observers {
		o.RunDone(report)
	}
	return report
}

// IsSoftStop reports whether reason leaves a usable graph after hitting a
// limit, as opposed to reaching a fixpoint.
func IsSoftStop(reason StopReason) bool {
	switch reason {
	case StopIterationLimit, StopNodeLimit, StopTimeLimit:
		return true
	}
	return false
}

// ParseStopReason validates a stop reason string.
func ParseStopReason(s string) (StopReason, error) {
	switch r := StopReason(s); r {
	case StopSaturated, StopIterationLimit, StopNodeLimit, StopTimeLimit:
		return r, nil
	}
	return "", fmt.Errorf("unknown stop reason %q", s)
}
