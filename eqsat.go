// Package eqsat simplifies symbolic expressions by equality saturation.
//
// A RuleSet of rewrite rules is applied to an e-graph holding the input
// until no rule adds a new equivalence or a resource limit is hit; the
// cheapest equivalent expression under a cost model is then extracted.
//
//	comm, _ := eqsat.NewRule("comm-mul", "(* ?a ?b)", "(* ?b ?a)", true)
//	one, _ := eqsat.NewRule("mul-1", "(* ?a 1)", "?a", false)
//	rules, _ := eqsat.NewRuleSet(comm, one)
//	res, err := rules.Simplify("(* 1 x)", "ast-size")
//	// res.Cost == 1, res.Expr == "x"
//
// Expressions are s-expressions; a pattern variable starts with "?".
// Rule sets are immutable once built and may be shared by concurrent calls.
package eqsat

import (
	"log/slog"
	"time"

	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/rewrite"
)

// Term is an expression in nested form: an operator and its children.
type Term = ir.Term

// Bindings is the immutable view of a match handed to guard predicates,
// one term per searcher variable, named without the "?" sigil.
type Bindings = rewrite.Bindings

// Predicate is a guard over a match.
type Predicate = rewrite.Predicate

// PredicateFunc adapts a function to Predicate.
type PredicateFunc = rewrite.PredicateFunc

// Cost is a cost-model value. Lower is better.
type Cost = extract.Cost

// CostModel scores an operator given its children's costs.
type CostModel = extract.CostModel

// Report describes a finished saturation run.
type Report = engine.Report

// StopReason explains why a run ended.
type StopReason = engine.StopReason

// Stop reasons.
const (
	StopSaturated      = engine.StopSaturated
	StopIterationLimit = engine.StopIterationLimit
	StopNodeLimit      = engine.StopNodeLimit
	StopTimeLimit      = engine.StopTimeLimit
)

// Built-in cost model names.
const (
	AstSize  = extract.AstSizeName
	AstDepth = extract.AstDepthName
)

// ParseTerm parses a textual s-expression.
func ParseTerm(s string) (Term, error) {
	return ir.ParseTerm(s)
}

// CustomCostModel builds a cost model from a function.
func CustomCostModel(name string, fn func(op string, children []Cost) Cost) CostModel {
	return extract.Custom(name, fn)
}

// LookupCostModel resolves a built-in cost model name.
func LookupCostModel(name string) (CostModel, error) {
	return extract.Lookup(name)
}

// Option configures a simplify call.
type Option = engine.RunnerOption

// WithIterationLimit caps the number of passes. Default: 30.
func WithIterationLimit(n int) Option { return engine.WithIterationLimit(n) }

// WithNodeLimit stops once the graph holds more than n nodes. Default: 10000.
func WithNodeLimit(n int) Option { return engine.WithNodeLimit(n) }

// WithTimeLimit stops once d has elapsed. Default: 5s.
func WithTimeLimit(d time.Duration) Option { return engine.WithTimeLimit(d) }

// WithMatchLimit caps substitutions per rule per pass. Default: 1000.
func WithMatchLimit(n int) Option { return engine.WithMatchLimit(n) }

// WithStrictMatchLimit fails the call when a search is truncated.
func WithStrictMatchLimit() Option { return engine.WithStrictMatchLimit() }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return engine.WithLogger(l) }

// WithObserver receives per-pass and per-run notifications.
func WithObserver(o engine.Observer) Option { return engine.WithObserver(o) }
