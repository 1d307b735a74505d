// Package rewrite defines rewrite rules over e-graphs.
//
// A Rule pairs a searcher pattern with an applier pattern. Applying a rule
// to a match instantiates the applier under the match's substitution and
// unions the result with the matched class.
//
// Guarded rules carry one or more Predicates. A predicate sees only an
// immutable Bindings snapshot of concrete terms, one per searcher variable,
// never the graph itself. Predicate errors and panics turn into a false
// guard plus a GuardError diagnostic; they never abort the caller.
//
// Rules and RuleSets are immutable once built and safe to share across
// goroutines. Calls into a given predicate are serialized.
package rewrite
