// Package harness runs simplification scenarios as executable tests.
//
// A scenario names an input expression, the rules to saturate it with, and
// what the run must produce. The harness compiles the rules, runs the
// engine, persists the run to an in-memory run log and checks the result.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: cancel_identities
//	description: "Additive and multiplicative identities vanish"
//	input: "(+ 0 (* 1 (+ y 0)))"
//	rules_file: rules/arith.cue
//	rules:
//	  - name: add-zero
//	    searcher: "(+ ?a 0)"
//	    applier: "?a"
//	cost_model: ast-size
//	limits: { iterations: 10 }
//	expect:
//	  expr: "y"
//	  cost: 1
//	  stop_reason: saturated
//	assertions:
//	  - type: equivalent
//	    terms: ["(+ y 0)", "y"]
//	properties: [monotone, idempotent]
//
// # Expectations
//
// expect checks the extracted expression (expr), its exact cost (cost) or an
// upper bound (max_cost), terms that must share the input's class
// (equivalent), and the stop reason. expect.error instead names a failure
// kind: parse, arity, rule, unknown_cost_model or match_limit.
//
// # Assertion Types
//
//   - equivalent: all terms are in the graph and share one class
//   - not_equivalent: the terms do not all share one class
//   - iteration_count: exactly count passes ran
//   - diagnostic_count: exactly count diagnostics (optionally for rule)
//   - truncated: rule's search hit the match cap in some pass
//
// # Deterministic Testing
//
// Every run uses a manual clock (testutil.ManualClock, optionally stepping
// by clock_step) and a fixed run id (testutil.FixedRunIDGenerator), so the
// same scenario always produces the same snapshot. Golden files live in
// testdata/golden and are refreshed with -update.
package harness
