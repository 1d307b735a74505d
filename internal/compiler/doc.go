// Package compiler turns declarative rule-set files into rewrite rule sets.
//
// Two source formats share one Document model:
//
//   - CUE: a package directory or single file with a rule struct keyed by
//     rule name, plus optional costs, default_cost and limits.
//   - YAML: the same fields with rules as a list; unknown keys are errors.
//
// Document.Compile validates everything first (see Validate) and only then
// builds directed rules. Declarative when-conditions become guards shared by
// every direction of a symmetric rule. AnalyzeGrowth flags rule cycles that
// keep adding operators.
package compiler
