// Package ir provides the interchange representation for eqsat.
//
// Expressions cross the engine boundary in one of two forms:
//   - Textual s-expressions, e.g. "(+ 1 (* x 2))"
//   - Nested terms: an operator string plus an ordered list of child terms
//
// Both forms parse to the same Term value. RecExpr is the flat, acyclic,
// rooted buffer produced by extraction; it is never mutated once returned.
//
// This package imports nothing internal. All other internal packages import
// ir; ir is the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Operator symbols are NFC-normalized and interned (see Intern)
//   - Leaves are terms with no children; "(f)" and "f" are the same term
//   - Content hashes use canonical JSON with domain separation (hash.go)
package ir
