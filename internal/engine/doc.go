// Package engine implements the equality saturation scheduler.
//
// ARCHITECTURE:
//
// A Runner drives one e-graph through repeated passes. Each pass has four
// strictly sequential phases:
//
//  1. Search: every rule is matched against the current graph, in
//     declaration order, and all matches are collected. Nothing is applied.
//  2. Apply: every collected match is checked against its rule's guards and
//     applied. Matches produced by this pass's own applications are never
//     searched in the same pass, so results do not depend on rule order.
//  3. Rebuild: congruence is repaired once for the whole pass.
//  4. Stop check, first condition wins: no union this pass (saturated),
//     iteration limit, node limit, time limit.
//
// Limit stops are soft: the graph stays valid and extraction proceeds.
//
// Single-threaded: a run never spawns goroutines and guard predicates are
// called synchronously from the apply phase. Independent runs, each with
// its own graph, may execute concurrently and share one rule set.
//
// Simplify wires a runner to the extractor: build the graph from the input
// terms, saturate, then pick the cheapest term per root.
package engine
