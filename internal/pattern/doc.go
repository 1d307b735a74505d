// Package pattern parses rewrite patterns and finds their matches in an
// e-graph.
//
// A pattern is a term whose leaves may be variables. A variable is an atom
// starting with "?" followed by at least one character. Repeated variables
// must bind the same e-class. The matcher walks every node of every class,
// so one pattern can match many distinct substitutions in a single class.
//
// Search never mutates the graph and expects it to be clean (rebuilt).
package pattern
