// Package egraph implements the e-graph: a hashconsed store of e-nodes
// partitioned into e-classes by a union-find.
//
// ARCHITECTURE:
//
// Arena ownership:
// Classes live in a slice indexed by ClassID; nodes live inside their class.
// Nodes refer to children by ClassID, never by pointer, so cycles through
// equivalences are plain integer references.
//
// Deferred congruence repair:
// Union merges the smaller class into the larger and queues the absorbed
// class's parent nodes. Congruence is NOT restored until Rebuild drains that
// worklist, so a batch of unions touches each affected parent once.
//
// INVARIANTS (at every point where IsClean reports true):
//   - Hashcons: no two live classes contain canonically identical nodes
//   - Congruence: equal operators over pairwise-equal child classes share a class
//   - Every ClassID resolves via Find to exactly one live class
//   - Monotonic growth: nodes and classes are only added or merged, never removed
//
// An EGraph is not safe for concurrent use. Independent runs each own one.
package egraph
