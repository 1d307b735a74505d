// Package extract picks the cheapest term represented by an e-class.
//
// Costs are computed by relaxation: every class starts at infinity and each
// pass recomputes, for every class, the minimum over its nodes of the cost
// model applied to the node's operator and its children's current costs.
// Passes repeat until nothing decreases or the iteration cap is reached.
// Cycles through equivalences are harmless because a node is only priced
// once all of its children have a finite cost.
//
// Ties are broken by node order within the class: the first node reaching
// the minimum wins.
package extract
