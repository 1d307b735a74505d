package ir

import "fmt"

// RecNode is one entry of a RecExpr. Children index earlier entries.
type RecNode struct {
	Op       string
	Children []int
}

// RecExpr is a flat, rooted, acyclic expression buffer.
//
// INVARIANTS:
//   - Every child index is strictly less than the index of its parent
//   - The root is the last node
//
// Entries may be shared by several parents, so a RecExpr is a DAG view of
// a tree. Used only for input/output marshalling.
type RecExpr struct {
	nodes []RecNode
}

// Add appends a node and returns its index.
// Panics if a child index does not refer to an existing node.
func (r *RecExpr) Add(n RecNode) int {
	for _, c := range n.Children {
		if c < 0 || c >= len(r.nodes) {
			panic(fmt.Sprintf("RecExpr.Add: child index %d out of range [0,%d)", c, len(r.nodes)))
		}
	}
	children := make([]int, len(n.Children))
	copy(children, n.Children)
	r.nodes = append(r.nodes, RecNode{Op: n.Op, Children: children})
	return len(r.nodes) - 1
}

// Len returns the number of entries.
func (r *RecExpr) Len() int {
	return len(r.nodes)
}

// Node returns the entry at index i.
func (r *RecExpr) Node(i int) RecNode {
	return r.nodes[i]
}

// Root returns the index of the root entry, or -1 if empty.
func (r *RecExpr) Root() int {
	return len(r.nodes) - 1
}

// Term expands the buffer into a nested Term rooted at the last entry.
func (r *RecExpr) Term() Term {
	if len(r.nodes) == 0 {
		return Term{}
	}
	return r.termAt(r.Root())
}

func (r *RecExpr) termAt(i int) Term {
	n := r.nodes[i]
	t := Term{Op: n.Op}
	if len(n.Children) > 0 {
		t.Children = make([]Term, len(n.Children))
		for j, c := range n.Children {
			t.Children[j] = r.termAt(c)
		}
	}
	return t
}

// String prints the expression rooted at the last entry.
func (r *RecExpr) String() string {
	return r.Term().String()
}

// FromTerm flattens a term into a RecExpr in post-order.
// Structurally identical subterms are stored once.
func FromTerm(t Term) *RecExpr {
	r := &RecExpr{}
	seen := make(map[string]int)
	r.addTerm(t, seen)
	return r
}

func (r *RecExpr) addTerm(t Term, seen map[string]int) int {
	key := t.String()
	if i, ok := seen[key]; ok {
		return i
	}
	children := make([]int, len(t.Children))
	for i, c := range t.Children {
		children[i] = r.addTerm(c, seen)
	}
	i := r.Add(RecNode{Op: t.Op, Children: children})
	seen[key] = i
	return i
}
