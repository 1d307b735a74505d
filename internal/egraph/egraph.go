package egraph

import (
	"fmt"
	"sort"

	"github.com/roach88/eqsat/internal/ir"
)

// Class is an e-class: a set of equivalent nodes plus back-references to
// the parent nodes that mention it.
type Class struct {
	ID      ClassID
	nodes   []Node
	parents []parent
}

// Nodes returns the class's nodes in canonical insertion order.
// The slice is owned by the graph and must not be modified.
func (c *Class) Nodes() []Node {
	return c.nodes
}

// Len returns the number of nodes in the class.
func (c *Class) Len() int {
	return len(c.nodes)
}

// HasOp reports whether any node in the class uses op.
func (c *Class) HasOp(op ir.Symbol) bool {
	for _, n := range c.nodes {
		if n.Op == op {
			return true
		}
	}
	return false
}

// EGraph is a union-find over e-classes with a hashcons of e-nodes.
type EGraph struct {
	uf      unionFind
	classes []*Class // indexed by ClassID; nil once merged away
	memo    map[string]ClassID
	arity   map[ir.Symbol]int

	pending []parent             // parents whose hashcons key may be stale
	dirty   map[ClassID]struct{} // classes whose node lists need canonicalizing

	nodeCount  int
	classCount int
	unions     int
}

// New creates an empty e-graph.
func New() *EGraph {
	return &EGraph{
		memo:  make(map[string]ClassID),
		arity: make(map[ir.Symbol]int),
		dirty: make(map[ClassID]struct{}),
	}
}

// Find returns the canonical representative of id.
// Read-only with respect to graph contents; only compresses union-find paths.
func (g *EGraph) Find(id ClassID) ClassID {
	return g.uf.find(id)
}

// Add inserts the node (op, children) and returns its class.
//
// Children are canonicalized first. If a canonically identical node already
// exists its class is returned; otherwise a new singleton class is created
// and each child class records the new node as a parent.
//
// Returns ArityError if op was previously used with a different number of
// children. On error the graph is unchanged.
func (g *EGraph) Add(op string, children []ClassID) (ClassID, error) {
	for _, c := range children {
		if int(c) >= g.uf.len() {
			return 0, &UnknownClassError{ID: c}
		}
	}
	if op == "" {
		return 0, fmt.Errorf("add: empty operator")
	}
	sym := ir.Intern(op)
	if err := g.checkArity(sym, len(children)); err != nil {
		return 0, err
	}
	return g.add(Node{Op: sym, Children: children}.canonical(g.Find)), nil
}

func (g *EGraph) checkArity(sym ir.Symbol, n int) error {
	if want, ok := g.arity[sym]; ok && want != n {
		return &ArityError{Op: string(sym), Want: want, Got: n}
	}
	return nil
}

// add inserts a node whose children are already canonical.
func (g *EGraph) add(n Node) ClassID {
	k := n.key()
	if id, ok := g.memo[k]; ok {
		return g.Find(id)
	}

	g.arity[n.Op] = len(n.Children)
	id := g.uf.makeSet()
	g.classes = append(g.classes, &Class{ID: id, nodes: []Node{n}})
	g.memo[k] = id
	g.nodeCount++
	g.classCount++

	seen := make(map[ClassID]struct{}, len(n.Children))
	for _, c := range n.Children {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		child := g.classes[c]
		child.parents = append(child.parents, parent{node: n, class: id})
	}
	return id
}

// AddTerm inserts every subterm of t bottom-up and returns the root class.
// Arity is checked for the whole term before anything is inserted, so an
// ArityError leaves the graph unchanged.
func (g *EGraph) AddTerm(t ir.Term) (ClassID, error) {
	if err := g.validateTerm(t, make(map[ir.Symbol]int)); err != nil {
		return 0, err
	}
	return g.addTerm(t), nil
}

func (g *EGraph) validateTerm(t ir.Term, local map[ir.Symbol]int) error {
	if t.Op == "" {
		return fmt.Errorf("add term: empty operator")
	}
	sym := ir.Intern(t.Op)
	n := len(t.Children)
	if err := g.checkArity(sym, n); err != nil {
		return err
	}
	if want, ok := local[sym]; ok && want != n {
		return &ArityError{Op: t.Op, Want: want, Got: n}
	}
	local[sym] = n
	for _, c := range t.Children {
		if err := g.validateTerm(c, local); err != nil {
			return err
		}
	}
	return nil
}

func (g *EGraph) addTerm(t ir.Term) ClassID {
	children := make([]ClassID, len(t.Children))
	for i, c := range t.Children {
		children[i] = g.addTerm(c)
	}
	return g.add(Node{Op: ir.Intern(t.Op), Children: children}.canonical(g.Find))
}

// AddRecExpr inserts a RecExpr and returns the class of its root.
func (g *EGraph) AddRecExpr(r *ir.RecExpr) (ClassID, error) {
	if r.Len() == 0 {
		return 0, fmt.Errorf("add: empty expression")
	}
	return g.AddTerm(r.Term())
}

// Union merges the classes of a and b and returns the surviving id and
// whether a merge happened. The smaller class is folded into the larger and
// its parents are queued for Rebuild; congruence is not repaired here.
func (g *EGraph) Union(a, b ClassID) (ClassID, bool) {
	ra, rb := g.Find(a), g.Find(b)
	if ra == rb {
		return ra, false
	}

	winner, loser := g.uf.union(ra, rb)
	cw, cl := g.classes[winner], g.classes[loser]

	g.pending = append(g.pending, cl.parents...)
	cw.nodes = append(cw.nodes, cl.nodes...)
	cw.parents = append(cw.parents, cl.parents...)
	g.classes[loser] = nil
	g.classCount--
	g.unions++
	g.dirty[winner] = struct{}{}

	return winner, true
}

// Rebuild restores the hashcons and congruence invariants and returns the
// number of unions it performed. Idempotent when the graph is clean.
func (g *EGraph) Rebuild() int {
	start := g.unions
	for len(g.pending) > 0 {
		todo := g.pending
		g.pending = nil
		for _, p := range todo {
			n := p.node.canonical(g.Find)
			k := n.key()
			if existing, ok := g.memo[k]; ok {
				g.Union(existing, p.class)
			} else {
				g.memo[k] = g.Find(p.class)
			}
			g.dirty[g.Find(p.class)] = struct{}{}
		}
	}
	g.rebuildClasses()
	return g.unions - start
}

// rebuildClasses canonicalizes and dedups the node and parent lists of every
// dirty class, preserving first-occurrence order.
func (g *EGraph) rebuildClasses() {
	if len(g.dirty) == 0 {
		return
	}
	ids := make([]ClassID, 0, len(g.dirty))
	for id := range g.dirty {
		ids = append(ids, g.Find(id))
	}
	g.dirty = make(map[ClassID]struct{})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var last ClassID
	for i, id := range ids {
		if i > 0 && id == last {
			continue
		}
		last = id
		c := g.classes[id]

		seen := make(map[string]struct{}, len(c.nodes))
		nodes := make([]Node, 0, len(c.nodes))
		for _, n := range c.nodes {
			cn := n.canonical(g.Find)
			k := cn.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			nodes = append(nodes, cn)
			g.memo[k] = id
		}
		g.nodeCount -= len(c.nodes) - len(nodes)
		c.nodes = nodes

		seenParents := make(map[string]struct{}, len(c.parents))
		parents := make([]parent, 0, len(c.parents))
		for _, p := range c.parents {
			cn := p.node.canonical(g.Find)
			owner := g.Find(p.class)
			k := fmt.Sprintf("%s/%d", cn.key(), owner)
			if _, dup := seenParents[k]; dup {
				continue
			}
			seenParents[k] = struct{}{}
			parents = append(parents, parent{node: cn, class: owner})
		}
		c.parents = parents
	}
}

// IsClean reports whether all unions have been repaired by Rebuild.
func (g *EGraph) IsClean() bool {
	return len(g.pending) == 0 && len(g.dirty) == 0
}

// Class returns the canonical class for id.
func (g *EGraph) Class(id ClassID) *Class {
	return g.classes[g.Find(id)]
}

// Classes returns the live classes in ascending id order.
func (g *EGraph) Classes() []*Class {
	out := make([]*Class, 0, g.classCount)
	for _, c := range g.classes {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NumNodes returns the number of distinct e-nodes.
func (g *EGraph) NumNodes() int {
	return g.nodeCount
}

// NumClasses returns the number of live e-classes.
func (g *EGraph) NumClasses() int {
	return g.classCount
}

// Unions returns the total number of merges performed so far.
func (g *EGraph) Unions() int {
	return g.unions
}

// Arity returns the recorded arity of op.
func (g *EGraph) Arity(op string) (int, bool) {
	n, ok := g.arity[ir.Intern(op)]
	return n, ok
}

// Lookup finds the class holding (op, children) without inserting.
func (g *EGraph) Lookup(op string, children []ClassID) (ClassID, bool) {
	for _, c := range children {
		if int(c) >= g.uf.len() {
			return 0, false
		}
	}
	n := Node{Op: ir.Intern(op), Children: children}.canonical(g.Find)
	id, ok := g.memo[n.key()]
	if !ok {
		return 0, false
	}
	return g.Find(id), true
}

// LookupTerm finds the class representing t without inserting.
func (g *EGraph) LookupTerm(t ir.Term) (ClassID, bool) {
	children := make([]ClassID, len(t.Children))
	for i, c := range t.Children {
		id, ok := g.LookupTerm(c)
		if !ok {
			return 0, false
		}
		children[i] = id
	}
	return g.Lookup(t.Op, children)
}

// Equivalent reports whether a and b are in the same class.
func (g *EGraph) Equivalent(a, b ClassID) bool {
	return g.Find(a) == g.Find(b)
}
