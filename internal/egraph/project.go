package egraph

import "github.com/roach88/eqsat/internal/ir"

// Project returns one representative term for the class of id, built from
// the first node of each class. A node whose children lead back to a class
// already on the current path is skipped in favour of the next node, so the
// result is always finite. ok is false only if no acyclic term exists.
func (g *EGraph) Project(id ClassID) (ir.Term, bool) {
	p := projector{g: g, done: make(map[ClassID]ir.Term), onPath: make(map[ClassID]bool)}
	return p.class(g.Find(id))
}

// Equivalents returns one term per node in the class of id, in node order.
// Children are projected with Project's first-node rule. Nodes that cannot be
// projected without a cycle are omitted.
func (g *EGraph) Equivalents(id ClassID) []ir.Term {
	root := g.Find(id)
	p := projector{g: g, done: make(map[ClassID]ir.Term)}
	var out []ir.Term
	for _, n := range g.classes[root].nodes {
		p.onPath = map[ClassID]bool{}
		if t, ok := p.node(n); ok {
			out = append(out, t)
		}
	}
	return out
}

type projector struct {
	g      *EGraph
	done   map[ClassID]ir.Term
	onPath map[ClassID]bool
}

func (p *projector) class(id ClassID) (ir.Term, bool) {
	if t, ok := p.done[id]; ok {
		return t, true
	}
	if p.onPath[id] {
		return ir.Term{}, false
	}
	p.onPath[id] = true
	defer delete(p.onPath, id)

	for _, n := range p.g.classes[id].nodes {
		if t, ok := p.node(n); ok {
			p.done[id] = t
			return t, true
		}
	}
	return ir.Term{}, false
}

func (p *projector) node(n Node) (ir.Term, bool) {
	t := ir.Term{Op: string(n.Op)}
	if len(n.Children) == 0 {
		return t, true
	}
	t.Children = make([]ir.Term, len(n.Children))
	for i, c := range n.Children {
		ct, ok := p.class(p.g.Find(c))
		if !ok {
			return ir.Term{}, false
		}
		t.Children[i] = ct
	}
	return t, true
}
