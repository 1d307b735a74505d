package extract

import (
	"fmt"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/ir"
)

// Extractor holds per-class best costs for one graph and model.
// The graph must not change while the extractor is in use.
type Extractor struct {
	g          *egraph.EGraph
	model      CostModel
	costs      map[egraph.ClassID]Cost
	best       map[egraph.ClassID]egraph.Node
	iterations int
	converged  bool
}

// Option configures an Extractor.
type Option func(*config)

type config struct {
	iterationLimit int
}

// WithIterationLimit caps the number of relaxation passes.
// The default is one more than the number of classes.
func WithIterationLimit(n int) Option {
	return func(c *config) {
		c.iterationLimit = n
	}
}

// New computes best costs for every class of g under model.
// The graph should be rebuilt first.
func New(g *egraph.EGraph, model CostModel, opts ...Option) *Extractor {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	classes := g.Classes()
	if cfg.iterationLimit <= 0 {
		cfg.iterationLimit = len(classes) + 1
	}

	e := &Extractor{
		g:     g,
		model: model,
		costs: make(map[egraph.ClassID]Cost, len(classes)),
		best:  make(map[egraph.ClassID]egraph.Node, len(classes)),
	}
	e.relax(classes, cfg.iterationLimit)
	e.choose(classes)
	return e
}

func (e *Extractor) relax(classes []*egraph.Class, limit int) {
	for e.iterations < limit {
		e.iterations++
		changed := false
		for _, c := range classes {
			cost := e.classCost(c)
			if !cost.IsFinite() {
				continue
			}
			if old, ok := e.costs[c.ID]; !ok || cost < old {
				e.costs[c.ID] = cost
				changed = true
			}
		}
		if !changed {
			e.converged = true
			return
		}
	}
}

// classCost is the minimum over nodes of c, using current child costs.
func (e *Extractor) classCost(c *egraph.Class) Cost {
	best := Infinity
	for _, n := range c.Nodes() {
		if cost := e.nodeCost(n); cost < best {
			best = cost
		}
	}
	return best
}

func (e *Extractor) nodeCost(n egraph.Node) Cost {
	children := make([]Cost, len(n.Children))
	for i, ch := range n.Children {
		cost, ok := e.costs[e.g.Find(ch)]
		if !ok {
			return Infinity
		}
		children[i] = cost
	}
	cost := e.model.Cost(string(n.Op), children)
	if !cost.IsFinite() {
		return Infinity
	}
	return cost
}

// choose records, per class, the first node reaching the minimum cost.
func (e *Extractor) choose(classes []*egraph.Class) {
	for _, c := range classes {
		if _, ok := e.costs[c.ID]; !ok {
			continue
		}
		best := Infinity
		for _, n := range c.Nodes() {
			if cost := e.nodeCost(n); cost < best {
				best = cost
				e.best[c.ID] = n
			}
		}
		if best.IsFinite() {
			e.costs[c.ID] = best
		}
	}
}

// Iterations returns the number of relaxation passes performed.
func (e *Extractor) Iterations() int {
	return e.iterations
}

// Converged reports whether relaxation stopped before the iteration cap.
func (e *Extractor) Converged() bool {
	return e.converged
}

// Model returns the cost model in use.
func (e *Extractor) Model() CostModel {
	return e.model
}

// Cost returns the best known cost of the class of id.
func (e *Extractor) Cost(id egraph.ClassID) (Cost, bool) {
	c, ok := e.costs[e.g.Find(id)]
	return c, ok
}

// FindBest reconstructs the cheapest expression for the class of root.
// Exactly one node is chosen per class, so the result is acyclic.
func (e *Extractor) FindBest(root egraph.ClassID) (Cost, *ir.RecExpr, error) {
	root = e.g.Find(root)
	cost, ok := e.costs[root]
	if !ok {
		return Infinity, nil, fmt.Errorf("extract: class %d has no finite cost", root)
	}

	expr := &ir.RecExpr{}
	done := make(map[egraph.ClassID]int)
	onPath := make(map[egraph.ClassID]bool)
	if _, err := e.build(root, expr, done, onPath); err != nil {
		return Infinity, nil, err
	}
	return cost, expr, nil
}

func (e *Extractor) build(id egraph.ClassID, expr *ir.RecExpr, done map[egraph.ClassID]int, onPath map[egraph.ClassID]bool) (int, error) {
	if i, ok := done[id]; ok {
		return i, nil
	}
	if onPath[id] {
		return 0, fmt.Errorf("extract: chosen nodes form a cycle through class %d under model %q", id, e.model.Name())
	}
	n, ok := e.best[id]
	if !ok {
		return 0, fmt.Errorf("extract: class %d has no chosen node", id)
	}

	onPath[id] = true
	children := make([]int, len(n.Children))
	for i, ch := range n.Children {
		idx, err := e.build(e.g.Find(ch), expr, done, onPath)
		if err != nil {
			return 0, err
		}
		children[i] = idx
	}
	delete(onPath, id)

	idx := expr.Add(ir.RecNode{Op: string(n.Op), Children: children})
	done[id] = idx
	return idx, nil
}

// BestTerm is FindBest returning the nested form.
func (e *Extractor) BestTerm(root egraph.ClassID) (Cost, ir.Term, error) {
	cost, expr, err := e.FindBest(root)
	if err != nil {
		return Infinity, ir.Term{}, err
	}
	return cost, expr.Term(), nil
}

// TermCost prices a concrete term directly under model.
func TermCost(model CostModel, t ir.Term) Cost {
	children := make([]Cost, len(t.Children))
	for i, c := range t.Children {
		children[i] = TermCost(model, c)
	}
	return model.Cost(t.Op, children)
}
