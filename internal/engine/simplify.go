package engine

import (
	"fmt"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/rewrite"
)

// Root is the extraction result for one input term.
type Root struct {
	Input       ir.Term
	Class       egraph.ClassID
	Cost        extract.Cost
	Best        ir.Term
	Expr        *ir.RecExpr
	Equivalents []ir.Term
}

// Outcome is the result of Simplify: the run report, the saturated graph,
// and one Root per input in input order.
type Outcome struct {
	Report *Report
	Graph  *egraph.EGraph
	Model  string
	Roots  []Root
}

// Simplify builds one graph holding every input, saturates it with rules,
// and extracts the cheapest term per input under model.
//
// Inputs are inserted before any rule runs; an arity conflict among them
// fails the call with no run started.
func Simplify(rules *rewrite.RuleSet, inputs []ir.Term, model extract.CostModel, opts ...RunnerOption) (*Outcome, error) {
	if model == nil {
		return nil, fmt.Errorf("simplify: cost model is required")
	}
	if rules == nil {
		return nil, fmt.Errorf("simplify: rule set is required")
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("simplify: no input expressions")
	}

	g := egraph.New()
	classes := make([]egraph.ClassID, len(inputs))
	for i, in := range inputs {
		id, err := g.AddTerm(in)
		if err != nil {
			return nil, fmt.Errorf("simplify: add %s: %w", in, err)
		}
		classes[i] = id
	}

	runner := NewRunner(opts...)
	report, err := runner.Run(g, rules)
	if err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}

	var xopts []extract.Option
	if runner.extractLimit > 0 {
		xopts = append(xopts, extract.WithIterationLimit(runner.extractLimit))
	}
	ex := extract.New(g, model, xopts...)

	out := &Outcome{Report: report, Graph: g, Model: model.Name(), Roots: make([]Root, len(inputs))}
	for i, in := range inputs {
		cost, expr, err := ex.FindBest(classes[i])
		if err != nil {
			return nil, fmt.Errorf("simplify: extract %s: %w", in, err)
		}
		out.Roots[i] = Root{
			Input:       in,
			Class:       g.Find(classes[i]),
			Cost:        cost,
			Best:        expr.Term(),
			Expr:        expr,
			Equivalents: g.Equivalents(classes[i]),
		}
	}
	return out, nil
}
