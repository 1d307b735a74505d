package eqsat

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/ir"
)

// Result is the outcome of simplifying one expression.
type Result struct {
	Input       Term
	Cost        Cost
	Expr        string // Best in textual form
	Best        Term
	Equivalents []Term // every node of the input's class, children projected
	Report      *Report
}

// Simplify saturates expr with rs and returns the cheapest equivalent
// expression under the named cost model ("ast-size" or "ast-depth").
//
// An unknown model name fails before the expression is parsed or any graph
// is built. Hitting a resource limit is not an error: the result is the
// best expression found so far and Report.StopReason says which limit hit.
func (rs *RuleSet) Simplify(expr, model string, opts ...Option) (*Result, error) {
	m, err := extract.Lookup(model)
	if err != nil {
		return nil, err
	}
	t, err := ir.ParseTerm(expr)
	if err != nil {
		return nil, err
	}
	return rs.SimplifyTerm(t, m, opts...)
}

// SimplifyTerm is like Simplify for an already parsed term and any cost
// model, including custom ones.
func (rs *RuleSet) SimplifyTerm(t Term, model CostModel, opts ...Option) (*Result, error) {
	out, err := engine.Simplify(rs.set, []ir.Term{t}, model, opts...)
	if err != nil {
		return nil, err
	}
	root := out.Roots[0]
	return &Result{
		Input:       root.Input,
		Cost:        root.Cost,
		Expr:        root.Best.String(),
		Best:        root.Best,
		Equivalents: root.Equivalents,
		Report:      out.Report,
	}, nil
}

// SimplifyBatch simplifies each expression in its own e-graph, running at
// most parallelism at once (parallelism <= 0 means one per expression).
// Results are in input order. The first failure cancels runs that have not
// started yet and is returned; runs already in progress finish on their
// own limits.
func (rs *RuleSet) SimplifyBatch(ctx context.Context, exprs []string, model string, parallelism int, opts ...Option) ([]*Result, error) {
	m, err := extract.Lookup(model)
	if err != nil {
		return nil, err
	}
	terms := make([]ir.Term, len(exprs))
	for i, e := range exprs {
		if terms[i], err = ir.ParseTerm(e); err != nil {
			return nil, fmt.Errorf("expression %d: %w", i, err)
		}
	}

	results := make([]*Result, len(terms))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, t := range terms {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := rs.SimplifyTerm(t, m, opts...)
			if err != nil {
				return fmt.Errorf("expression %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
