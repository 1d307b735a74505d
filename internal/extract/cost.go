package extract

import (
	"math"
	"strconv"
)

// Cost is a totally ordered extraction cost. Lower is better.
type Cost float64

// Infinity marks a class whose cost is not yet known.
var Infinity = Cost(math.Inf(1))

// IsFinite reports whether c is a usable cost.
func (c Cost) IsFinite() bool {
	return !math.IsInf(float64(c), 0) && !math.IsNaN(float64(c))
}

// String prints integral costs without a fractional part.
func (c Cost) String() string {
	return strconv.FormatFloat(float64(c), 'f', -1, 64)
}

// CostModel prices one node given its children's costs.
type CostModel interface {
	Name() string
	Cost(op string, children []Cost) Cost
}

// CostFunc is the signature of a pluggable cost model.
type CostFunc func(op string, children []Cost) Cost

// Built-in model names.
const (
	AstSizeName  = "ast-size"
	AstDepthName = "ast-depth"
	OpWeightName = "op-weight"
)

// AstSize counts nodes: 1 + sum of children.
type AstSize struct{}

// Name implements CostModel.
func (AstSize) Name() string { return AstSizeName }

// Cost implements CostModel.
func (AstSize) Cost(_ string, children []Cost) Cost {
	c := Cost(1)
	for _, ch := range children {
		c += ch
	}
	return c
}

// AstDepth measures height: 1 + max of children.
type AstDepth struct{}

// Name implements CostModel.
func (AstDepth) Name() string { return AstDepthName }

// Cost implements CostModel.
func (AstDepth) Cost(_ string, children []Cost) Cost {
	var m Cost
	for _, ch := range children {
		if ch > m {
			m = ch
		}
	}
	return 1 + m
}

type customModel struct {
	name string
	fn   CostFunc
}

// Custom wraps fn as a named cost model.
func Custom(name string, fn CostFunc) CostModel {
	return customModel{name: name, fn: fn}
}

func (m customModel) Name() string { return m.name }

func (m customModel) Cost(op string, children []Cost) Cost {
	return m.fn(op, children)
}

// OpWeight prices each operator by a fixed weight plus its children.
// Operators missing from weights cost fallback.
func OpWeight(weights map[string]float64, fallback float64) CostModel {
	w := make(map[string]float64, len(weights))
	for op, v := range weights {
		w[op] = v
	}
	return Custom(OpWeightName, func(op string, children []Cost) Cost {
		c, ok := w[op]
		if !ok {
			c = fallback
		}
		total := Cost(c)
		for _, ch := range children {
			total += ch
		}
		return total
	})
}
