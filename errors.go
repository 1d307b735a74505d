package eqsat

import (
	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/rewrite"
)

// IsParseError reports whether err came from a malformed expression or
// pattern.
func IsParseError(err error) bool {
	return ir.IsParseError(err)
}

// IsArityError reports whether err is an operator arity conflict.
func IsArityError(err error) bool {
	return egraph.IsArityError(err)
}

// IsUnknownCostModelError reports whether err names an unknown cost model.
func IsUnknownCostModelError(err error) bool {
	return extract.IsUnknownCostModelError(err)
}

// IsRuleError reports whether err came from rule or rule-set construction.
func IsRuleError(err error) bool {
	return rewrite.IsRuleError(err)
}

// IsMatchLimitError reports whether a strict match limit ended the run.
func IsMatchLimitError(err error) bool {
	return engine.IsMatchLimitError(err)
}
