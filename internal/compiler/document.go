package compiler

import (
	"fmt"
	"time"

	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/rewrite"
)

// Document is a parsed rule-set file, independent of its source format.
type Document struct {
	Rules       []RuleDecl         `yaml:"rules" json:"rules"`
	Costs       map[string]float64 `yaml:"costs,omitempty" json:"costs,omitempty"`
	DefaultCost *float64           `yaml:"default_cost,omitempty" json:"default_cost,omitempty"`
	Limits      *LimitsDecl        `yaml:"limits,omitempty" json:"limits,omitempty"`
}

// RuleDecl declares one rewrite rule.
type RuleDecl struct {
	Name      string      `yaml:"name" json:"name"`
	Searcher  string      `yaml:"searcher" json:"searcher"`
	Applier   string      `yaml:"applier" json:"applier"`
	Symmetric bool        `yaml:"symmetric,omitempty" json:"symmetric,omitempty"`
	When      []Condition `yaml:"when,omitempty" json:"when,omitempty"`
}

// LimitsDecl carries runner limits. Zero fields keep the runner default.
type LimitsDecl struct {
	Iterations int    `yaml:"iterations,omitempty" json:"iterations,omitempty"`
	Nodes      int    `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Time       string `yaml:"time,omitempty" json:"time,omitempty"`
	Matches    int    `yaml:"matches,omitempty" json:"matches,omitempty"`
	Strict     bool   `yaml:"strict,omitempty" json:"strict,omitempty"`
}

// Program is a compiled rule-set document.
type Program struct {
	Rules       *rewrite.RuleSet
	Costs       map[string]float64
	DefaultCost float64
	Limits      LimitsDecl
	Timeout     time.Duration
	Warnings    []GrowthWarning
}

// Compile validates d and builds its rule set. All validation problems are
// reported together; nothing is built unless the document is valid.
func (d *Document) Compile() (*Program, error) {
	if errs := Validate(d); len(errs) > 0 {
		return nil, &errs[0]
	}

	var rules []*rewrite.Rule
	for _, decl := range d.Rules {
		variants, err := CompileRule(decl)
		if err != nil {
			return nil, err
		}
		rules = append(rules, variants...)
	}
	set, err := rewrite.NewRuleSet(rules...)
	if err != nil {
		return nil, err
	}

	p := &Program{
		Rules:       set,
		Costs:       d.Costs,
		DefaultCost: 1,
		Warnings:    AnalyzeGrowth(rules),
	}
	if d.DefaultCost != nil {
		p.DefaultCost = *d.DefaultCost
	}
	if d.Limits != nil {
		p.Limits = *d.Limits
		if d.Limits.Time != "" {
			// Validate has already parsed it once.
			p.Timeout, _ = time.ParseDuration(d.Limits.Time)
		}
	}
	return p, nil
}

// CompileRule builds the directed rules for decl, guarding every variant
// with the same compiled conditions.
func CompileRule(decl RuleDecl) ([]*rewrite.Rule, error) {
	variants, err := rewrite.Compile(decl.Name, decl.Searcher, decl.Applier, decl.Symmetric)
	if err != nil {
		return nil, err
	}
	if len(decl.When) == 0 {
		return variants, nil
	}

	guard, err := compileConditions(decl.When)
	if err != nil {
		return nil, &CompileError{Field: "rule." + decl.Name + ".when", Message: err.Error()}
	}
	for _, r := range variants {
		bound := make(map[string]bool)
		for _, v := range r.Searcher().Vars() {
			bound[v] = true
		}
		for _, v := range conditionVars(decl.When) {
			if !bound[v] {
				return nil, &CompileError{
					Field:   "rule." + decl.Name + ".when",
					Message: fmt.Sprintf("variable %s is not bound by searcher %s of %s", v, r.Searcher(), r.Name()),
				}
			}
		}
	}

	shared := rewrite.Serialize(guard)
	out := make([]*rewrite.Rule, len(variants))
	for i, r := range variants {
		out[i] = rewrite.OnlyWhen(r, shared)
	}
	return out, nil
}

// CostModel returns the op-weight model described by the document, or nil
// when the document declares no weights.
func (p *Program) CostModel() extract.CostModel {
	if len(p.Costs) == 0 {
		return nil
	}
	return extract.OpWeight(p.Costs, p.DefaultCost)
}

// ResolveCostModel maps a model name to a model. The empty name means
// ast-size. op-weight uses the document's costs block; every other name
// goes through the built-in registry.
func (p *Program) ResolveCostModel(name string) (extract.CostModel, error) {
	if name == "" {
		name = extract.AstSizeName
	}
	if name == extract.OpWeightName {
		if m := p.CostModel(); m != nil {
			return m, nil
		}
		return extract.OpWeight(nil, p.DefaultCost), nil
	}
	return extract.Lookup(name)
}

// RunnerOptions converts the declared limits into runner options.
func (p *Program) RunnerOptions() []engine.RunnerOption {
	var opts []engine.RunnerOption
	if p.Limits.Iterations > 0 {
		opts = append(opts, engine.WithIterationLimit(p.Limits.Iterations))
	}
	if p.Limits.Nodes > 0 {
		opts = append(opts, engine.WithNodeLimit(p.Limits.Nodes))
	}
	if p.Timeout > 0 {
		opts = append(opts, engine.WithTimeLimit(p.Timeout))
	}
	if p.Limits.Matches > 0 {
		opts = append(opts, engine.WithMatchLimit(p.Limits.Matches))
	}
	if p.Limits.Strict {
		opts = append(opts, engine.WithStrictMatchLimit())
	}
	return opts
}
