package engine

import (
	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/pattern"
	"github.com/roach88/eqsat/internal/rewrite"
)

// ruleMatches is the search result of one rule within one pass.
type ruleMatches struct {
	rule      *rewrite.Rule
	matches   []pattern.Match
	total     int
	truncated bool
}

// searchAll runs every rule's searcher over g without applying anything.
// Rules are searched in declaration order; limit gives each rule's cap.
func searchAll(g *egraph.EGraph, rules []*rewrite.Rule, limit func(rule string) int) []ruleMatches {
	out := make([]ruleMatches, 0, len(rules))
	for _, r := range rules {
		res := pattern.Search(g, r.Searcher(), limit(r.Name()))
		out = append(out, ruleMatches{
			rule:      r,
			matches:   res.Matches,
			total:     res.Total,
			truncated: res.Truncated,
		})
	}
	return out
}

// matchKey identifies a match up to class equivalence at the current state
// of g, e.g. "12|?a=3,?b=7".
func matchKey(g *egraph.EGraph, class egraph.ClassID, s pattern.Subst) string {
	return egraph.FormatClassID(g.Find(class)) + "|" + s.Key(g.Find)
}
