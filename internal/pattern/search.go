package pattern

import "github.com/roach88/eqsat/internal/egraph"

// Match is the set of substitutions under which a pattern matches one class.
type Match struct {
	Class  egraph.ClassID
	Substs []Subst
}

// SearchResult is the outcome of searching a whole graph.
type SearchResult struct {
	Matches []Match

	// Total counts substitutions across all matches.
	Total int

	// Truncated is set when the limit stopped the search while further
	// matches existed.
	Truncated bool
}

// Search finds every substitution under which p matches a class of g.
// Classes are visited in ascending id order. When limit > 0, at most limit
// substitutions are returned and Truncated reports whether more remained.
func Search(g *egraph.EGraph, p *Pattern, limit int) SearchResult {
	var res SearchResult
	for _, c := range g.Classes() {
		if !p.IsVar() && !c.HasOp(p.Op) {
			continue
		}
		budget := -1
		if limit > 0 {
			budget = limit - res.Total
		}
		substs, truncated := searchClass(g, p, c.ID, budget)
		if len(substs) > 0 {
			res.Matches = append(res.Matches, Match{Class: c.ID, Substs: substs})
			res.Total += len(substs)
		}
		if truncated {
			res.Truncated = true
			return res
		}
	}
	return res
}

// SearchClass returns the distinct substitutions under which p matches id.
func SearchClass(g *egraph.EGraph, p *Pattern, id egraph.ClassID) []Subst {
	substs, _ := searchClass(g, p, g.Find(id), -1)
	return substs
}

// searchClass collects up to budget distinct substitutions (unbounded when
// budget < 0) and reports whether another one was found beyond the budget.
func searchClass(g *egraph.EGraph, p *Pattern, id egraph.ClassID, budget int) ([]Subst, bool) {
	var out []Subst
	seen := make(map[string]struct{})
	truncated := false
	matchClass(g, p, id, Subst{}, func(s Subst) bool {
		k := s.Key(g.Find)
		if _, dup := seen[k]; dup {
			return true
		}
		if budget >= 0 && len(out) >= budget {
			truncated = true
			return false
		}
		seen[k] = struct{}{}
		out = append(out, s)
		return true
	})
	return out, truncated
}

// matchClass calls yield for each substitution extending s under which p
// matches class id. It returns false once yield asks to stop.
func matchClass(g *egraph.EGraph, p *Pattern, id egraph.ClassID, s Subst, yield func(Subst) bool) bool {
	if p.IsVar() {
		if bound, ok := s.Get(p.Var); ok {
			if g.Find(bound) != g.Find(id) {
				return true
			}
			return yield(s)
		}
		return yield(s.With(p.Var, g.Find(id)))
	}

	for _, n := range g.Class(id).Nodes() {
		if n.Op != p.Op || len(n.Children) != len(p.Children) {
			continue
		}
		if !matchChildren(g, p.Children, n.Children, 0, s, yield) {
			return false
		}
	}
	return true
}

func matchChildren(g *egraph.EGraph, ps []*Pattern, ids []egraph.ClassID, i int, s Subst, yield func(Subst) bool) bool {
	if i == len(ps) {
		return yield(s)
	}
	return matchClass(g, ps[i], ids[i], s, func(next Subst) bool {
		return matchChildren(g, ps, ids, i+1, next, yield)
	})
}
