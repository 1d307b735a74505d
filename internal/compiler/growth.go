package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/eqsat/internal/pattern"
	"github.com/roach88/eqsat/internal/rewrite"
)

// GrowthWarning flags rules that can keep feeding each other while adding
// operators on every firing. Such rule sets usually stop on a limit rather
// than saturate.
//
// Growth is reported as a warning, not an error: a limit-bounded run still
// yields a valid best expression.
type GrowthWarning struct {
	Path    []string `json:"path"`    // cycle path: ["a", "b", "a"]
	Growing []string `json:"growing"` // rules in the cycle whose applier adds operators
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeGrowth builds a trigger graph over rules and reports every
// strongly connected component that contains an expansive rule.
//
// Rule a may trigger rule b when a's applier mentions the root operator of
// b's searcher, or when b's searcher is a bare variable. A rule is expansive
// when its applier holds more operator nodes than its searcher.
func AnalyzeGrowth(rules []*rewrite.Rule) []GrowthWarning {
	if len(rules) == 0 {
		return []GrowthWarning{}
	}

	graph, order := buildTriggerGraph(rules)
	expansive := make(map[string]bool)
	for _, r := range rules {
		if opCount(r.Applier()) > opCount(r.Searcher()) {
			expansive[r.Name()] = true
		}
	}

	warnings := []GrowthWarning{}
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}
		var growing []string
		for _, name := range order {
			if expansive[name] && contains(scc, name) {
				growing = append(growing, name)
			}
		}
		if len(growing) == 0 {
			continue
		}
		path := reconstructCyclePath(orderSCC(scc, order), graph)
		warnings = append(warnings, GrowthWarning{
			Path:    path,
			Growing: growing,
			Message: fmt.Sprintf("rules may grow without bound: %s (expansive: %s)",
				strings.Join(path, " -> "), strings.Join(growing, ", ")),
			Level: "warning",
		})
	}
	return warnings
}

// triggerGraph maps a rule name to the rules its applier may trigger.
type triggerGraph map[string][]string

func buildTriggerGraph(rules []*rewrite.Rule) (triggerGraph, []string) {
	graph := make(triggerGraph, len(rules))
	order := make([]string, 0, len(rules))

	var wildcard []string
	for _, r := range rules {
		order = append(order, r.Name())
		graph[r.Name()] = []string{}
		if r.Searcher().IsVar() {
			wildcard = append(wildcard, r.Name())
		}
	}

	for _, r := range rules {
		seen := make(map[string]bool)
		addEdge := func(to string) {
			if !seen[to] {
				seen[to] = true
				graph[r.Name()] = append(graph[r.Name()], to)
			}
		}
		// Ops() is a map; walk rules in order to keep edges deterministic.
		ops := r.Applier().Ops()
		for _, other := range rules {
			s := other.Searcher()
			if s.IsVar() {
				continue
			}
			if _, ok := ops[string(s.Op)]; ok {
				addEdge(other.Name())
			}
		}
		if len(ops) > 0 {
			for _, w := range wildcard {
				addEdge(w)
			}
		}
	}
	return graph, order
}

func opCount(p *pattern.Pattern) int {
	if p.IsVar() {
		return 0
	}
	n := 1
	for _, c := range p.Children {
		n += opCount(c)
	}
	return n
}

func hasSelfLoop(node string, graph triggerGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// orderSCC sorts scc members by their position in order.
func orderSCC(scc, order []string) []string {
	out := make([]string, 0, len(scc))
	for _, name := range order {
		if contains(scc, name) {
			out = append(out, name)
		}
	}
	return out
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting roots in the given order.
func tarjanSCC(graph triggerGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside scc from its first member until
// it returns to the start. A self-loop yields [a, a].
func reconstructCyclePath(scc []string, graph triggerGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && neighbor != current && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
