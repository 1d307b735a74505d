package rewrite

import (
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/roach88/eqsat/internal/ir"
)

// Bindings is an immutable, name-ordered view of the terms bound to a
// match's variables. Names carry no "?" sigil.
type Bindings struct {
	m *immutable.SortedMap
}

// NewBindings builds a snapshot from a plain map.
func NewBindings(terms map[string]ir.Term) Bindings {
	m := immutable.NewSortedMap(&stringComparer{})
	for name, t := range terms {
		m = m.Set(name, t)
	}
	return Bindings{m: m}
}

// With returns a copy of b with name bound to t.
func (b Bindings) With(name string, t ir.Term) Bindings {
	m := b.m
	if m == nil {
		m = immutable.NewSortedMap(&stringComparer{})
	}
	return Bindings{m: m.Set(name, t)}
}

// Get returns the term bound to name.
func (b Bindings) Get(name string) (ir.Term, bool) {
	if b.m == nil {
		return ir.Term{}, false
	}
	v, ok := b.m.Get(name)
	if !ok {
		return ir.Term{}, false
	}
	return v.(ir.Term), true
}

// Len returns the number of bindings.
func (b Bindings) Len() int {
	if b.m == nil {
		return 0
	}
	return b.m.Len()
}

// Names returns the bound names in sorted order.
func (b Bindings) Names() []string {
	var out []string
	b.each(func(name string, _ ir.Term) {
		out = append(out, name)
	})
	return out
}

// Map returns a copy of the bindings as a plain map.
func (b Bindings) Map() map[string]ir.Term {
	out := make(map[string]ir.Term, b.Len())
	b.each(func(name string, t ir.Term) {
		out[name] = t
	})
	return out
}

// String prints the bindings as "{a=(+ 1 2), b=x}".
func (b Bindings) String() string {
	var parts []string
	b.each(func(name string, t ir.Term) {
		parts = append(parts, name+"="+t.String())
	})
	return "{" + strings.Join(parts, ", ") + "}"
}

func (b Bindings) each(fn func(string, ir.Term)) {
	if b.m == nil {
		return
	}
	itr := b.m.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		fn(k.(string), v.(ir.Term))
	}
}

// stringComparer orders binding names. Implements immutable.Comparer.
type stringComparer struct{}

// Compare returns -1, 0 or 1 as a sorts before, equal to or after b.
// Panics if a or b is not a string.
func (c *stringComparer) Compare(a, b interface{}) int {
	return strings.Compare(a.(string), b.(string))
}
