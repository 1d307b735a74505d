package pattern

import (
	"strconv"
	"strings"

	"github.com/roach88/eqsat/internal/egraph"
)

// Subst maps pattern variables to e-classes. It is immutable: With returns
// an extended copy. Bindings keep the order in which variables were bound.
type Subst struct {
	vars []string
	ids  []egraph.ClassID
}

// Get returns the class bound to v.
func (s Subst) Get(v string) (egraph.ClassID, bool) {
	for i, name := range s.vars {
		if name == v {
			return s.ids[i], true
		}
	}
	return 0, false
}

// With returns a copy of s with v bound to id.
func (s Subst) With(v string, id egraph.ClassID) Subst {
	vars := make([]string, len(s.vars), len(s.vars)+1)
	ids := make([]egraph.ClassID, len(s.ids), len(s.ids)+1)
	copy(vars, s.vars)
	copy(ids, s.ids)
	return Subst{vars: append(vars, v), ids: append(ids, id)}
}

// Len returns the number of bound variables.
func (s Subst) Len() int {
	return len(s.vars)
}

// Vars returns the bound variables in binding order.
func (s Subst) Vars() []string {
	out := make([]string, len(s.vars))
	copy(out, s.vars)
	return out
}

// Key identifies s up to class equivalence, e.g. "?a=3,?b=7".
func (s Subst) Key(find func(egraph.ClassID) egraph.ClassID) string {
	var b strings.Builder
	for i, v := range s.vars {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v)
		b.WriteByte('=')
		b.WriteString(strconv.FormatUint(uint64(find(s.ids[i])), 10))
	}
	return b.String()
}

// String prints s with raw class ids.
func (s Subst) String() string {
	return "{" + s.Key(func(id egraph.ClassID) egraph.ClassID { return id }) + "}"
}
