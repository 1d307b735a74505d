package egraph

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump writes a human-readable listing of every live class to w.
func (g *EGraph) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "egraph: %d classes, %d nodes, clean=%t\n",
		g.NumClasses(), g.NumNodes(), g.IsClean()); err != nil {
		return err
	}
	for _, c := range g.Classes() {
		parts := make([]string, len(c.nodes))
		for i, n := range c.nodes {
			parts[i] = n.String()
		}
		if _, err := fmt.Fprintf(w, "  c%d: %s\n", c.ID, strings.Join(parts, " | ")); err != nil {
			return err
		}
	}
	return nil
}

// DebugString returns a spew dump of the raw class structure.
// Intended for test failure messages.
func (g *EGraph) DebugString() string {
	type classView struct {
		ID    ClassID
		Nodes []string
	}
	views := make([]classView, 0, g.NumClasses())
	for _, c := range g.Classes() {
		v := classView{ID: c.ID}
		for _, n := range c.nodes {
			v.Nodes = append(v.Nodes, n.String())
		}
		views = append(views, v)
	}
	return dumpConfig.Sdump(views)
}
