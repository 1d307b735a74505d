package egraph

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/roach88/eqsat/internal/ir"
)

// Node is an e-node: an operator over an ordered list of child classes.
type Node struct {
	Op       ir.Symbol
	Children []ClassID
}

// Arity returns the number of children.
func (n Node) Arity() int {
	return len(n.Children)
}

// canonical returns a copy of n with every child resolved through find.
func (n Node) canonical(find func(ClassID) ClassID) Node {
	if len(n.Children) == 0 {
		return n
	}
	children := make([]ClassID, len(n.Children))
	for i, c := range n.Children {
		children[i] = find(c)
	}
	return Node{Op: n.Op, Children: children}
}

// key is the hashcons key of n. Callers canonicalize first.
func (n Node) key() string {
	var b strings.Builder
	var buf [binary.MaxVarintLen64]byte
	b.Grow(len(n.Op) + len(buf) + 5*len(n.Children))
	k := binary.PutUvarint(buf[:], uint64(len(n.Op)))
	b.Write(buf[:k])
	b.WriteString(string(n.Op))
	for _, c := range n.Children {
		k = binary.PutUvarint(buf[:], uint64(c))
		b.Write(buf[:k])
	}
	return b.String()
}

// parent records that node (living in class) mentions some child class.
type parent struct {
	node  Node
	class ClassID
}

// String prints the node with children as class references, e.g. (+ c0 c3).
func (n Node) String() string {
	if len(n.Children) == 0 {
		return string(n.Op)
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(string(n.Op))
	for _, c := range n.Children {
		b.WriteString(" c")
		b.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	b.WriteByte(')')
	return b.String()
}
