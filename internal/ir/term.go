package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Term is the nested interchange form of an expression: an operator and an
// ordered list of child terms. A term with no children is a leaf.
//
// JSON form mirrors the nested tuple form: ["op", [child, ...]].
// A bare JSON string is accepted on input and parsed as an s-expression.
type Term struct {
	Op       string
	Children []Term
}

// Leaf returns a term with no children.
func Leaf(op string) Term {
	return Term{Op: op}
}

// NewTerm returns a term with the given operator and children.
func NewTerm(op string, children ...Term) Term {
	return Term{Op: op, Children: children}
}

// ParseTerm parses a textual s-expression into a Term.
func ParseTerm(input string) (Term, error) {
	s, err := ReadSexp(input)
	if err != nil {
		return Term{}, err
	}
	return termFromSexp(s), nil
}

// MustParseTerm is like ParseTerm but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseTerm(input string) Term {
	t, err := ParseTerm(input)
	if err != nil {
		panic(err)
	}
	return t
}

func termFromSexp(s *Sexp) Term {
	if s.IsAtom() {
		return Term{Op: s.Atom}
	}
	args := s.Args()
	t := Term{Op: s.Head()}
	if len(args) > 0 {
		t.Children = make([]Term, len(args))
		for i, a := range args {
			t.Children[i] = termFromSexp(a)
		}
	}
	return t
}

// IsLeaf reports whether the term has no children.
func (t Term) IsLeaf() bool {
	return len(t.Children) == 0
}

// Size returns the number of operator occurrences in the term.
func (t Term) Size() int {
	n := 1
	for _, c := range t.Children {
		n += c.Size()
	}
	return n
}

// Depth returns the height of the term; a leaf has depth 1.
func (t Term) Depth() int {
	d := 0
	for _, c := range t.Children {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d + 1
}

// Equal reports structural equality.
func (t Term) Equal(o Term) bool {
	if t.Op != o.Op || len(t.Children) != len(o.Children) {
		return false
	}
	for i := range t.Children {
		if !t.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// String prints the term as an s-expression.
func (t Term) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Term) write(b *strings.Builder) {
	if t.IsLeaf() {
		b.WriteString(t.Op)
		return
	}
	b.WriteByte('(')
	b.WriteString(t.Op)
	for _, c := range t.Children {
		b.WriteByte(' ')
		c.write(b)
	}
	b.WriteByte(')')
}

// MarshalJSON encodes the term as ["op", [children...]].
func (t Term) MarshalJSON() ([]byte, error) {
	children := t.Children
	if children == nil {
		children = []Term{}
	}
	return json.Marshal([]any{t.Op, children})
}

// UnmarshalJSON accepts ["op", [children...]] or a textual s-expression.
func (t *Term) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		parsed, err := ParseTerm(text)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("term: expected [op, children] or string: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("term: expected 2 elements, got %d", len(raw))
	}
	var op string
	if err := json.Unmarshal(raw[0], &op); err != nil {
		return fmt.Errorf("term: operator: %w", err)
	}
	if op == "" {
		return fmt.Errorf("term: empty operator")
	}
	var children []Term
	if err := json.Unmarshal(raw[1], &children); err != nil {
		return fmt.Errorf("term %q: children: %w", op, err)
	}
	if len(children) == 0 {
		children = nil
	}
	*t = Term{Op: op, Children: children}
	return nil
}
