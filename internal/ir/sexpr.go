package ir

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Sexp is a raw s-expression: either an atom or a parenthesized list.
// Terms and patterns are both built from Sexp values.
type Sexp struct {
	Atom string  // non-empty for atoms
	List []*Sexp // elements for lists (nil for atoms)
	Pos  int     // byte offset of the first character
}

// IsAtom reports whether the expression is an atom.
func (s *Sexp) IsAtom() bool {
	return s.Atom != ""
}

// ParseError is returned for malformed textual expressions and patterns.
// No partial result is ever returned alongside it.
type ParseError struct {
	Input   string
	Pos     int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q at offset %d: %s", e.Input, e.Pos, e.Message)
}

// IsParseError returns true if the error is a ParseError.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

type token struct {
	text string
	pos  int
}

// tokenize splits input into "(", ")" and atoms. Whitespace separates atoms.
func tokenize(input string) []token {
	var toks []token
	start := -1
	flush := func(end int) {
		if start >= 0 {
			toks = append(toks, token{text: input[start:end], pos: start})
			start = -1
		}
	}
	for i, r := range input {
		switch {
		case r == '(' || r == ')':
			flush(i)
			toks = append(toks, token{text: string(r), pos: i})
		case unicode.IsSpace(r):
			flush(i)
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(input))
	return toks
}

// ReadSexp parses exactly one s-expression from input.
//
// Errors:
//   - empty input
//   - unbalanced parentheses
//   - empty list "()"
//   - a list whose head is itself a list
//   - trailing tokens after the expression
func ReadSexp(input string) (*Sexp, error) {
	toks := tokenize(input)
	if len(toks) == 0 {
		return nil, &ParseError{Input: input, Pos: 0, Message: "empty expression"}
	}

	r := &reader{input: input, toks: toks}
	s, err := r.read()
	if err != nil {
		return nil, err
	}
	if r.i < len(toks) {
		return nil, &ParseError{Input: input, Pos: toks[r.i].pos, Message: fmt.Sprintf("unexpected trailing %q", toks[r.i].text)}
	}
	return s, nil
}

type reader struct {
	input string
	toks  []token
	i     int
}

func (r *reader) read() (*Sexp, error) {
	if r.i >= len(r.toks) {
		return nil, &ParseError{Input: r.input, Pos: len(r.input), Message: "unexpected end of input"}
	}
	tok := r.toks[r.i]
	r.i++

	switch tok.text {
	case ")":
		return nil, &ParseError{Input: r.input, Pos: tok.pos, Message: "unexpected \")\""}
	case "(":
		list := &Sexp{Pos: tok.pos, List: []*Sexp{}}
		for {
			if r.i >= len(r.toks) {
				return nil, &ParseError{Input: r.input, Pos: tok.pos, Message: "unclosed \"(\""}
			}
			if r.toks[r.i].text == ")" {
				r.i++
				break
			}
			elem, err := r.read()
			if err != nil {
				return nil, err
			}
			list.List = append(list.List, elem)
		}
		if len(list.List) == 0 {
			return nil, &ParseError{Input: r.input, Pos: tok.pos, Message: "empty list"}
		}
		if !list.List[0].IsAtom() {
			return nil, &ParseError{Input: r.input, Pos: list.List[0].Pos, Message: "operator must be an atom"}
		}
		return list, nil
	default:
		return &Sexp{Atom: tok.text, Pos: tok.pos}, nil
	}
}

// Head returns the operator atom of a list, or the atom itself.
func (s *Sexp) Head() string {
	if s.IsAtom() {
		return s.Atom
	}
	return s.List[0].Atom
}

// Args returns the list elements after the head (nil for atoms).
func (s *Sexp) Args() []*Sexp {
	if s.IsAtom() {
		return nil
	}
	return s.List[1:]
}

// String prints the expression back in textual form.
func (s *Sexp) String() string {
	if s.IsAtom() {
		return s.Atom
	}
	parts := make([]string, len(s.List))
	for i, e := range s.List {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}
