package ir

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Symbol is an interned operator name.
//
// Two symbols compare equal iff their NFC-normalized spellings are equal, so
// "é" typed as one code point and as "e" + combining accent are one operator.
type Symbol string

// symbols is the process-wide intern table. Runs on separate goroutines share
// it, so access goes through sync.Map.
var symbols sync.Map // map[string]Symbol

// Intern returns the canonical Symbol for name.
func Intern(name string) Symbol {
	if s, ok := symbols.Load(name); ok {
		return s.(Symbol)
	}
	normalized := Symbol(norm.NFC.String(name))
	actual, _ := symbols.LoadOrStore(name, normalized)
	return actual.(Symbol)
}

// String returns the symbol spelling.
func (s Symbol) String() string {
	return string(s)
}
