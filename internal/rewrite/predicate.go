package rewrite

import (
	"fmt"
	"sync"
)

// Predicate is an externally supplied side condition over a match.
type Predicate interface {
	Eval(b Bindings) (bool, error)
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(b Bindings) (bool, error)

// Eval implements Predicate.
func (f PredicateFunc) Eval(b Bindings) (bool, error) {
	return f(b)
}

// serialized guards a predicate with a mutex so that concurrent runs
// sharing one rule set never call into it at the same time.
type serialized struct {
	mu   sync.Mutex
	pred Predicate
}

// Serialize wraps p so that calls to Eval never overlap.
// Wrapping an already serialized predicate returns it unchanged.
func Serialize(p Predicate) Predicate {
	if s, ok := p.(*serialized); ok {
		return s
	}
	return &serialized{pred: p}
}

// Eval implements Predicate. A panic inside the wrapped predicate is
// returned as an error.
func (s *serialized) Eval(b Bindings) (ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("predicate panicked: %v", r)
		}
	}()
	return s.pred.Eval(b)
}
