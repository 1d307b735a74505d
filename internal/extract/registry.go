package extract

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// UnknownCostModelError is returned when a cost model name is not registered.
type UnknownCostModelError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownCostModelError) Error() string {
	return fmt.Sprintf("unknown cost model %q", e.Name)
}

// IsUnknownCostModelError returns true if the error is an UnknownCostModelError.
// Uses errors.As to handle wrapped errors.
func IsUnknownCostModelError(err error) bool {
	var ue *UnknownCostModelError
	return errors.As(err, &ue)
}

// Registry maps names to cost models. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]CostModel
}

// NewRegistry returns a registry holding the built-in models
// "ast-size" and "ast-depth".
func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]CostModel)}
	r.models[AstSizeName] = AstSize{}
	r.models[AstDepthName] = AstDepth{}
	return r
}

// Register adds m under its name, replacing any previous model.
func (r *Registry) Register(m CostModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.Name()] = m
}

// Lookup returns the model registered as name.
func (r *Registry) Lookup(name string) (CostModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	if !ok {
		return nil, &UnknownCostModelError{Name: name}
	}
	return m, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.models))
	for name := range r.models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var builtins = NewRegistry()

// Lookup resolves a built-in cost model name.
func Lookup(name string) (CostModel, error) {
	return builtins.Lookup(name)
}
