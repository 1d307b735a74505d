package egraph

import (
	"errors"
	"fmt"
)

// ArityError is returned when an operator is used with a different number of
// children than its first occurrence in the same graph.
type ArityError struct {
	Op   string
	Want int
	Got  int
}

// Error implements the error interface.
func (e *ArityError) Error() string {
	return fmt.Sprintf("operator %q used with %d children, previously %d", e.Op, e.Got, e.Want)
}

// IsArityError returns true if the error is an ArityError.
// Uses errors.As to handle wrapped errors.
func IsArityError(err error) bool {
	var ae *ArityError
	return errors.As(err, &ae)
}

// UnknownClassError is returned when a child id was never issued by the graph.
type UnknownClassError struct {
	ID ClassID
}

// Error implements the error interface.
func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("unknown class id %d", e.ID)
}
