package reconcile

import (
	"errors"
	"fmt"

	"catalog-sync/core/catalog"
)

// ErrDeclined matches every *DeclinedError.
var ErrDeclined = errors.New("operator declined")

// DeclinedError aborts a run when the operator refuses a gate. Nothing of the
// declined batch has been written.
type DeclinedError struct {
	Kind  catalog.Kind
	Stage Stage
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("%s: operator declined at %s %s", ErrDeclined, e.Stage, e.Kind)
}

func (e *DeclinedError) Is(target error) bool {
	return target == ErrDeclined
}

// InvariantError signals a state the engine cannot continue from, such as a grant that
// names an object the catalog does not know. It indicates a defect, not bad luck.
type InvariantError struct {
	Kind catalog.Kind
	Err  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s pass: %v", e.Kind, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// UnresolvedError is returned by descriptors when a referenced name has no catalog identity.
type UnresolvedError struct {
	Kind catalog.Kind
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s %q is not in the catalog", e.Kind, e.Name)
}
