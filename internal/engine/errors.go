package engine

import "fmt"

// InvariantError reports an internal inconsistency of the scheduler, such as
// an unknown supervision deactivation strategy. It bypasses escalation and
// forces the process to complete.
type InvariantError struct {
	Op  string
	Err error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated during %s: %v", e.Op, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}
