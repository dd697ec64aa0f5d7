package store

import "fmt"

// OpError wraps a failed statement against the store. Every store
// failure is terminal for the current run: there are no retries.
type OpError struct {
	Op  string // e.g. "look up customer", "insert purchase"
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// RollbackError reports a failed rollback together with the failure that
// triggered it. Neither error hides the other.
type RollbackError struct {
	Cause       error
	RollbackErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("%v (additionally, rolling back the transaction failed: %v)",
		e.Cause, e.RollbackErr)
}

func (e *RollbackError) Unwrap() []error {
	return []error{e.Cause, e.RollbackErr}
}
