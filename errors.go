package pfor

import "fmt"

// InvalidDependencyError is returned synchronously from For/ForRange/
// ForSlice when a Dependency's prior loop reference is empty or its point
// dimensionality disagrees with the current loop's.
type InvalidDependencyError struct {
	Reason string
}

func (e *InvalidDependencyError) Error() string {
	return fmt.Sprintf("pfor: invalid dependency: %s", e.Reason)
}

// BodyFailure is returned from LoopRef.Wait when one or more leaf bodies
// returned a non-nil error. This implementation joins every failure
// observed in the subtree instead of aborting the process on the first
// one; Unwrap gives access to the underlying joined error for
// errors.Is/errors.As.
type BodyFailure struct {
	Err error
}

func (e *BodyFailure) Error() string {
	return fmt.Sprintf("pfor: body failure: %v", e.Err)
}

func (e *BodyFailure) Unwrap() error {
	return e.Err
}

// EngineFailure is returned synchronously from For/ForRange/ForSlice when
// there is no Task Engine to submit the loop's work to, e.g. because
// SetEngine(nil) cleared the process-wide default.
type EngineFailure struct {
	Err error
}

func (e *EngineFailure) Error() string {
	return fmt.Sprintf("pfor: engine failure: %v", e.Err)
}

func (e *EngineFailure) Unwrap() error {
	return e.Err
}
