package cost

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotInitialized = errors.New("engine not initialized: call Initialize first")

	// ErrStaleApproximation is returned by the time-derivative accessors
	// when the queried point does not match the cached quadratic
	// approximation. The cached Jacobian is only valid at the exact point
	// it was computed for; reusing it elsewhere would silently return
	// wrong derivatives.
	ErrStaleApproximation = errors.New("no cached quadratic approximation at this point")
)

// DimensionError reports a state/input vector whose size does not match the
// dimensions fixed at construction.
type DimensionError struct {
	What string
	Want int
	Got  int
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s dimension is %d, engine was constructed for %d", e.What, e.Got, e.Want)
}

// ParameterCountError reports a parameter provider returning a vector whose
// length disagrees with the count the models were compiled for.
type ParameterCountError struct {
	Kind string // "intermediate" or "final"
	Want int
	Got  int
}

// Error implements the error interface.
func (e *ParameterCountError) Error() string {
	return fmt.Sprintf("%s parameter count changed after initialization: compiled for %d, provider returned %d (recompile required)",
		e.Kind, e.Want, e.Got)
}
