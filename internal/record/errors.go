package record

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrChecksumMismatch   = errors.New("checksum mismatch: artifact may be corrupted")
	ErrTruncatedPayload   = errors.New("payload shorter than header declares")
	ErrEmptyRecord        = errors.New("record has no compiled program")
)

// ConstructionError reports that a residual function could not be taped:
// it used scalars from a foreign tape, panicked on symbolic inputs, or
// returned an inconsistent output.
type ConstructionError struct {
	Name string // model or residual name, may be empty before Compile
	Err  error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("taping residual %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("taping residual: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConstructionError) Unwrap() error { return e.Err }

// LoadError reports that an on-disk artifact exists but is unusable for the
// current residual specification. The caller chooses the fallback policy,
// typically forcing recompilation; the loader never silently returns
// wrong-shaped data.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loading model %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("loading model %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }
