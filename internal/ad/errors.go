package ad

import "errors"

// Common errors.
var (
	ErrForeignScalar = errors.New("scalar is not bound to this tape")
	ErrShapeMismatch = errors.New("vector operands have different lengths")
	ErrPointSize     = errors.New("evaluation point size does not match program inputs")
	ErrBadProgram    = errors.New("program references undefined nodes or opcodes")
)
