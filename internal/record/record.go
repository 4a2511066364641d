package record

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tapecost-ml/tapecost/internal/ad"
)

// Fn is a residual callback over the concatenated independent-variable
// vector. It must be a pure composition of ad.Scalar operations: no value
// branching, no scalars from another tape. It is called exactly once, at
// build time, with symbolic inputs.
type Fn func(in []ad.Scalar) []ad.Scalar

// FunctionRecord wraps one residual function as a build-once,
// evaluate-many differentiable program.
//
// The program is immutable after Build/Compile and may be shared between
// clones; the evaluation workspace is per-instance, so a FunctionRecord is
// not safe for concurrent use. Clone for concurrent evaluation.
type FunctionRecord struct {
	prog        *ad.Program
	ws          *ad.Workspace
	fingerprint string
}

// Build tapes fn over inputDim symbolic inputs and freezes the result.
// A panic inside fn (foreign scalars, unsupported constructs) is converted
// into a *ConstructionError. An empty output is legal and yields a
// degenerate record whose values and Jacobians are empty.
func Build(fn Fn, inputDim int) (rec *FunctionRecord, err error) {
	if fn == nil {
		return nil, &ConstructionError{Err: fmt.Errorf("nil residual function")}
	}
	if inputDim < 1 {
		return nil, &ConstructionError{Err: fmt.Errorf("input dimension %d < 1", inputDim)}
	}
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			if e, ok := r.(error); ok {
				err = &ConstructionError{Err: e}
			} else {
				err = &ConstructionError{Err: fmt.Errorf("%v", r)}
			}
		}
	}()

	tape := ad.NewTape(inputDim)
	out := fn(tape.Inputs())
	prog, perr := tape.Program(out)
	if perr != nil {
		return nil, &ConstructionError{Err: perr}
	}
	return &FunctionRecord{
		prog:        prog,
		ws:          ad.NewWorkspace(prog),
		fingerprint: Fingerprint(prog),
	}, nil
}

// InputDim returns the number of independent inputs.
func (r *FunctionRecord) InputDim() int { return r.prog.InputDim() }

// OutputDim returns the residual dimension. Zero is legal.
func (r *FunctionRecord) OutputDim() int { return r.prog.OutputDim() }

// Fingerprint returns the content hash of the taped computation.
func (r *FunctionRecord) Fingerprint() string { return r.fingerprint }

// Evaluate computes the residual vector at point. The returned slice is
// reused by the next Evaluate/Jacobian call on this record.
func (r *FunctionRecord) Evaluate(point []float64) ([]float64, error) {
	return r.prog.Eval(point, r.ws)
}

// Jacobian computes the full OutputDim×InputDim Jacobian at point.
// A degenerate (zero-output) record yields a nil matrix and no error.
func (r *FunctionRecord) Jacobian(point []float64) (*mat.Dense, error) {
	return r.prog.Jacobian(point, r.ws)
}

// JacobianBlock computes the Jacobian restricted to input columns
// [from, to), e.g. the ∂f/∂x or ∂f/∂u sub-block.
func (r *FunctionRecord) JacobianBlock(point []float64, from, to int) (*mat.Dense, error) {
	if from < 0 || to > r.prog.InputDim() || from >= to {
		return nil, fmt.Errorf("jacobian block [%d,%d) out of range for %d inputs", from, to, r.prog.InputDim())
	}
	full, err := r.prog.Jacobian(point, r.ws)
	if err != nil || full == nil {
		return nil, err
	}
	block := mat.NewDense(r.prog.OutputDim(), to-from, nil)
	block.Copy(full.Slice(0, r.prog.OutputDim(), from, to))
	return block, nil
}

// JacobianVectorProduct computes J·dir at point with a single forward
// tangent sweep.
func (r *FunctionRecord) JacobianVectorProduct(point, dir []float64) ([]float64, error) {
	return r.prog.JVP(point, dir, r.ws)
}

// Clone returns a record sharing the immutable compiled program but owning
// a fresh evaluation workspace.
func (r *FunctionRecord) Clone() *FunctionRecord {
	return &FunctionRecord{
		prog:        r.prog,
		ws:          ad.NewWorkspace(r.prog),
		fingerprint: r.fingerprint,
	}
}
