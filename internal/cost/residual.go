// Package cost implements the quadratic Gauss-Newton cost engine.
//
// A cost term is specified as a vector residual: the intermediate (running)
// cost is L = ½‖f(t,x,u,p)‖² and the final cost is Φ = ½‖g(t,x,p)‖². The
// user supplies only the residual functions; the engine tapes them once,
// derives value, gradient, and a Gauss-Newton Hessian JᵀJ automatically,
// and caches compiled derivative programs on disk for reuse.
package cost

import "github.com/tapecost-ml/tapecost/internal/ad"

// Residual is the one required capability of a cost specification: the
// intermediate residual f such that L = ½ fᵀf. It is recorded once with
// symbolic inputs, so it must be a closed-form composition of ad.Scalar
// operations.
type Residual interface {
	// Intermediate returns f(t,x,u,p). The output length must not depend
	// on the input values.
	Intermediate(t ad.Scalar, x, u, p []ad.Scalar) []ad.Scalar
}

// FinalResidual is optionally implemented by a Residual that carries a
// terminal cost term g such that Φ = ½ gᵀg. Without it the final cost is
// identically zero.
type FinalResidual interface {
	// Final returns g(t,x,p).
	Final(t ad.Scalar, x, p []ad.Scalar) []ad.Scalar
}

// ParameterProvider is optionally implemented by a Residual whose residuals
// take external parameter vectors (reference trajectories, gains) that vary
// with time. The counts must stay constant for the lifetime of one compiled
// model; a changed count is rejected at evaluation time.
type ParameterProvider interface {
	IntermediateParameters(t float64) []float64
	NumIntermediateParameters() int
	FinalParameters(t float64) []float64
	NumFinalParameters() int
}

// zeroFinal is the default terminal term: a single zero residual, making
// Φ, its gradient, and its Hessian exactly zero.
type zeroFinal struct{}

func (zeroFinal) Final(t ad.Scalar, _, _ []ad.Scalar) []ad.Scalar {
	return []ad.Scalar{t.Const(0)}
}

// noParameters is the default provider: empty parameter vectors.
type noParameters struct{}

func (noParameters) IntermediateParameters(float64) []float64 { return nil }
func (noParameters) NumIntermediateParameters() int           { return 0 }
func (noParameters) FinalParameters(float64) []float64        { return nil }
func (noParameters) NumFinalParameters() int                  { return 0 }
