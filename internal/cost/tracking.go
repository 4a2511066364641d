package cost

import (
	"math"

	"github.com/tapecost-ml/tapecost/internal/ad"
)

// Reference supplies the desired state and input at a query time, e.g. by
// interpolating a planned trajectory.
type Reference func(t float64) (state, input []float64)

// QuadraticTracking is a ready-made residual for the common
// trajectory-tracking cost
//
//	L = ½ Σ wᵢ(xᵢ-xᵢ*)² + ½ Σ rᵢ(uᵢ-uᵢ*)²
//	Φ = ½ Σ vᵢ(xᵢ-xᵢ*)²
//
// expressed as the residual [√wᵢ(xᵢ-xᵢ*), √rᵢ(uᵢ-uᵢ*)]. The reference
// point enters as an external parameter vector, so the compiled model is
// reusable across changing target trajectories.
//
// StateWeights and InputWeights must have the engine's state and input
// dimensions. Leave FinalStateWeights nil for a zero terminal cost.
type QuadraticTracking struct {
	StateWeights      []float64
	InputWeights      []float64
	FinalStateWeights []float64
	Ref               Reference
}

// Intermediate returns [√w·(x-x*), √r·(u-u*)] with (x*,u*) taken from the
// parameter vector.
func (q *QuadraticTracking) Intermediate(_ ad.Scalar, x, u, p []ad.Scalar) []ad.Scalar {
	xRef, uRef := p[:len(x)], p[len(x):]
	out := make([]ad.Scalar, 0, len(x)+len(u))
	for i := range x {
		out = append(out, x[i].Sub(xRef[i]).Scale(math.Sqrt(q.StateWeights[i])))
	}
	for i := range u {
		out = append(out, u[i].Sub(uRef[i]).Scale(math.Sqrt(q.InputWeights[i])))
	}
	return out
}

// Final returns √v·(x-x*), or a single zero when no final weights are set.
func (q *QuadraticTracking) Final(t ad.Scalar, x, p []ad.Scalar) []ad.Scalar {
	if len(q.FinalStateWeights) == 0 {
		return []ad.Scalar{t.Const(0)}
	}
	out := make([]ad.Scalar, len(x))
	for i := range x {
		out[i] = x[i].Sub(p[i]).Scale(math.Sqrt(q.FinalStateWeights[i]))
	}
	return out
}

// IntermediateParameters returns the concatenated reference point [x*, u*].
func (q *QuadraticTracking) IntermediateParameters(t float64) []float64 {
	xRef, uRef := q.Ref(t)
	return append(append([]float64(nil), xRef...), uRef...)
}

// NumIntermediateParameters returns stateDim + inputDim.
func (q *QuadraticTracking) NumIntermediateParameters() int {
	return len(q.StateWeights) + len(q.InputWeights)
}

// FinalParameters returns the reference state x*, or nothing when the
// terminal cost is disabled.
func (q *QuadraticTracking) FinalParameters(t float64) []float64 {
	if len(q.FinalStateWeights) == 0 {
		return nil
	}
	xRef, _ := q.Ref(t)
	return append([]float64(nil), xRef...)
}

// NumFinalParameters returns stateDim, or zero when the terminal cost is
// disabled.
func (q *QuadraticTracking) NumFinalParameters() int {
	return len(q.FinalStateWeights)
}
