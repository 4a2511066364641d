package cost

import "gonum.org/v1/gonum/mat"

// Quadratic is the second-order local model of the intermediate cost at one
// query point:
//
//	L(x+δx, u+δu) ≈ Value + GradXᵀδx + GradUᵀδu
//	              + ½ δxᵀHessXX δx + ½ δuᵀHessUU δu + δuᵀHessUX δx
//
// The Hessian blocks are the Gauss-Newton approximation JᵀJ, which is a
// Gram matrix and therefore positive semidefinite for any Jacobian J.
type Quadratic struct {
	Value  float64
	GradX  *mat.VecDense // ∂L/∂x, stateDim
	GradU  *mat.VecDense // ∂L/∂u, inputDim
	HessXX *mat.Dense    // stateDim × stateDim
	HessUU *mat.Dense    // inputDim × inputDim
	HessUX *mat.Dense    // inputDim × stateDim
}

// FinalQuadratic is the second-order local model of the final cost, which
// has no control dependence.
type FinalQuadratic struct {
	Value  float64
	GradX  *mat.VecDense // ∂Φ/∂x, stateDim
	HessXX *mat.Dense    // stateDim × stateDim
}

// zeroQuadratic returns an all-zero model, used for degenerate
// (zero-dimensional) residuals.
func zeroQuadratic(stateDim, inputDim int) Quadratic {
	return Quadratic{
		GradX:  mat.NewVecDense(stateDim, nil),
		GradU:  mat.NewVecDense(inputDim, nil),
		HessXX: mat.NewDense(stateDim, stateDim, nil),
		HessUU: mat.NewDense(inputDim, inputDim, nil),
		HessUX: mat.NewDense(inputDim, stateDim, nil),
	}
}

func zeroFinalQuadratic(stateDim int) FinalQuadratic {
	return FinalQuadratic{
		GradX:  mat.NewVecDense(stateDim, nil),
		HessXX: mat.NewDense(stateDim, stateDim, nil),
	}
}
