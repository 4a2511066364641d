// Copyright 2025 Tapecost. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cost provides quadratic Gauss-Newton approximations of
// residual-based cost functionals for trajectory optimization.
//
// The intermediate (running) cost is L = ½‖f(t,x,u,p)‖² and the final cost
// is Φ = ½‖g(t,x,p)‖². The user supplies the residuals f and g as taped
// ad.Scalar computations; the engine derives values, gradients, and
// positive-semidefinite JᵀJ Hessian approximations automatically, and
// caches compiled derivative programs on disk.
//
// Example:
//
//	type myCost struct{}
//
//	func (myCost) Intermediate(t ad.Scalar, x, u, p []ad.Scalar) []ad.Scalar {
//	    return []ad.Scalar{x[0].Sub(u[0])}
//	}
//
//	engine, _ := cost.New(1, 1, myCost{})
//	if err := engine.Initialize("demo", "", true, false); err != nil {
//	    log.Fatal(err)
//	}
//	q, _ := engine.CostQuadraticApproximation(0, []float64{2}, []float64{1})
package cost

import (
	"github.com/rs/zerolog"

	"github.com/tapecost-ml/tapecost/internal/cost"
	"github.com/tapecost-ml/tapecost/internal/record"
)

// DefaultModelFolder is used when Initialize receives an empty folder.
const DefaultModelFolder = cost.DefaultModelFolder

// Engine derives quadratic Gauss-Newton cost approximations.
type Engine = cost.Engine

// Quadratic is the second-order local model of the intermediate cost.
type Quadratic = cost.Quadratic

// FinalQuadratic is the second-order local model of the final cost.
type FinalQuadratic = cost.FinalQuadratic

// Residual specifies the intermediate residual f.
type Residual = cost.Residual

// FinalResidual optionally adds a terminal residual g.
type FinalResidual = cost.FinalResidual

// ParameterProvider optionally supplies time-varying external parameters.
type ParameterProvider = cost.ParameterProvider

// QuadraticTracking is a ready-made trajectory-tracking residual.
type QuadraticTracking = cost.QuadraticTracking

// Reference supplies the desired (state, input) at a query time.
type Reference = cost.Reference

// Option configures an Engine at construction.
type Option = cost.Option

// DimensionError reports a state/input vector of the wrong size.
type DimensionError = cost.DimensionError

// ParameterCountError reports a provider whose parameter count drifted
// after initialization.
type ParameterCountError = cost.ParameterCountError

// ConstructionError reports a residual function that could not be taped.
type ConstructionError = record.ConstructionError

// LoadError reports an on-disk compiled model incompatible with the current
// residual specification; force recompilation to replace it.
type LoadError = record.LoadError

// Errors surfaced by the engine.
var (
	ErrNotInitialized     = cost.ErrNotInitialized
	ErrStaleApproximation = cost.ErrStaleApproximation
)

// New creates an engine for the given dimensions and residual specification.
func New(stateDim, inputDim int, spec Residual, opts ...Option) (*Engine, error) {
	return cost.New(stateDim, inputDim, spec, opts...)
}

// WithLogger wires a structured logger for compile/load progress.
func WithLogger(log zerolog.Logger) Option {
	return cost.WithLogger(log)
}
