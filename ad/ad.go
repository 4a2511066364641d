// Copyright 2025 Tapecost. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ad provides scalar automatic differentiation over recorded tapes.
//
// Residual functions are written against Scalar values bound to a Tape.
// Recording the function once produces an immutable Program supporting fast
// repeated evaluation of values, Jacobians, and Jacobian-vector products.
//
// Example:
//
//	tape := ad.NewTape(2)
//	in := tape.Inputs()
//	y := in[0].Mul(in[1]).Sin()
//	prog, _ := tape.Program([]ad.Scalar{y})
//
//	ws := ad.NewWorkspace(prog)
//	val, _ := prog.Eval([]float64{1, 2}, ws)
package ad

import (
	"github.com/tapecost-ml/tapecost/internal/ad"
)

// Scalar is a handle to one tape node; arithmetic on it records operations.
type Scalar = ad.Scalar

// Tape records a scalar computation graph.
type Tape = ad.Tape

// Program is a frozen, evaluatable computation graph.
type Program = ad.Program

// Workspace holds per-evaluation buffers for one Program.
type Workspace = ad.Workspace

// NewTape creates a tape with numInputs independent input variables.
func NewTape(numInputs int) *Tape {
	return ad.NewTape(numInputs)
}

// NewWorkspace allocates evaluation buffers sized for p.
func NewWorkspace(p *Program) *Workspace {
	return ad.NewWorkspace(p)
}

// Dot records the inner product of a and b.
func Dot(a, b []Scalar) Scalar { return ad.Dot(a, b) }

// SquaredNorm records aᵀa.
func SquaredNorm(a []Scalar) Scalar { return ad.SquaredNorm(a) }

// Norm records the Euclidean norm of a.
func Norm(a []Scalar) Scalar { return ad.Norm(a) }

// AddVec records the element-wise sum of a and b.
func AddVec(a, b []Scalar) []Scalar { return ad.AddVec(a, b) }

// SubVec records the element-wise difference a - b.
func SubVec(a, b []Scalar) []Scalar { return ad.SubVec(a, b) }

// ScaleVec records c * a element-wise.
func ScaleVec(c float64, a []Scalar) []Scalar { return ad.ScaleVec(c, a) }
