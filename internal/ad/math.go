package ad

// Transcendental operations. Each records a single node; derivatives are
// applied during the reverse sweep in program.go.

// Sin records sin(s).
func (s Scalar) Sin() Scalar { return s.unary(OpSin) }

// Cos records cos(s).
func (s Scalar) Cos() Scalar { return s.unary(OpCos) }

// Tan records tan(s).
func (s Scalar) Tan() Scalar { return s.unary(OpTan) }

// Atan records atan(s).
func (s Scalar) Atan() Scalar { return s.unary(OpAtan) }

// Exp records e^s.
func (s Scalar) Exp() Scalar { return s.unary(OpExp) }

// Log records the natural logarithm of s. Input values must be positive at
// evaluation time; non-positive values produce NaN/Inf, which propagate.
func (s Scalar) Log() Scalar { return s.unary(OpLog) }

// Sqrt records the square root of s.
func (s Scalar) Sqrt() Scalar { return s.unary(OpSqrt) }

// Tanh records the hyperbolic tangent of s.
func (s Scalar) Tanh() Scalar { return s.unary(OpTanh) }

// Pow records s^k for a constant exponent k.
func (s Scalar) Pow(k float64) Scalar {
	if s.tape == nil {
		panic(ErrForeignScalar)
	}
	return s.tape.push(node{op: OpPow, a: s.idx, k: k})
}

// Square records s*s.
func (s Scalar) Square() Scalar { return s.Mul(s) }
