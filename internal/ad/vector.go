package ad

// Vector helpers over slices of Scalar. These are conveniences for writing
// residual functions; they record the same elementary nodes as the scalar
// methods.

// Dot records the inner product of a and b. Panics if the lengths differ.
func Dot(a, b []Scalar) Scalar {
	if len(a) != len(b) {
		panic(ErrShapeMismatch)
	}
	acc := a[0].Mul(b[0])
	for i := 1; i < len(a); i++ {
		acc = acc.Add(a[i].Mul(b[i]))
	}
	return acc
}

// SquaredNorm records aᵀa.
func SquaredNorm(a []Scalar) Scalar { return Dot(a, a) }

// Norm records the Euclidean norm of a.
func Norm(a []Scalar) Scalar { return SquaredNorm(a).Sqrt() }

// AddVec records the element-wise sum of a and b.
func AddVec(a, b []Scalar) []Scalar {
	if len(a) != len(b) {
		panic(ErrShapeMismatch)
	}
	out := make([]Scalar, len(a))
	for i := range a {
		out[i] = a[i].Add(b[i])
	}
	return out
}

// SubVec records the element-wise difference a - b.
func SubVec(a, b []Scalar) []Scalar {
	if len(a) != len(b) {
		panic(ErrShapeMismatch)
	}
	out := make([]Scalar, len(a))
	for i := range a {
		out[i] = a[i].Sub(b[i])
	}
	return out
}

// ScaleVec records c * a element-wise.
func ScaleVec(c float64, a []Scalar) []Scalar {
	out := make([]Scalar, len(a))
	for i := range a {
		out[i] = a[i].Scale(c)
	}
	return out
}
