// Package ad implements scalar automatic differentiation over a recorded
// expression tape.
//
// A residual function is recorded once by calling it with symbolic Scalar
// inputs bound to a Tape. Every elementary operation appends a node to the
// tape, producing a topologically ordered computation graph. The graph is
// then frozen into a Program, which supports repeated fast evaluation of
// values, Jacobians (reverse sweeps), and Jacobian-vector products (forward
// tangent sweeps) at arbitrary points.
//
// Usage:
//
//	tape := ad.NewTape(2)
//	in := tape.Inputs()
//	y := in[0].Mul(in[1]).Sin()
//	prog, err := tape.Program([]ad.Scalar{y})
package ad

// node is one recorded operation. The first NumInputs nodes of a tape are
// always the independent inputs, in order.
type node struct {
	op   Op
	a, b int32
	k    float64 // constant value or Pow exponent
}

// Tape records a scalar computation graph.
//
// A Tape is write-only during recording and is discarded once Program has
// been called. It is not safe for concurrent use.
type Tape struct {
	nodes     []node
	numInputs int
}

// NewTape creates a tape with numInputs independent input variables.
func NewTape(numInputs int) *Tape {
	t := &Tape{
		nodes:     make([]node, 0, numInputs+64),
		numInputs: numInputs,
	}
	for i := 0; i < numInputs; i++ {
		t.nodes = append(t.nodes, node{op: OpInput, a: int32(i)})
	}
	return t
}

// NumInputs returns the number of independent input variables.
func (t *Tape) NumInputs() int { return t.numInputs }

// Inputs returns the symbolic input variables, in declaration order.
func (t *Tape) Inputs() []Scalar {
	in := make([]Scalar, t.numInputs)
	for i := range in {
		in[i] = Scalar{tape: t, idx: int32(i)}
	}
	return in
}

// Const records a constant value on the tape.
func (t *Tape) Const(v float64) Scalar {
	return t.push(node{op: OpConst, k: v})
}

// push appends a node and returns its handle.
func (t *Tape) push(n node) Scalar {
	t.nodes = append(t.nodes, n)
	return Scalar{tape: t, idx: int32(len(t.nodes) - 1)}
}

// Program freezes the tape into an immutable evaluation program with the
// given output variables. Returns ErrForeignScalar if an output was not
// recorded on this tape.
func (t *Tape) Program(outputs []Scalar) (*Program, error) {
	outIdx := make([]int32, len(outputs))
	for i, s := range outputs {
		if s.tape != t {
			return nil, ErrForeignScalar
		}
		outIdx[i] = s.idx
	}
	nodes := make([]Node, len(t.nodes))
	for i, n := range t.nodes {
		nodes[i] = Node{Op: n.op, A: n.a, B: n.b, K: n.k}
	}
	return &Program{
		NumIn: t.numInputs,
		Nodes: nodes,
		Out:   outIdx,
	}, nil
}

// Scalar is a handle to one tape node. Scalars are value types; arithmetic
// on them records new nodes on the owning tape.
type Scalar struct {
	tape *Tape
	idx  int32
}

// binary records a two-operand node, panicking with ErrForeignScalar if the
// operands live on different tapes. The panic is converted into a
// construction error by the recording layer.
func (s Scalar) binary(op Op, o Scalar) Scalar {
	if s.tape == nil || s.tape != o.tape {
		panic(ErrForeignScalar)
	}
	return s.tape.push(node{op: op, a: s.idx, b: o.idx})
}

func (s Scalar) unary(op Op) Scalar {
	if s.tape == nil {
		panic(ErrForeignScalar)
	}
	return s.tape.push(node{op: op, a: s.idx})
}

// Add records s + o.
func (s Scalar) Add(o Scalar) Scalar { return s.binary(OpAdd, o) }

// Sub records s - o.
func (s Scalar) Sub(o Scalar) Scalar { return s.binary(OpSub, o) }

// Mul records s * o.
func (s Scalar) Mul(o Scalar) Scalar { return s.binary(OpMul, o) }

// Div records s / o.
func (s Scalar) Div(o Scalar) Scalar { return s.binary(OpDiv, o) }

// Neg records -s.
func (s Scalar) Neg() Scalar { return s.unary(OpNeg) }

// AddConst records s + c.
func (s Scalar) AddConst(c float64) Scalar { return s.Add(s.tape.Const(c)) }

// SubConst records s - c.
func (s Scalar) SubConst(c float64) Scalar { return s.Sub(s.tape.Const(c)) }

// Scale records c * s.
func (s Scalar) Scale(c float64) Scalar { return s.Mul(s.tape.Const(c)) }

// Const records a constant on the scalar's tape. Handy inside residual
// functions, which receive Scalars but not the Tape itself.
func (s Scalar) Const(v float64) Scalar {
	if s.tape == nil {
		panic(ErrForeignScalar)
	}
	return s.tape.Const(v)
}
