package ad

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Node is one frozen tape operation. Fields are exported for persistence.
type Node struct {
	Op   Op
	A, B int32
	K    float64
}

// Program is an immutable, topologically ordered computation graph produced
// by Tape.Program. A Program is safe for concurrent use as long as every
// goroutine evaluates through its own Workspace.
type Program struct {
	NumIn int     // number of independent inputs
	Nodes []Node  // operations, inputs first
	Out   []int32 // node indices of the outputs
}

// InputDim returns the number of independent inputs.
func (p *Program) InputDim() int { return p.NumIn }

// OutputDim returns the number of outputs.
func (p *Program) OutputDim() int { return len(p.Out) }

// Validate checks structural integrity: every operand references an earlier
// node, the first NumIn nodes are the inputs in order, opcodes are defined,
// and outputs are in range. Loaded programs must pass Validate before use.
func (p *Program) Validate() error {
	if p.NumIn < 0 || p.NumIn > len(p.Nodes) {
		return ErrBadProgram
	}
	for i, n := range p.Nodes {
		if !n.Op.Valid() {
			return ErrBadProgram
		}
		if i < p.NumIn {
			if n.Op != OpInput || n.A != int32(i) {
				return ErrBadProgram
			}
			continue
		}
		switch n.Op.arity() {
		case 2:
			if n.B < 0 || n.B >= int32(i) {
				return ErrBadProgram
			}
			fallthrough
		case 1:
			if n.A < 0 || n.A >= int32(i) {
				return ErrBadProgram
			}
		case 0:
			if n.Op == OpInput && (n.A < 0 || n.A >= int32(p.NumIn)) {
				return ErrBadProgram
			}
		}
	}
	for _, o := range p.Out {
		if o < 0 || o >= int32(len(p.Nodes)) {
			return ErrBadProgram
		}
	}
	return nil
}

// Workspace holds the per-evaluation buffers of one Program. Workspaces are
// not safe for concurrent use; clone the workspace, not the program.
type Workspace struct {
	vals []float64 // forward values per node
	adj  []float64 // reverse-sweep adjoints per node
	tan  []float64 // forward-mode tangents per node
	out  []float64 // gathered output values
}

// NewWorkspace allocates evaluation buffers sized for p.
func NewWorkspace(p *Program) *Workspace {
	return &Workspace{
		vals: make([]float64, len(p.Nodes)),
		adj:  make([]float64, len(p.Nodes)),
		tan:  make([]float64, len(p.Nodes)),
		out:  make([]float64, len(p.Out)),
	}
}

// forward runs the value sweep, filling ws.vals.
func (p *Program) forward(point []float64, ws *Workspace) error {
	if len(point) != p.NumIn {
		return ErrPointSize
	}
	w := ws.vals
	for i, n := range p.Nodes {
		switch n.Op {
		case OpInput:
			w[i] = point[n.A]
		case OpConst:
			w[i] = n.K
		case OpAdd:
			w[i] = w[n.A] + w[n.B]
		case OpSub:
			w[i] = w[n.A] - w[n.B]
		case OpMul:
			w[i] = w[n.A] * w[n.B]
		case OpDiv:
			w[i] = w[n.A] / w[n.B]
		case OpNeg:
			w[i] = -w[n.A]
		case OpSin:
			w[i] = math.Sin(w[n.A])
		case OpCos:
			w[i] = math.Cos(w[n.A])
		case OpTan:
			w[i] = math.Tan(w[n.A])
		case OpAtan:
			w[i] = math.Atan(w[n.A])
		case OpExp:
			w[i] = math.Exp(w[n.A])
		case OpLog:
			w[i] = math.Log(w[n.A])
		case OpSqrt:
			w[i] = math.Sqrt(w[n.A])
		case OpTanh:
			w[i] = math.Tanh(w[n.A])
		case OpPow:
			w[i] = math.Pow(w[n.A], n.K)
		}
	}
	return nil
}

// Eval computes the output vector at point. The returned slice is backed by
// ws and is overwritten by the next call.
func (p *Program) Eval(point []float64, ws *Workspace) ([]float64, error) {
	if err := p.forward(point, ws); err != nil {
		return nil, err
	}
	for k, o := range p.Out {
		ws.out[k] = ws.vals[o]
	}
	return ws.out, nil
}

// Jacobian computes the full m×n Jacobian ∂out/∂point by one forward sweep
// followed by one reverse sweep per output row. Returns nil for a
// zero-output program.
func (p *Program) Jacobian(point []float64, ws *Workspace) (*mat.Dense, error) {
	if len(p.Out) == 0 {
		if len(point) != p.NumIn {
			return nil, ErrPointSize
		}
		return nil, nil
	}
	if err := p.forward(point, ws); err != nil {
		return nil, err
	}
	jac := mat.NewDense(len(p.Out), p.NumIn, nil)
	for r := range p.Out {
		p.reverse(r, ws)
		jac.SetRow(r, ws.adj[:p.NumIn])
	}
	return jac, nil
}

// reverse accumulates adjoints for output row r into ws.adj. Requires a
// prior forward sweep in ws.vals. Input nodes come first on the tape, so
// after the sweep ws.adj[:NumIn] is the Jacobian row.
func (p *Program) reverse(r int, ws *Workspace) {
	w, adj := ws.vals, ws.adj
	for i := range adj {
		adj[i] = 0
	}
	adj[p.Out[r]] += 1
	for i := len(p.Nodes) - 1; i >= p.NumIn; i-- {
		g := adj[i]
		if g == 0 {
			continue
		}
		n := p.Nodes[i]
		switch n.Op {
		case OpConst:
		case OpInput:
			// Input nodes past the prefix only appear in hand-built
			// programs; fold their adjoint onto the canonical slot.
			adj[n.A] += g
		case OpAdd:
			adj[n.A] += g
			adj[n.B] += g
		case OpSub:
			adj[n.A] += g
			adj[n.B] -= g
		case OpMul:
			adj[n.A] += g * w[n.B]
			adj[n.B] += g * w[n.A]
		case OpDiv:
			adj[n.A] += g / w[n.B]
			adj[n.B] -= g * w[n.A] / (w[n.B] * w[n.B])
		case OpNeg:
			adj[n.A] -= g
		case OpSin:
			adj[n.A] += g * math.Cos(w[n.A])
		case OpCos:
			adj[n.A] -= g * math.Sin(w[n.A])
		case OpTan:
			adj[n.A] += g * (1 + w[i]*w[i])
		case OpAtan:
			adj[n.A] += g / (1 + w[n.A]*w[n.A])
		case OpExp:
			adj[n.A] += g * w[i]
		case OpLog:
			adj[n.A] += g / w[n.A]
		case OpSqrt:
			adj[n.A] += g / (2 * w[i])
		case OpTanh:
			adj[n.A] += g * (1 - w[i]*w[i])
		case OpPow:
			adj[n.A] += g * n.K * math.Pow(w[n.A], n.K-1)
		}
	}
}

// JVP computes the Jacobian-vector product J·dir by a single forward
// tangent sweep, without forming the Jacobian.
func (p *Program) JVP(point, dir []float64, ws *Workspace) ([]float64, error) {
	if len(dir) != p.NumIn {
		return nil, ErrPointSize
	}
	if err := p.forward(point, ws); err != nil {
		return nil, err
	}
	w, d := ws.vals, ws.tan
	for i, n := range p.Nodes {
		switch n.Op {
		case OpInput:
			d[i] = dir[n.A]
		case OpConst:
			d[i] = 0
		case OpAdd:
			d[i] = d[n.A] + d[n.B]
		case OpSub:
			d[i] = d[n.A] - d[n.B]
		case OpMul:
			d[i] = d[n.A]*w[n.B] + w[n.A]*d[n.B]
		case OpDiv:
			d[i] = (d[n.A] - w[i]*d[n.B]) / w[n.B]
		case OpNeg:
			d[i] = -d[n.A]
		case OpSin:
			d[i] = d[n.A] * math.Cos(w[n.A])
		case OpCos:
			d[i] = -d[n.A] * math.Sin(w[n.A])
		case OpTan:
			d[i] = d[n.A] * (1 + w[i]*w[i])
		case OpAtan:
			d[i] = d[n.A] / (1 + w[n.A]*w[n.A])
		case OpExp:
			d[i] = d[n.A] * w[i]
		case OpLog:
			d[i] = d[n.A] / w[n.A]
		case OpSqrt:
			d[i] = d[n.A] / (2 * w[i])
		case OpTanh:
			d[i] = d[n.A] * (1 - w[i]*w[i])
		case OpPow:
			d[i] = d[n.A] * n.K * math.Pow(w[n.A], n.K-1)
		}
	}
	out := make([]float64, len(p.Out))
	for k, o := range p.Out {
		out[k] = d[o]
	}
	return out, nil
}
