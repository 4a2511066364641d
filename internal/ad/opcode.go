package ad

// Op identifies one elementary differentiable operation.
//
// Values are part of the persisted program format: existing codes must never
// be renumbered, new operations are appended at the end.
type Op uint8

const (
	OpInput Op = iota // independent variable, A = input index
	OpConst           // constant, value in K
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpSin
	OpCos
	OpTan
	OpAtan
	OpExp
	OpLog
	OpSqrt
	OpTanh
	OpPow // A^K for constant exponent K
)

// numOps is the number of defined opcodes; used to validate loaded programs.
const numOps = 16

// String returns the mnemonic for an opcode.
func (op Op) String() string {
	names := [...]string{
		"input", "const", "add", "sub", "mul", "div", "neg",
		"sin", "cos", "tan", "atan", "exp", "log", "sqrt", "tanh", "pow",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "invalid"
}

// Valid reports whether op is a defined opcode.
func (op Op) Valid() bool { return int(op) < numOps }

// arity returns the number of node operands the opcode reads.
func (op Op) arity() int {
	switch op {
	case OpInput, OpConst:
		return 0
	case OpAdd, OpSub, OpMul, OpDiv:
		return 2
	default:
		return 1
	}
}
