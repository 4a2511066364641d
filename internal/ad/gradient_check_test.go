package ad_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/tapecost-ml/tapecost/internal/ad"
)

// numericalPartial computes ∂f/∂x_j at x by central differences.
func numericalPartial(f func([]float64) float64, x []float64, j int, eps float64) float64 {
	hi := append([]float64(nil), x...)
	lo := append([]float64(nil), x...)
	hi[j] += eps
	lo[j] -= eps
	return (f(hi) - f(lo)) / (2 * eps)
}

// checkJacobian builds fn over n inputs and compares the reverse-mode
// Jacobian row against central differences at x.
func checkJacobian(t *testing.T, fn func(in []ad.Scalar) ad.Scalar, ref func([]float64) float64, x []float64) {
	t.Helper()
	tape := ad.NewTape(len(x))
	prog, err := tape.Program([]ad.Scalar{fn(tape.Inputs())})
	if err != nil {
		t.Fatalf("Program failed: %v", err)
	}
	ws := ad.NewWorkspace(prog)
	jac, err := prog.Jacobian(x, ws)
	if err != nil {
		t.Fatalf("Jacobian failed: %v", err)
	}
	for j := range x {
		got := jac.At(0, j)
		want := numericalPartial(ref, x, j, 1e-6)
		if math.Abs(got-want) > 1e-5*math.Max(1, math.Abs(want)) {
			t.Errorf("∂/∂x%d = %v, numerical %v", j, got, want)
		}
	}
}

func TestGradient_ElementaryOps(t *testing.T) {
	tests := []struct {
		name string
		fn   func(in []ad.Scalar) ad.Scalar
		ref  func(x []float64) float64
		x    []float64
	}{
		{
			"add",
			func(in []ad.Scalar) ad.Scalar { return in[0].Add(in[1]) },
			func(x []float64) float64 { return x[0] + x[1] },
			[]float64{1.3, -0.4},
		},
		{
			"mul",
			func(in []ad.Scalar) ad.Scalar { return in[0].Mul(in[1]) },
			func(x []float64) float64 { return x[0] * x[1] },
			[]float64{1.3, -0.4},
		},
		{
			"div",
			func(in []ad.Scalar) ad.Scalar { return in[0].Div(in[1]) },
			func(x []float64) float64 { return x[0] / x[1] },
			[]float64{1.3, 0.8},
		},
		{
			"sin",
			func(in []ad.Scalar) ad.Scalar { return in[0].Sin() },
			func(x []float64) float64 { return math.Sin(x[0]) },
			[]float64{0.9},
		},
		{
			"cos",
			func(in []ad.Scalar) ad.Scalar { return in[0].Cos() },
			func(x []float64) float64 { return math.Cos(x[0]) },
			[]float64{0.9},
		},
		{
			"tan",
			func(in []ad.Scalar) ad.Scalar { return in[0].Tan() },
			func(x []float64) float64 { return math.Tan(x[0]) },
			[]float64{0.4},
		},
		{
			"atan",
			func(in []ad.Scalar) ad.Scalar { return in[0].Atan() },
			func(x []float64) float64 { return math.Atan(x[0]) },
			[]float64{1.7},
		},
		{
			"exp",
			func(in []ad.Scalar) ad.Scalar { return in[0].Exp() },
			func(x []float64) float64 { return math.Exp(x[0]) },
			[]float64{0.5},
		},
		{
			"log",
			func(in []ad.Scalar) ad.Scalar { return in[0].Log() },
			func(x []float64) float64 { return math.Log(x[0]) },
			[]float64{1.7},
		},
		{
			"sqrt",
			func(in []ad.Scalar) ad.Scalar { return in[0].Sqrt() },
			func(x []float64) float64 { return math.Sqrt(x[0]) },
			[]float64{2.3},
		},
		{
			"tanh",
			func(in []ad.Scalar) ad.Scalar { return in[0].Tanh() },
			func(x []float64) float64 { return math.Tanh(x[0]) },
			[]float64{0.5},
		},
		{
			"pow",
			func(in []ad.Scalar) ad.Scalar { return in[0].Pow(2.5) },
			func(x []float64) float64 { return math.Pow(x[0], 2.5) },
			[]float64{1.4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkJacobian(t, tt.fn, tt.ref, tt.x)
		})
	}
}

func TestGradient_Composite(t *testing.T) {
	// f(x) = exp(sin(x0)*x1) + sqrt(x1)/x0 - tanh(x0*x1)
	fn := func(in []ad.Scalar) ad.Scalar {
		a := in[0].Sin().Mul(in[1]).Exp()
		b := in[1].Sqrt().Div(in[0])
		c := in[0].Mul(in[1]).Tanh()
		return a.Add(b).Sub(c)
	}
	ref := func(x []float64) float64 {
		return math.Exp(math.Sin(x[0])*x[1]) + math.Sqrt(x[1])/x[0] - math.Tanh(x[0]*x[1])
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		x := []float64{0.5 + rng.Float64(), 0.5 + rng.Float64()}
		checkJacobian(t, fn, ref, x)
	}
}

func TestGradient_FanOutAccumulates(t *testing.T) {
	// The same node feeds two consumers; adjoints must accumulate.
	fn := func(in []ad.Scalar) ad.Scalar {
		s := in[0].Sin()
		return s.Mul(s).Add(s)
	}
	ref := func(x []float64) float64 {
		s := math.Sin(x[0])
		return s*s + s
	}
	checkJacobian(t, fn, ref, []float64{0.8})
}

func TestJVP_MatchesJacobian(t *testing.T) {
	tape := ad.NewTape(3)
	in := tape.Inputs()
	prog, err := tape.Program([]ad.Scalar{
		in[0].Mul(in[1]).Sin(),
		in[2].Exp().Add(in[0]),
		ad.Norm(in),
	})
	if err != nil {
		t.Fatalf("Program failed: %v", err)
	}
	ws := ad.NewWorkspace(prog)

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 10; i++ {
		x := []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		dir := []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}

		jac, err := prog.Jacobian(x, ws)
		if err != nil {
			t.Fatalf("Jacobian failed: %v", err)
		}
		jvp, err := prog.JVP(x, dir, ws)
		if err != nil {
			t.Fatalf("JVP failed: %v", err)
		}
		for r := 0; r < 3; r++ {
			var want float64
			for c := 0; c < 3; c++ {
				want += jac.At(r, c) * dir[c]
			}
			if math.Abs(jvp[r]-want) > 1e-12*math.Max(1, math.Abs(want)) {
				t.Errorf("row %d: JVP %v, J·dir %v", r, jvp[r], want)
			}
		}
	}
}
