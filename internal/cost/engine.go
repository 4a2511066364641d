package cost

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/tapecost-ml/tapecost/internal/ad"
	"github.com/tapecost-ml/tapecost/internal/record"
)

// DefaultModelFolder is where compiled models land when Initialize is
// called with an empty folder.
const DefaultModelFolder = "/tmp/tapecost"

// Artifact name suffixes per residual kind.
const (
	intermediateSuffix = "_intermediate"
	finalSuffix        = "_final"
)

// Engine derives quadratic Gauss-Newton approximations of a residual-based
// cost. It owns two function records (intermediate and final), manages
// their build/compile/load lifecycle, and keeps a per-instance evaluation
// cache for the time-derivative accessors.
//
// An Engine is single-threaded: the evaluation cache and tape workspaces
// are mutable per-call state. Run concurrent evaluations on Clones, and
// give concurrently initialized engines distinct model names or folders —
// two engines racing to compile the same artifact is unsafe.
type Engine struct {
	stateDim int
	inputDim int

	spec      Residual
	finalSpec FinalResidual
	params    ParameterProvider

	interModel *record.FunctionRecord
	finalModel *record.FunctionRecord

	// Parameter counts the models were compiled for. Providers whose
	// counts drift afterwards are rejected at evaluation time.
	numInterParams int
	numFinalParams int

	interCache evaluationCache
	finalCache evaluationCache

	log         zerolog.Logger
	initialized bool
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger wires a structured logger for compile/load progress. Without
// it the engine is silent regardless of the verbose flag.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine for the given dimensions and residual
// specification. The specification's optional capabilities (FinalResidual,
// ParameterProvider) are discovered here; absent ones fall back to a zero
// final cost and empty parameters.
func New(stateDim, inputDim int, spec Residual, opts ...Option) (*Engine, error) {
	if spec == nil {
		return nil, fmt.Errorf("nil residual specification")
	}
	if stateDim < 1 {
		return nil, &DimensionError{What: "state", Want: 1, Got: stateDim}
	}
	if inputDim < 1 {
		return nil, &DimensionError{What: "input", Want: 1, Got: inputDim}
	}
	e := &Engine{
		stateDim:  stateDim,
		inputDim:  inputDim,
		spec:      spec,
		finalSpec: zeroFinal{},
		params:    noParameters{},
		log:       zerolog.Nop(),
	}
	if fr, ok := spec.(FinalResidual); ok {
		e.finalSpec = fr
	}
	if pp, ok := spec.(ParameterProvider); ok {
		e.params = pp
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StateDim returns the state dimension fixed at construction.
func (e *Engine) StateDim() int { return e.stateDim }

// InputDim returns the control dimension fixed at construction.
func (e *Engine) InputDim() int { return e.inputDim }

// Initialize tapes both residual functions and compiles or loads their
// models under modelFolder/modelName{_intermediate,_final}. It must be
// called before any evaluation. With recompileLibraries false an existing
// compatible artifact is reused; an incompatible one yields a
// *record.LoadError, leaving the fallback policy (fail fast or force
// recompilation) to the caller.
//
// The two models are built and compiled concurrently; the call itself is
// synchronous and includes all filesystem I/O.
func (e *Engine) Initialize(modelName, modelFolder string, recompileLibraries, verbose bool) error {
	if modelFolder == "" {
		modelFolder = DefaultModelFolder
	}
	numInter := e.params.NumIntermediateParameters()
	numFinal := e.params.NumFinalParameters()
	n, m := e.stateDim, e.inputDim

	var interModel, finalModel *record.FunctionRecord
	g := new(errgroup.Group)
	g.Go(func() error {
		rec, err := record.Build(func(in []ad.Scalar) []ad.Scalar {
			return e.spec.Intermediate(in[0], in[1:1+n], in[1+n:1+n+m], in[1+n+m:])
		}, 1+n+m+numInter)
		if err != nil {
			return err
		}
		if err := rec.Compile(record.CompileOptions{
			Name:           modelName + intermediateSuffix,
			Folder:         modelFolder,
			ForceRecompile: recompileLibraries,
			Verbose:        verbose,
			Log:            e.log,
		}); err != nil {
			return err
		}
		interModel = rec
		return nil
	})
	g.Go(func() error {
		rec, err := record.Build(func(in []ad.Scalar) []ad.Scalar {
			return e.finalSpec.Final(in[0], in[1:1+n], in[1+n:])
		}, 1+n+numFinal)
		if err != nil {
			return err
		}
		if err := rec.Compile(record.CompileOptions{
			Name:           modelName + finalSuffix,
			Folder:         modelFolder,
			ForceRecompile: recompileLibraries,
			Verbose:        verbose,
			Log:            e.log,
		}); err != nil {
			return err
		}
		finalModel = rec
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	e.interModel = interModel
	e.finalModel = finalModel
	e.numInterParams = numInter
	e.numFinalParams = numFinal
	e.interCache.reset()
	e.finalCache.reset()
	e.initialized = true
	return nil
}

// intermediatePoint assembles [t, x, u, p] and validates every dimension.
func (e *Engine) intermediatePoint(t float64, x, u []float64) ([]float64, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	if len(x) != e.stateDim {
		return nil, &DimensionError{What: "state", Want: e.stateDim, Got: len(x)}
	}
	if len(u) != e.inputDim {
		return nil, &DimensionError{What: "input", Want: e.inputDim, Got: len(u)}
	}
	p := e.params.IntermediateParameters(t)
	if len(p) != e.numInterParams {
		return nil, &ParameterCountError{Kind: "intermediate", Want: e.numInterParams, Got: len(p)}
	}
	pt := make([]float64, 0, 1+len(x)+len(u)+len(p))
	pt = append(pt, t)
	pt = append(pt, x...)
	pt = append(pt, u...)
	pt = append(pt, p...)
	return pt, nil
}

// finalPoint assembles [t, x, p] and validates every dimension.
func (e *Engine) finalPoint(t float64, x []float64) ([]float64, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	if len(x) != e.stateDim {
		return nil, &DimensionError{What: "state", Want: e.stateDim, Got: len(x)}
	}
	p := e.params.FinalParameters(t)
	if len(p) != e.numFinalParams {
		return nil, &ParameterCountError{Kind: "final", Want: e.numFinalParams, Got: len(p)}
	}
	pt := make([]float64, 0, 1+len(x)+len(p))
	pt = append(pt, t)
	pt = append(pt, x...)
	pt = append(pt, p...)
	return pt, nil
}

// Cost evaluates L = ½‖f(t,x,u,p)‖². Pure: no caching.
func (e *Engine) Cost(t float64, x, u []float64) (float64, error) {
	pt, err := e.intermediatePoint(t, x, u)
	if err != nil {
		return 0, err
	}
	f, err := e.interModel.Evaluate(pt)
	if err != nil {
		return 0, err
	}
	return halfSquaredNorm(f), nil
}

// FinalCost evaluates Φ = ½‖g(t,x,p)‖². Pure: no caching.
func (e *Engine) FinalCost(t float64, x []float64) (float64, error) {
	pt, err := e.finalPoint(t, x)
	if err != nil {
		return 0, err
	}
	g, err := e.finalModel.Evaluate(pt)
	if err != nil {
		return 0, err
	}
	return halfSquaredNorm(g), nil
}

// CostQuadraticApproximation computes the Gauss-Newton quadratic model of
// the intermediate cost at (t,x,u) and caches the point and Jacobian for a
// subsequent CostDerivativeTime call at the same point.
func (e *Engine) CostQuadraticApproximation(t float64, x, u []float64) (Quadratic, error) {
	pt, err := e.intermediatePoint(t, x, u)
	if err != nil {
		return Quadratic{}, err
	}
	f, err := e.interModel.Evaluate(pt)
	if err != nil {
		return Quadratic{}, err
	}
	f = append([]float64(nil), f...) // detach from the record's buffer

	q := zeroQuadratic(e.stateDim, e.inputDim)
	q.Value = halfSquaredNorm(f)
	if len(f) == 0 {
		e.interCache.store(t, x, u, nil, nil)
		return q, nil
	}

	jac, err := e.interModel.Jacobian(pt)
	if err != nil {
		return Quadratic{}, err
	}
	n, m := e.stateDim, e.inputDim
	fv := mat.NewVecDense(len(f), f)
	jx := jac.Slice(0, len(f), 1, 1+n)
	ju := jac.Slice(0, len(f), 1+n, 1+n+m)

	q.GradX.MulVec(jx.T(), fv)
	q.GradU.MulVec(ju.T(), fv)
	q.HessXX.Mul(jx.T(), jx)
	q.HessUU.Mul(ju.T(), ju)
	q.HessUX.Mul(ju.T(), jx)

	e.interCache.store(t, x, u, f, jac)
	return q, nil
}

// FinalCostQuadraticApproximation computes the Gauss-Newton quadratic model
// of the final cost at (t,x) and caches the point for
// FinalCostDerivativeTime.
func (e *Engine) FinalCostQuadraticApproximation(t float64, x []float64) (FinalQuadratic, error) {
	pt, err := e.finalPoint(t, x)
	if err != nil {
		return FinalQuadratic{}, err
	}
	g, err := e.finalModel.Evaluate(pt)
	if err != nil {
		return FinalQuadratic{}, err
	}
	g = append([]float64(nil), g...)

	q := zeroFinalQuadratic(e.stateDim)
	q.Value = halfSquaredNorm(g)
	if len(g) == 0 {
		e.finalCache.store(t, x, nil, nil, nil)
		return q, nil
	}

	jac, err := e.finalModel.Jacobian(pt)
	if err != nil {
		return FinalQuadratic{}, err
	}
	gv := mat.NewVecDense(len(g), g)
	jx := jac.Slice(0, len(g), 1, 1+e.stateDim)

	q.GradX.MulVec(jx.T(), gv)
	q.HessXX.Mul(jx.T(), jx)

	e.finalCache.store(t, x, nil, g, jac)
	return q, nil
}

// CostDerivativeTime returns ∂L/∂t = fᵀ·(∂f/∂t) from the Jacobian cached
// by CostQuadraticApproximation. Querying any point other than the cached
// one returns ErrStaleApproximation.
func (e *Engine) CostDerivativeTime(t float64, x, u []float64) (float64, error) {
	if !e.initialized {
		return 0, ErrNotInitialized
	}
	if !e.interCache.matches(t, x, u) {
		return 0, ErrStaleApproximation
	}
	return cachedTimeDerivative(&e.interCache), nil
}

// FinalCostDerivativeTime returns ∂Φ/∂t from the Jacobian cached by
// FinalCostQuadraticApproximation, with the same staleness contract as
// CostDerivativeTime.
func (e *Engine) FinalCostDerivativeTime(t float64, x []float64) (float64, error) {
	if !e.initialized {
		return 0, ErrNotInitialized
	}
	if !e.finalCache.matches(t, x, nil) {
		return 0, ErrStaleApproximation
	}
	return cachedTimeDerivative(&e.finalCache), nil
}

// Clone returns an engine sharing the immutable compiled programs but
// owning fresh evaluation caches and tape workspaces, so the clone can
// evaluate on another goroutine. The residual specification itself is
// shared and must be stateless.
func (e *Engine) Clone() *Engine {
	c := &Engine{
		stateDim:       e.stateDim,
		inputDim:       e.inputDim,
		spec:           e.spec,
		finalSpec:      e.finalSpec,
		params:         e.params,
		numInterParams: e.numInterParams,
		numFinalParams: e.numFinalParams,
		log:            e.log,
		initialized:    e.initialized,
	}
	if e.interModel != nil {
		c.interModel = e.interModel.Clone()
	}
	if e.finalModel != nil {
		c.finalModel = e.finalModel.Clone()
	}
	return c
}

// cachedTimeDerivative computes residualᵀ·(time column of the Jacobian).
// The time variable is input 0 of every taped point.
func cachedTimeDerivative(c *evaluationCache) float64 {
	if c.jacobian == nil {
		return 0
	}
	var dt float64
	for i, fi := range c.residual {
		dt += fi * c.jacobian.At(i, 0)
	}
	return dt
}

func halfSquaredNorm(v []float64) float64 {
	var s float64
	for _, vi := range v {
		s += vi * vi
	}
	return 0.5 * s
}
