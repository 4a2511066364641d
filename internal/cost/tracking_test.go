package cost_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapecost-ml/tapecost/internal/cost"
)

func sineReference(t float64) (state, input []float64) {
	return []float64{math.Sin(t), math.Cos(t)}, []float64{-math.Sin(t)}
}

func newTracking(withFinal bool) *cost.QuadraticTracking {
	q := &cost.QuadraticTracking{
		StateWeights: []float64{10, 1},
		InputWeights: []float64{0.1},
		Ref:          sineReference,
	}
	if withFinal {
		q.FinalStateWeights = []float64{100, 10}
	}
	return q
}

func TestTracking_ZeroOnReference(t *testing.T) {
	e := newInitialized(t, 2, 1, newTracking(true))

	for _, tq := range []float64{0, 0.5, 1.3} {
		xRef, uRef := sineReference(tq)
		c, err := e.Cost(tq, xRef, uRef)
		require.NoError(t, err)
		assert.InDelta(t, 0, c, 1e-15)

		phi, err := e.FinalCost(tq, xRef)
		require.NoError(t, err)
		assert.InDelta(t, 0, phi, 1e-15)
	}
}

func TestTracking_ClosedFormQuadratic(t *testing.T) {
	e := newInitialized(t, 2, 1, newTracking(true))

	tq := 0.4
	xRef, uRef := sineReference(tq)
	x := []float64{xRef[0] + 0.2, xRef[1] - 0.1}
	u := []float64{uRef[0] + 0.5}

	q, err := e.CostQuadraticApproximation(tq, x, u)
	require.NoError(t, err)

	// L = ½(10·dx0² + 1·dx1² + 0.1·du0²), ∇x = W(x-x*), Hxx = W.
	wantValue := 0.5 * (10*0.2*0.2 + 1*0.1*0.1 + 0.1*0.5*0.5)
	assert.InDelta(t, wantValue, q.Value, 1e-12)
	assert.InDelta(t, 10*0.2, q.GradX.AtVec(0), 1e-12)
	assert.InDelta(t, 1*-0.1, q.GradX.AtVec(1), 1e-12)
	assert.InDelta(t, 0.1*0.5, q.GradU.AtVec(0), 1e-12)
	assert.InDelta(t, 10, q.HessXX.At(0, 0), 1e-12)
	assert.InDelta(t, 1, q.HessXX.At(1, 1), 1e-12)
	assert.InDelta(t, 0, q.HessXX.At(0, 1), 1e-12)
	assert.InDelta(t, 0.1, q.HessUU.At(0, 0), 1e-12)
	assert.InDelta(t, 0, q.HessUX.At(0, 0), 1e-12)

	phi, err := e.FinalCostQuadraticApproximation(tq, x)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*(100*0.2*0.2+10*0.1*0.1), phi.Value, 1e-12)
	assert.InDelta(t, 100*0.2, phi.GradX.AtVec(0), 1e-12)
	assert.InDelta(t, 100, phi.HessXX.At(0, 0), 1e-12)
}

func TestTracking_NoFinalWeights(t *testing.T) {
	e := newInitialized(t, 2, 1, newTracking(false))

	phi, err := e.FinalCost(0.7, []float64{5, -3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, phi)

	q, err := e.FinalCostQuadraticApproximation(0.7, []float64{5, -3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, q.Value)
	assert.Equal(t, 0.0, q.GradX.AtVec(0))
	assert.Equal(t, 0.0, q.HessXX.At(1, 1))
}

func TestTracking_ParameterCounts(t *testing.T) {
	withFinal := newTracking(true)
	assert.Equal(t, 3, withFinal.NumIntermediateParameters())
	assert.Equal(t, 2, withFinal.NumFinalParameters())
	assert.Len(t, withFinal.IntermediateParameters(0.5), 3)
	assert.Len(t, withFinal.FinalParameters(0.5), 2)

	without := newTracking(false)
	assert.Equal(t, 0, without.NumFinalParameters())
	assert.Nil(t, without.FinalParameters(0.5))
}
