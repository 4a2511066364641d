package cost

import "gonum.org/v1/gonum/mat"

// evaluationCache keeps the most recent quadratic-approximation point and
// its residual/Jacobian so the time-derivative accessors can reuse them.
// The point itself is stored and compared exactly: a query at any other
// point is rejected rather than answered with stale data.
type evaluationCache struct {
	valid    bool
	t        float64
	x        []float64
	u        []float64 // nil for the final-cost cache
	residual []float64
	jacobian *mat.Dense // nil for degenerate residuals
}

// store records the evaluation point, copying the caller's slices.
func (c *evaluationCache) store(t float64, x, u, residual []float64, jacobian *mat.Dense) {
	c.valid = true
	c.t = t
	c.x = append(c.x[:0], x...)
	c.u = append(c.u[:0], u...)
	c.residual = append(c.residual[:0], residual...)
	c.jacobian = jacobian
}

// matches reports whether the cache holds exactly this point. Bitwise
// float equality is intended: the cache answers only for the point the
// approximation was computed at.
func (c *evaluationCache) matches(t float64, x, u []float64) bool {
	if !c.valid || c.t != t || len(x) != len(c.x) || len(u) != len(c.u) {
		return false
	}
	for i := range x {
		if x[i] != c.x[i] {
			return false
		}
	}
	for i := range u {
		if u[i] != c.u[i] {
			return false
		}
	}
	return true
}

// reset invalidates the cache.
func (c *evaluationCache) reset() { c.valid = false }
