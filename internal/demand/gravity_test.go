package demand_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"transitsim/internal/demand"
)

// TestAssign_SymmetricDistanceYieldsSymmetricOD is scenario S4: a
// symmetric distance matrix with alpha=2, beta=0 must converge to a
// symmetric OD matrix whose row sums match the input totals.
func TestAssign_SymmetricDistanceYieldsSymmetricOD(t *testing.T) {
	starts := []float64{10, 20, 40, 10}
	dist := [][]float64{
		{0, 5, 10, 15},
		{5, 0, 8, 12},
		{10, 8, 0, 6},
		{15, 12, 6, 0},
	}

	od, err := demand.Assign(starts, starts, dist, demand.DefaultParams(2, 0))
	require.NoError(t, err)

	n := len(starts)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.InDelta(t, od.At(i, j), od.At(j, i), 1e-6, "OD[%d][%d] should equal OD[%d][%d]", i, j, j, i)
		}
	}

	for i := 0; i < n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			rowSum += od.At(i, j)
		}
		require.InDelta(t, starts[i], rowSum, starts[i]*1e-3+1e-9)
	}
}

func TestAssign_ZeroDemandNodeIsValidDestination(t *testing.T) {
	starts := []float64{100, 0, 100}
	dist := [][]float64{
		{0, 5, 10},
		{5, 0, 8},
		{10, 8, 0},
	}
	od, err := demand.Assign(starts, starts, dist, demand.DefaultParams(2, 0))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.Equal(t, 0.0, od.At(i, 1), "node with zero daily total should receive zero trips")
	}
}

func TestAssign_NonConvergenceIsNonFatal(t *testing.T) {
	starts := []float64{10, 20, 40, 10}
	dist := [][]float64{
		{0, 5, 10, 15},
		{5, 0, 8, 12},
		{10, 8, 0, 6},
		{15, 12, 6, 0},
	}
	params := demand.DefaultParams(2, 0)
	params.MaxIterations = 2
	params.Convergence = 1e-12
	od, err := demand.Assign(starts, starts, dist, params)
	require.Error(t, err, "two Furness iterations cannot reach 1e-12 relative error on this matrix")
	require.NotNil(t, od, "a non-convergence warning still returns the best current matrix")
	require.False(t, math.IsNaN(od.At(0, 1)))
}
