// Package demand implements the doubly-constrained gravity model that
// converts per-node daily passenger totals into an origin-destination
// trip matrix, via Furness (iterative proportional fitting) balancing.
package demand

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"transitsim/internal/simerr"
)

// Params are the gravity model's tunables (§4.2).
type Params struct {
	DistanceExponent float64 // alpha
	FlatDistance     float64 // beta, minutes
	Convergence      float64 // epsilon, default 1e-3
	MaxIterations    int     // default 100
}

// DefaultParams returns the spec's default convergence tolerance and
// iteration cap.
func DefaultParams(alpha, beta float64) Params {
	return Params{DistanceExponent: alpha, FlatDistance: beta, Convergence: 1e-3, MaxIterations: 100}
}

// Assign computes the OD matrix for the given daily totals and
// uncongested distance matrix. starts and stops must be the same
// length as dist's dimension; in practice starts == stops (spec §4.2).
//
// Returns the balanced OD matrix (row i, col j = expected trips per
// day from i to j, diagonal zero) and, if the iteration cap was
// reached before convergence, a *simerr.NonConvergenceWarning — this is
// non-fatal: the caller proceeds with the best current matrix.
func Assign(starts, stops []float64, dist [][]float64, p Params) (*mat.Dense, error) {
	n := len(starts)
	if len(stops) != n || len(dist) != n {
		return nil, simerr.NewConfigError(simerr.KindBadValue, "gravity model dimension mismatch: starts=%d stops=%d dist=%d", len(starts), len(stops), len(dist))
	}
	if p.Convergence <= 0 {
		p.Convergence = 1e-3
	}
	if p.MaxIterations <= 0 {
		p.MaxIterations = 100
	}

	// D'[i][j] = (D[i][j] + beta)^alpha
	dPrime := make([][]float64, n)
	for i := 0; i < n; i++ {
		dPrime[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dPrime[i][j] = math.Pow(dist[i][j]+p.FlatDistance, p.DistanceExponent)
		}
	}
	// Symmetric round-trip cost C[i][j] = D'[i][j] + D'[j][i], diagonal 0.
	cost := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			cost.Set(i, j, dPrime[i][j]+dPrime[j][i])
		}
	}

	od := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			if i == j || cost.At(i, j) <= 0 {
				continue
			}
			rowSum += stops[j] / cost.At(i, j)
		}
		if rowSum <= 0 {
			continue
		}
		for j := 0; j < n; j++ {
			if i == j || cost.At(i, j) <= 0 {
				continue
			}
			od.Set(i, j, starts[i]*(stops[j]/cost.At(i, j))/rowSum)
		}
	}

	var iter int
	var maxRowErr, maxColErr float64
	for iter = 0; iter < p.MaxIterations; iter++ {
		colSums := make([]float64, n)
		for j := 0; j < n; j++ {
			var s float64
			for i := 0; i < n; i++ {
				s += od.At(i, j)
			}
			colSums[j] = s
		}
		for j := 0; j < n; j++ {
			if colSums[j] <= 0 {
				continue
			}
			scale := stops[j] / colSums[j]
			for i := 0; i < n; i++ {
				if i == j {
					continue
				}
				od.Set(i, j, od.At(i, j)*scale)
			}
		}

		rowSums := make([]float64, n)
		for i := 0; i < n; i++ {
			var s float64
			for j := 0; j < n; j++ {
				s += od.At(i, j)
			}
			rowSums[i] = s
		}
		for i := 0; i < n; i++ {
			if rowSums[i] <= 0 {
				continue
			}
			scale := starts[i] / rowSums[i]
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				od.Set(i, j, od.At(i, j)*scale)
			}
		}

		maxRowErr, maxColErr = 0, 0
		for i := 0; i < n; i++ {
			if starts[i] <= 0 {
				continue
			}
			var s float64
			for j := 0; j < n; j++ {
				s += od.At(i, j)
			}
			if e := math.Abs(starts[i]/s - 1); e > maxRowErr {
				maxRowErr = e
			}
		}
		for j := 0; j < n; j++ {
			if stops[j] <= 0 {
				continue
			}
			var s float64
			for i := 0; i < n; i++ {
				s += od.At(i, j)
			}
			if e := math.Abs(stops[j]/s - 1); e > maxColErr {
				maxColErr = e
			}
		}
		if maxRowErr < p.Convergence && maxColErr < p.Convergence {
			return od, nil
		}
	}
	return od, &simerr.NonConvergenceWarning{Iterations: iter, MaxRowError: maxRowErr, MaxColError: maxColErr}
}
