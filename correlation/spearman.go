package correlation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ranks converts values to 1-based ranks, averaging ties, which gives
// Pearson-on-ranks its Spearman semantics.
func ranks(x []float64) []float64 {
	n := len(x)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return x[order[i]] < x[order[j]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[order[j+1]] == x[order[i]] {
			j++
		}

		// Positions i..j hold tied values; all receive the mean rank.
		mean := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[order[k]] = mean
		}

		i = j + 1
	}

	return out
}

// spearman computes the rank correlation of two pre-ranked columns.
func spearman(rankedX, rankedY []float64) float64 {
	return stat.Correlation(rankedX, rankedY, nil)
}

// pValue is the two-sided p-value for a rank correlation r over n samples,
// under the null of no monotonic association, via the t transform with n-2
// degrees of freedom.
func pValue(r float64, n int) float64 {
	if math.IsNaN(r) {
		return math.NaN()
	}

	df := float64(n - 2)
	if 1-r*r <= 0 {
		// A perfectly monotone pair; the t statistic diverges.
		return 0
	}

	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	return 2 * dist.CDF(-math.Abs(t))
}
