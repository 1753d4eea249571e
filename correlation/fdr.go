package correlation

import "sort"

// BenjaminiHochberg returns FDR-adjusted p-values, in the input's order. The
// adjusted value for the p-value of rank i (ascending) is p*m/i, made
// monotone non-decreasing in p and capped at 1. Callers must pass every
// tested p-value at once: the denominator m is the full test count, so
// adjusting a subset yields different (wrong) values.
func BenjaminiHochberg(p []float64) []float64 {
	m := len(p)

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return p[order[i]] < p[order[j]] })

	adj := make([]float64, m)
	running := 1.0
	for i := m - 1; i >= 0; i-- {
		v := p[order[i]] * float64(m) / float64(i+1)
		if v < running {
			running = v
		}
		adj[order[i]] = running
	}

	return adj
}
