// Package correlation computes significance-filtered Spearman
// cross-correlation matrices between two entity sets measured over the same
// samples: the full pairwise matrix is ranked, correlated, and
// Benjamini-Hochberg corrected before being reduced to the cross-set view.
package correlation

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/runningvariance"

	"phagecorr/abundance"
)

// ErrInsufficientSamples rejects matrices with too few rows for a meaningful
// coefficient.
var ErrInsufficientSamples = errors.New("correlation: fewer than 3 samples")

// MinSamples is the smallest row count Compute accepts.
const MinSamples = 3

// Outcome is the tri-state disposition of one correlation result, kept
// explicit so that "nothing was significant" is never mistaken for "the
// computation failed".
type Outcome int

const (
	// OutcomePopulated: at least one significant cross-set pair survived.
	OutcomePopulated Outcome = iota
	// OutcomeEmpty: the computation succeeded but no pair was significant,
	// or a candidate set was empty after exclusion.
	OutcomeEmpty
	// OutcomeFailed: the unit did not produce a result.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePopulated:
		return "populated"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	}

	return fmt.Sprintf("outcome(%d)", int(o))
}

// Grid is a labeled real-valued matrix. NaN cells are missing (filtered out)
// or undefined (zero-variance input).
type Grid struct {
	RowLabels []string
	ColLabels []string
	Cells     [][]float64
}

// NonMissing counts the defined cells.
func (g Grid) NonMissing() int {
	n := 0
	for _, row := range g.Cells {
		for _, v := range row {
			if !math.IsNaN(v) {
				n++
			}
		}
	}

	return n
}

// Empty reports whether the grid has no cells at all.
func (g Grid) Empty() bool {
	return len(g.RowLabels) == 0 || len(g.ColLabels) == 0
}

// Result is the outcome of one cross-correlation computation. PValues holds
// BH-corrected p-values over the same row/column domain as Cross. Significant
// is Cross with cells above alpha blanked; when nothing survives it is the
// zero Grid and Outcome is OutcomeEmpty. Plottable is false when fewer than
// two significant cells exist (a single cell cannot be rendered as a
// heatmap, though its value is still returned).
type Result struct {
	Cross       Grid
	PValues     Grid
	Significant Grid
	Outcome     Outcome
	Plottable   bool
}

// Compute runs the full engine over one abundance matrix. setA and setB name
// the two column groups to report on (e.g. bacteria and phage entities); both
// must resolve against the matrix schema. alpha is the FDR significance
// threshold, passed per call rather than read from shared state.
//
// The order of operations is load-bearing: the Spearman matrix and the BH
// correction cover every column pair of the whole matrix, and only then is
// the result cut down to the setA-by-setB view. Correcting after reduction
// would shrink the correction denominator and inflate significance.
func Compute(m abundance.Matrix, setA, setB []string, alpha float64) (Result, error) {
	n := len(m.Samples)
	if n < MinSamples {
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("%w: have %d", ErrInsufficientSamples, n)
	}

	colsA, err := resolveColumns(m, setA)
	if err != nil {
		return Result{Outcome: OutcomeFailed}, err
	}
	colsB, err := resolveColumns(m, setB)
	if err != nil {
		return Result{Outcome: OutcomeFailed}, err
	}

	k := len(m.Entities)

	// Per-column preparation: ranks for the correlation, plus the two
	// exclusion signals (all-zero columns leave the reporting sets;
	// zero-variance columns additionally produce undefined pairs).
	colRanks := make([][]float64, k)
	zeroSum := make([]bool, k)
	hasVariance := make([]bool, k)
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		rs := runningvariance.NewRunningStat()
		sum := 0.0
		for i := 0; i < n; i++ {
			col[i] = m.Values[i][j]
			rs.Push(col[i])
			sum += col[i]
		}

		zeroSum[j] = sum == 0
		hasVariance[j] = rs.StandardDeviation() > 0
		colRanks[j] = ranks(col)
	}

	// Full symmetric Spearman and raw p-value matrices. Pairs touching a
	// zero-variance column stay NaN throughout.
	rho := nanSquare(k)
	rawP := nanSquare(k)

	type pairIdx struct{ i, j int }
	var tested []pairIdx
	var testedP []float64

	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if !hasVariance[i] || !hasVariance[j] {
				continue
			}

			r := spearman(colRanks[i], colRanks[j])
			p := pValue(r, n)

			rho[i][j], rho[j][i] = r, r
			rawP[i][j], rawP[j][i] = p, p

			tested = append(tested, pairIdx{i, j})
			testedP = append(testedP, p)
		}
	}

	// BH across every tested pair of the full matrix.
	adjP := nanSquare(k)
	for t, adj := range BenjaminiHochberg(testedP) {
		pair := tested[t]
		adjP[pair.i][pair.j], adjP[pair.j][pair.i] = adj, adj
	}

	// Exclusion pass for the reported sets. All-zero columns are never
	// surfaced; zero-variance columns would contribute only undefined
	// cells, so they are not surfaced either.
	keepA := filterColumns(colsA, zeroSum, hasVariance)
	keepB := filterColumns(colsB, zeroSum, hasVariance)

	if len(keepA) == 0 || len(keepB) == 0 {
		return Result{Outcome: OutcomeEmpty}, nil
	}

	cross := Grid{
		RowLabels: labelsOf(m, keepA),
		ColLabels: labelsOf(m, keepB),
		Cells:     make([][]float64, len(keepA)),
	}
	pGrid := Grid{
		RowLabels: cross.RowLabels,
		ColLabels: cross.ColLabels,
		Cells:     make([][]float64, len(keepA)),
	}
	for ri, i := range keepA {
		cross.Cells[ri] = make([]float64, len(keepB))
		pGrid.Cells[ri] = make([]float64, len(keepB))
		for ci, j := range keepB {
			cross.Cells[ri][ci] = rho[i][j]
			pGrid.Cells[ri][ci] = adjP[i][j]
		}
	}

	out := Result{Cross: cross, PValues: pGrid, Outcome: OutcomeEmpty}

	significant := Grid{
		RowLabels: cross.RowLabels,
		ColLabels: cross.ColLabels,
		Cells:     make([][]float64, len(keepA)),
	}
	for ri := range cross.Cells {
		significant.Cells[ri] = make([]float64, len(keepB))
		for ci := range cross.Cells[ri] {
			if p := pGrid.Cells[ri][ci]; !math.IsNaN(p) && p <= alpha {
				significant.Cells[ri][ci] = cross.Cells[ri][ci]
			} else {
				significant.Cells[ri][ci] = math.NaN()
			}
		}
	}

	if sig := significant.NonMissing(); sig > 0 {
		out.Significant = significant
		out.Outcome = OutcomePopulated
		out.Plottable = sig >= 2
	}

	return out, nil
}

func resolveColumns(m abundance.Matrix, names []string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, name := range names {
		idx, err := m.EntityIndex(name)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}

	return out, nil
}

func filterColumns(cols []int, zeroSum, hasVariance []bool) []int {
	out := make([]int, 0, len(cols))
	for _, c := range cols {
		if zeroSum[c] || !hasVariance[c] {
			continue
		}
		out = append(out, c)
	}

	return out
}

func labelsOf(m abundance.Matrix, cols []int) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, m.Entities[c])
	}

	return out
}

func nanSquare(k int) [][]float64 {
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, k)
		for j := range out[i] {
			out[i][j] = math.NaN()
		}
	}

	return out
}
