package correlation

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"phagecorr/abundance"
)

// scenarioMatrix is the cross-correlation end-to-end fixture: bacteria
// columns B1 and B2 (B2 all zero across the 5 samples) against phage columns
// P1 and P2. B1 tracks P1 perfectly; P2 is shuffled against both.
func scenarioMatrix() abundance.Matrix {
	return abundance.Matrix{
		Samples:  []string{"s1", "s2", "s3", "s4", "s5"},
		Entities: []string{"B1", "B2", "P1", "P2"},
		Values: [][]float64{
			{0.10, 0, 0.15, 0.30},
			{0.20, 0, 0.25, 0.10},
			{0.30, 0, 0.35, 0.40},
			{0.40, 0, 0.45, 0.15},
			{0.50, 0, 0.55, 0.35},
		},
	}
}

func TestComputeScenario(t *testing.T) {
	res, err := Compute(scenarioMatrix(), []string{"B1", "B2"}, []string{"P1", "P2"}, 0.05)
	if err != nil {
		t.Fatal(err)
	}

	// The all-zero B2 column never surfaces.
	if !reflect.DeepEqual(res.Cross.RowLabels, []string{"B1"}) {
		t.Fatalf("cross rows: %v", res.Cross.RowLabels)
	}
	if !reflect.DeepEqual(res.Cross.ColLabels, []string{"P1", "P2"}) {
		t.Fatalf("cross cols: %v", res.Cross.ColLabels)
	}

	if got := res.Cross.Cells[0][0]; math.Abs(got-1) > eps {
		t.Fatalf("rho(B1,P1) = %f, want 1", got)
	}
	if got := res.Cross.Cells[0][1]; math.Abs(got-0.3) > eps {
		t.Fatalf("rho(B1,P2) = %f, want 0.3", got)
	}

	// Only the perfect pair survives alpha=0.05, so the significant view has
	// exactly one defined cell, which is too small to plot.
	if res.Outcome != OutcomePopulated {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if got := res.Significant.NonMissing(); got != 1 {
		t.Fatalf("significant cells = %d, want 1", got)
	}
	if res.Plottable {
		t.Fatalf("a single-cell result must be flagged non-plottable")
	}
	if math.IsNaN(res.Significant.Cells[0][0]) || !math.IsNaN(res.Significant.Cells[0][1]) {
		t.Fatalf("wrong cell retained: %v", res.Significant.Cells)
	}
}

func TestComputeSignificanceSubsetAndThreshold(t *testing.T) {
	res, err := Compute(scenarioMatrix(), []string{"B1", "B2"}, []string{"P1", "P2"}, 0.05)
	if err != nil {
		t.Fatal(err)
	}

	if res.Significant.NonMissing() > res.Cross.NonMissing() {
		t.Fatalf("significant view larger than cross view")
	}

	for ri, row := range res.Significant.Cells {
		for ci, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if p := res.PValues.Cells[ri][ci]; p > 0.05 {
				t.Fatalf("retained cell (%d,%d) has corrected p %f > alpha", ri, ci, p)
			}
		}
	}
}

func TestComputeFDRMonotoneInAlpha(t *testing.T) {
	m := scenarioMatrix()

	strict, err := Compute(m, []string{"B1", "B2"}, []string{"P1", "P2"}, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	loose, err := Compute(m, []string{"B1", "B2"}, []string{"P1", "P2"}, 0.95)
	if err != nil {
		t.Fatal(err)
	}

	if loose.Significant.NonMissing() < strict.Significant.NonMissing() {
		t.Fatalf("raising alpha lost significant cells: %d -> %d",
			strict.Significant.NonMissing(), loose.Significant.NonMissing())
	}
}

func TestComputeConstantColumnNeverSurfaces(t *testing.T) {
	m := abundance.Matrix{
		Samples:  []string{"s1", "s2", "s3", "s4"},
		Entities: []string{"B1", "Bflat", "P1"},
		Values: [][]float64{
			// Bflat is nonzero but constant: zero variance, undefined pairs.
			{0.1, 0.2, 0.4},
			{0.2, 0.2, 0.3},
			{0.3, 0.2, 0.2},
			{0.4, 0.2, 0.1},
		},
	}

	res, err := Compute(m, []string{"B1", "Bflat"}, []string{"P1"}, 0.05)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(res.Cross.RowLabels, []string{"B1"}) {
		t.Fatalf("zero-variance column surfaced: %v", res.Cross.RowLabels)
	}
}

func TestComputeInsufficientSamples(t *testing.T) {
	m := abundance.Matrix{
		Samples:  []string{"s1", "s2"},
		Entities: []string{"B1", "P1"},
		Values:   [][]float64{{0.1, 0.2}, {0.2, 0.1}},
	}

	res, err := Compute(m, []string{"B1"}, []string{"P1"}, 0.05)
	if !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("err = %v, want ErrInsufficientSamples", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
}

func TestComputeEmptySetAfterExclusion(t *testing.T) {
	m := abundance.Matrix{
		Samples:  []string{"s1", "s2", "s3"},
		Entities: []string{"Bzero", "P1"},
		Values:   [][]float64{{0, 0.1}, {0, 0.3}, {0, 0.2}},
	}

	res, err := Compute(m, []string{"Bzero"}, []string{"P1"}, 0.05)
	if err != nil {
		t.Fatalf("empty candidate set must not be an error, got %v", err)
	}
	if res.Outcome != OutcomeEmpty {
		t.Fatalf("outcome = %v, want empty", res.Outcome)
	}
	if !res.Cross.Empty() || !res.Significant.Empty() {
		t.Fatalf("expected empty grids, got %+v", res)
	}
}

func TestComputeUnknownEntityFails(t *testing.T) {
	m := scenarioMatrix()

	if _, err := Compute(m, []string{"B1", "Bogus"}, []string{"P1"}, 0.05); !errors.Is(err, abundance.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want schema mismatch", err)
	}
}
