// Package abundance builds and reshapes relative-abundance matrices: wide
// sample-by-entity tables of proportions derived from taxonomic read counts
// aggregated at one hierarchy rank.
package abundance

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSchemaMismatch indicates a sample or entity name that does not exist in
// the matrix schema.
var ErrSchemaMismatch = errors.New("abundance: name not present in schema")

// Matrix is a wide sample-by-entity abundance table. Samples and Entities fix
// the row and column order; Values is indexed [sample][entity]. Cells hold
// relative abundances in [0,1], with 0 meaning absent or below the reporting
// cutoff. Matrices are treated as immutable once built.
type Matrix struct {
	Samples  []string
	Entities []string
	Values   [][]float64
}

// EntityIndex resolves an entity name to its column, failing with
// ErrSchemaMismatch for unknown names.
func (m Matrix) EntityIndex(entity string) (int, error) {
	for i, e := range m.Entities {
		if e == entity {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: entity %q", ErrSchemaMismatch, entity)
}

// Column returns a copy of the named entity's values in sample order.
func (m Matrix) Column(entity string) ([]float64, error) {
	col, err := m.EntityIndex(entity)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(m.Samples))
	for i := range m.Samples {
		out[i] = m.Values[i][col]
	}

	return out, nil
}

// SelectRows returns the sub-matrix restricted to the given sample IDs,
// keeping the matrix's own row order. Samples not present are skipped.
func (m Matrix) SelectRows(keep map[string]struct{}) Matrix {
	out := Matrix{Entities: m.Entities}
	for i, s := range m.Samples {
		if _, ok := keep[s]; !ok {
			continue
		}
		out.Samples = append(out.Samples, s)
		out.Values = append(out.Values, m.Values[i])
	}

	return out
}

// Join inner-joins two matrices on sample identifier: samples present in only
// one side are dropped. The merged matrix carries a's columns followed by b's;
// the two returned slices name the columns contributed by each side, after
// de-duplication. A b-side entity whose name collides with an a-side entity
// (common for synthesized "unclassified ..." labels appearing in both
// taxonomies) is renamed with a numeric suffix so that every column name stays
// unique.
func Join(a, b Matrix) (merged Matrix, fromA, fromB []string) {
	bRows := make(map[string]int, len(b.Samples))
	for i, s := range b.Samples {
		bRows[s] = i
	}

	seen := make(map[string]struct{}, len(a.Entities)+len(b.Entities))

	fromA = make([]string, 0, len(a.Entities))
	for _, e := range a.Entities {
		seen[e] = struct{}{}
		fromA = append(fromA, e)
	}

	fromB = make([]string, 0, len(b.Entities))
	for _, e := range b.Entities {
		name := e
		for n := 1; ; n++ {
			if _, taken := seen[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s.%d", e, n)
		}
		seen[name] = struct{}{}
		fromB = append(fromB, name)
	}

	merged.Entities = append(append([]string{}, fromA...), fromB...)

	for i, s := range a.Samples {
		j, ok := bRows[s]
		if !ok {
			continue
		}

		row := make([]float64, 0, len(merged.Entities))
		row = append(row, a.Values[i]...)
		row = append(row, b.Values[j]...)

		merged.Samples = append(merged.Samples, s)
		merged.Values = append(merged.Values, row)
	}

	return merged, fromA, fromB
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}
