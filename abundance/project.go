package abundance

import (
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
)

// DefaultCutoff is the relative-abundance reporting threshold: within a
// sample, any entity at or below this proportion is reported as absent.
const DefaultCutoff = 0.01

// UnitCount is one raw classification record: reads assigned to one taxonomic
// unit in one sample, before any rank-level aggregation.
type UnitCount struct {
	Sample string
	Unit   string
	Count  float64
}

// Count is one long-format abundance record at a single rank.
type Count struct {
	Sample string
	Entity string
	Count  float64
}

// AggregateToRank collapses raw per-unit counts to one rank by summing the
// counts of all units that share a filled label at that rank. labelByUnit maps
// unit ID to its label (see taxonomy.Table.LabelsAt); a unit with no label
// fails the aggregation rather than silently vanishing from the totals.
func AggregateToRank(raw []UnitCount, labelByUnit map[string]string) ([]Count, error) {
	totals := make(map[string]map[string]float64) // sample => label => count
	for _, rec := range raw {
		label, ok := labelByUnit[rec.Unit]
		if !ok {
			return nil, pfx.Err(fmt.Errorf("abundance: unit %q has no label in the filled taxonomy", rec.Unit))
		}

		byLabel := totals[rec.Sample]
		if byLabel == nil {
			byLabel = make(map[string]float64)
			totals[rec.Sample] = byLabel
		}
		byLabel[label] += rec.Count
	}

	var out []Count
	for _, sample := range sortedTotalsKeys(totals) {
		byLabel := totals[sample]
		for _, label := range sortedFloatKeys(byLabel) {
			out = append(out, Count{Sample: sample, Entity: label, Count: byLabel[label]})
		}
	}

	return out, nil
}

// Project converts long-format counts at one rank into a wide Matrix of
// relative abundances. Each sample's counts are normalized to proportions over
// the full entity set at the rank; proportions at or below cutoff are then
// zeroed for reporting (the entity keeps its column, the cell reads 0). Any
// (sample, entity) combination absent from the input is zero-filled. Row sums
// can therefore fall below 1 after thresholding.
func Project(counts []Count, cutoff float64) (Matrix, error) {
	sampleSet := make(map[string]struct{})
	entitySet := make(map[string]struct{})
	perSample := make(map[string][]float64)
	cells := make(map[string]map[string]float64)

	for _, rec := range counts {
		if rec.Count < 0 {
			return Matrix{}, pfx.Err(fmt.Errorf("abundance: negative count %f for (%s, %s)", rec.Count, rec.Sample, rec.Entity))
		}

		sampleSet[rec.Sample] = struct{}{}
		entitySet[rec.Entity] = struct{}{}
		perSample[rec.Sample] = append(perSample[rec.Sample], rec.Count)

		byEntity := cells[rec.Sample]
		if byEntity == nil {
			byEntity = make(map[string]float64)
			cells[rec.Sample] = byEntity
		}
		byEntity[rec.Entity] += rec.Count
	}

	m := Matrix{
		Samples:  sortedKeys(sampleSet),
		Entities: sortedKeys(entitySet),
	}

	m.Values = make([][]float64, len(m.Samples))
	for i, sample := range m.Samples {
		total, err := stats.Sum(stats.Float64Data(perSample[sample]))
		if err != nil {
			return Matrix{}, pfx.Err(err)
		}

		row := make([]float64, len(m.Entities))
		if total > 0 {
			for j, entity := range m.Entities {
				proportion := cells[sample][entity] / total
				if proportion > cutoff {
					row[j] = proportion
				}
			}
		}
		m.Values[i] = row
	}

	return m, nil
}

func sortedTotalsKeys(m map[string]map[string]float64) []string {
	set := make(map[string]struct{}, len(m))
	for k := range m {
		set[k] = struct{}{}
	}

	return sortedKeys(set)
}

func sortedFloatKeys(m map[string]float64) []string {
	set := make(map[string]struct{}, len(m))
	for k := range m {
		set[k] = struct{}{}
	}

	return sortedKeys(set)
}
