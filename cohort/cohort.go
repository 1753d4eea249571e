// Package cohort partitions samples into named groups by a categorical
// covariate (for example, seroconversion status) drawn from two independently
// sourced annotation tables.
package cohort

import (
	"phagecorr/abundance"
)

// Annotation links one sample to its covariate category in one source table.
type Annotation struct {
	Sample    string
	Covariate string
}

// Membership maps a cohort label to the set of sample IDs belonging to it.
type Membership map[string]map[string]struct{}

// BuildMembership assigns samples to cohorts from two annotation sources. For
// each label, the cohort is the union of samples whose covariate equals that
// label in either source; appearing in one table is enough.
func BuildMembership(sourceA, sourceB []Annotation, labels []string) Membership {
	out := make(Membership, len(labels))
	for _, label := range labels {
		out[label] = make(map[string]struct{})
	}

	for _, table := range [][]Annotation{sourceA, sourceB} {
		for _, a := range table {
			if set, ok := out[a.Covariate]; ok {
				set[a.Sample] = struct{}{}
			}
		}
	}

	return out
}

// Split restricts a matrix to each cohort's samples. A sample that belongs to
// no cohort is silently dropped from every output: absent annotation means
// absent from the analysis, by design, so callers should not expect the
// cohorts to cover the input row set.
func Split(m abundance.Matrix, membership Membership) map[string]abundance.Matrix {
	out := make(map[string]abundance.Matrix, len(membership))
	for label, samples := range membership {
		out[label] = m.SelectRows(samples)
	}

	return out
}
