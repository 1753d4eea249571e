package cohort

import (
	"reflect"
	"sort"
	"testing"

	"phagecorr/abundance"
)

func TestBuildMembershipUnionsBothSources(t *testing.T) {
	sourceA := []Annotation{
		{Sample: "s1", Covariate: "case"},
		{Sample: "s2", Covariate: "control"},
	}
	sourceB := []Annotation{
		{Sample: "s3", Covariate: "case"},
		{Sample: "s1", Covariate: "case"}, // duplicated across sources
		{Sample: "s4", Covariate: "other"},
	}

	m := BuildMembership(sourceA, sourceB, []string{"case", "control"})

	if got := setToSorted(m["case"]); !reflect.DeepEqual(got, []string{"s1", "s3"}) {
		t.Fatalf("case cohort: %v", got)
	}
	if got := setToSorted(m["control"]); !reflect.DeepEqual(got, []string{"s2"}) {
		t.Fatalf("control cohort: %v", got)
	}

	// "other" was not a requested label, so s4 lands nowhere.
	if _, ok := m["other"]; ok {
		t.Fatalf("unrequested label leaked into membership")
	}
}

func TestSplitPartitionsRows(t *testing.T) {
	m := abundance.Matrix{
		Samples:  []string{"s1", "s2", "s3"},
		Entities: []string{"A"},
		Values:   [][]float64{{0.1}, {0.2}, {0.3}},
	}

	membership := Membership{
		"case":    {"s1": {}, "s3": {}},
		"control": {"s2": {}},
	}

	parts := Split(m, membership)

	if got := parts["case"].Samples; !reflect.DeepEqual(got, []string{"s1", "s3"}) {
		t.Fatalf("case rows: %v", got)
	}
	if got := parts["control"].Samples; !reflect.DeepEqual(got, []string{"s2"}) {
		t.Fatalf("control rows: %v", got)
	}

	// With full coverage the cohorts partition the row set: disjoint, and
	// their union is the input's rows.
	union := append(append([]string{}, parts["case"].Samples...), parts["control"].Samples...)
	sort.Strings(union)
	if !reflect.DeepEqual(union, m.Samples) {
		t.Fatalf("cohorts do not partition the row set: %v", union)
	}
}

func TestSplitDropsUnannotatedSamples(t *testing.T) {
	m := abundance.Matrix{
		Samples:  []string{"s1", "s9"},
		Entities: []string{"A"},
		Values:   [][]float64{{0.1}, {0.9}},
	}

	parts := Split(m, Membership{"case": {"s1": {}}})

	if got := parts["case"].Samples; !reflect.DeepEqual(got, []string{"s1"}) {
		t.Fatalf("case rows: %v", got)
	}
	// s9 is in no cohort and must appear in no output.
	for label, part := range parts {
		for _, s := range part.Samples {
			if s == "s9" {
				t.Fatalf("unannotated sample surfaced in cohort %q", label)
			}
		}
	}
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)

	return out
}
