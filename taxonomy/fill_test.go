package taxonomy

import (
	"reflect"
	"testing"

	"gopkg.in/guregu/null.v3"
)

func label(s string) null.String { return null.StringFrom(s) }

func missing() null.String { return null.String{} }

func sentinel() null.String { return null.StringFrom(SentinelNotClassified) }

func TestFillRow(t *testing.T) {
	for _, v := range []struct {
		name  string
		cells []null.String
		want  []string
	}{
		{
			name:  "complete rows are untouched",
			cells: []null.String{label("Bacteria"), label("Proteobacteria"), label("Escherichia")},
			want:  []string{"Bacteria", "Proteobacteria", "Escherichia"},
		},
		{
			name:  "sentinel mid-row cascades from last known label",
			cells: []null.String{label("Bacteria"), sentinel(), label("E.coli")},
			want:  []string{"Bacteria", "unclassified Bacteria", "E.coli"},
		},
		{
			name:  "all-missing row repeats without deepening",
			cells: []null.String{missing(), missing(), missing()},
			want:  []string{"unclassified", "unclassified unclassified", "unclassified unclassified"},
		},
		{
			name:  "all-sentinel row matches all-missing behavior",
			cells: []null.String{sentinel(), sentinel(), sentinel()},
			want:  []string{"unclassified", "unclassified", "unclassified"},
		},
		{
			name:  "missing cells after a label do not advance the carry",
			cells: []null.String{label("Viruses"), missing(), missing()},
			want:  []string{"Viruses", "unclassified Viruses", "unclassified Viruses"},
		},
		{
			name:  "carry resumes from the most recent concrete label",
			cells: []null.String{label("Viruses"), label("Caudovirales"), missing(), sentinel()},
			want:  []string{"Viruses", "Caudovirales", "unclassified Caudovirales", "unclassified Caudovirales"},
		},
		{
			name:  "near-miss sentinel spellings are ordinary labels",
			cells: []null.String{label("Not Classified"), missing()},
			want:  []string{"Not Classified", "unclassified Not Classified"},
		},
		{
			name:  "missing first column emits the bare carry",
			cells: []null.String{missing(), label("Myoviridae")},
			want:  []string{"unclassified", "Myoviridae"},
		},
	} {
		if got := FillRow(v.cells); !reflect.DeepEqual(got, v.want) {
			t.Fatalf("%s:\ngot:  %v\nwant: %v", v.name, got, v.want)
		}
	}
}

func TestFillRowIdempotentOnCompleteRows(t *testing.T) {
	cells := []null.String{label("Bacteria"), label("Firmicutes"), label("Bacilli"), label("Lactobacillus")}

	once := FillRow(cells)

	asCells := make([]null.String, len(once))
	for i, s := range once {
		asCells[i] = label(s)
	}

	if twice := FillRow(asCells); !reflect.DeepEqual(once, twice) {
		t.Fatalf("FillRow not idempotent: %v then %v", once, twice)
	}
}

func TestFillTable(t *testing.T) {
	in := Table{
		Ranks: []string{"Kingdom", "Phylum", "Genus"},
		Rows: []Row{
			{ID: "t1", Cells: []null.String{label("Bacteria"), sentinel(), label("E.coli")}},
			{ID: "t2", Cells: []null.String{missing(), missing(), missing()}},
		},
	}

	out := FillTable(in)

	if len(out.Rows) != 2 || len(out.Ranks) != 3 {
		t.Fatalf("shape changed: %d rows x %d ranks", len(out.Rows), len(out.Ranks))
	}

	for _, row := range out.Rows {
		for i, cell := range row.Cells {
			if !cell.Valid || cell.String == "" || cell.String == SentinelNotClassified {
				t.Fatalf("row %s cell %d still unresolved: %+v", row.ID, i, cell)
			}
		}
	}

	// The input must be untouched.
	if in.Rows[1].Cells[0].Valid {
		t.Fatalf("FillTable mutated its input")
	}

	labels, err := out.LabelsAt("Phylum")
	if err != nil {
		t.Fatal(err)
	}
	if labels["t1"] != "unclassified Bacteria" || labels["t2"] != "unclassified unclassified" {
		t.Fatalf("unexpected Phylum labels: %+v", labels)
	}
}

func TestRankIndexSchemaMismatch(t *testing.T) {
	tab := Table{Ranks: []string{"Kingdom", "Genus"}}

	if _, err := tab.RankIndex("Species"); err == nil {
		t.Fatalf("expected schema mismatch for unknown rank")
	}

	if i, err := tab.RankIndex("Genus"); err != nil || i != 1 {
		t.Fatalf("RankIndex(Genus) = %d, %v", i, err)
	}
}
