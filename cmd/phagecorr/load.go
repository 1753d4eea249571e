package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"

	"phagecorr/abundance"
	"phagecorr/cohort"
	"phagecorr/taxonomy"
)

func init() {
	// All of our inputs are tab-delimited.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})
}

// loadTaxonomy reads a tab-delimited classification table whose first column
// is the taxonomic unit ID and whose remaining header columns name the ranks
// in their authoritative order. Empty cells become missing values; the
// literal "not classified" is preserved for the filler to resolve.
func loadTaxonomy(path string) (taxonomy.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return taxonomy.Table{}, pfx.Err(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return taxonomy.Table{}, pfx.Err(err)
	}

	if len(records) < 1 || len(records[0]) < 2 {
		return taxonomy.Table{}, pfx.Err(fmt.Errorf("%s: want a header with an ID column plus rank columns", path))
	}

	out := taxonomy.Table{Ranks: records[0][1:]}
	for _, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			return taxonomy.Table{}, pfx.Err(fmt.Errorf("%s: row %q has %d fields, want %d", path, rec[0], len(rec), len(records[0])))
		}

		cells := make([]null.String, 0, len(out.Ranks))
		for _, field := range rec[1:] {
			if field == "" {
				cells = append(cells, null.String{})
			} else {
				cells = append(cells, null.StringFrom(field))
			}
		}

		out.Rows = append(out.Rows, taxonomy.Row{ID: rec[0], Cells: cells})
	}

	return out, nil
}

type unitCountRecord struct {
	SampleID string  `csv:"sample_id"`
	UnitID   string  `csv:"unit_id"`
	Count    float64 `csv:"count"`
}

// loadUnitCounts reads raw long-format classification counts.
func loadUnitCounts(path string) ([]abundance.UnitCount, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	records := []*unitCountRecord{}
	if err := gocsv.UnmarshalBytes(fileBytes, &records); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]abundance.UnitCount, 0, len(records))
	for _, rec := range records {
		out = append(out, abundance.UnitCount{Sample: rec.SampleID, Unit: rec.UnitID, Count: rec.Count})
	}

	return out, nil
}

type annotationRecord struct {
	SampleID  string `csv:"sample_id"`
	Covariate string `csv:"covariate"`
}

// loadAnnotations reads one sample-annotation source table.
func loadAnnotations(path string) ([]cohort.Annotation, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	records := []*annotationRecord{}
	if err := gocsv.UnmarshalBytes(fileBytes, &records); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]cohort.Annotation, 0, len(records))
	for _, rec := range records {
		out = append(out, cohort.Annotation{Sample: rec.SampleID, Covariate: rec.Covariate})
	}

	return out, nil
}
