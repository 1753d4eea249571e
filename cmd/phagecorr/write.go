package main

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/carbocation/pfx"

	"phagecorr/correlation"
)

// missingCell is how undefined or filtered cells appear in the delimited
// output, matching what downstream R tooling expects.
const missingCell = "NA"

// writeGrid persists one labeled matrix as a tab-delimited table with headers
// on both axes.
func writeGrid(dir, name string, g correlation.Grid) error {
	f, err := os.Create(filepath.Join(dir, name+".tsv"))
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	header := append([]string{""}, g.ColLabels...)
	if err := w.Write(header); err != nil {
		return pfx.Err(err)
	}

	for i, rowLabel := range g.RowLabels {
		rec := make([]string, 0, len(g.ColLabels)+1)
		rec = append(rec, rowLabel)
		for _, v := range g.Cells[i] {
			rec = append(rec, formatCell(v))
		}

		if err := w.Write(rec); err != nil {
			return pfx.Err(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return missingCell
	}

	return strconv.FormatFloat(v, 'g', 6, 64)
}
