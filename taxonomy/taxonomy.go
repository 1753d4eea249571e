// Package taxonomy models hierarchically-ranked classification tables for
// bacteria and phage taxa and fills in their missing or unresolved labels so
// that every (taxon, rank) cell carries an informative name.
package taxonomy

import (
	"errors"
	"fmt"

	"github.com/carbocation/pfx"
	"gopkg.in/guregu/null.v3"
)

// SentinelNotClassified is the placeholder emitted by the upstream classifier
// when a rank was evaluated but could not be resolved. It is distinct from a
// missing cell: the classifier looked and found nothing. Matching is exact;
// any other spelling is treated as an ordinary label.
const SentinelNotClassified = "not classified"

// Unclassified is the label stem used when synthesizing names for missing or
// unresolved cells.
const Unclassified = "unclassified"

// ErrSchemaMismatch indicates that a requested rank or column name does not
// exist in the table's schema.
var ErrSchemaMismatch = errors.New("taxonomy: name not present in schema")

// Row is one taxonomic unit: its identifier plus one cell per rank, in the
// table's rank order. An invalid cell is a missing value.
type Row struct {
	ID    string
	Cells []null.String
}

// Table is a classification table. Ranks is the authoritative column order
// (broadest first, e.g. Kingdom before Genus) and is never reordered; every
// row carries exactly one cell per rank.
type Table struct {
	Ranks []string
	Rows  []Row
}

// RankIndex resolves a rank name to its column position. Unknown names fail
// with ErrSchemaMismatch rather than silently selecting a partial table.
func (t Table) RankIndex(rank string) (int, error) {
	for i, r := range t.Ranks {
		if r == rank {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: rank %q (have %v)", ErrSchemaMismatch, rank, t.Ranks)
}

// LabelsAt returns the map from taxonomic unit ID to its label at the named
// rank. It is only meaningful on a filled table; on an unfilled table, missing
// cells yield empty labels.
func (t Table) LabelsAt(rank string) (map[string]string, error) {
	col, err := t.RankIndex(rank)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(t.Rows))
	for _, row := range t.Rows {
		if col >= len(row.Cells) {
			return nil, pfx.Err(fmt.Errorf("taxonomy: row %q has %d cells, want %d", row.ID, len(row.Cells), len(t.Ranks)))
		}
		out[row.ID] = row.Cells[col].String
	}

	return out, nil
}
