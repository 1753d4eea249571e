package taxonomy

import "gopkg.in/guregu/null.v3"

// FillRow resolves the missing and sentinel cells of one row into concrete
// labels. It is a pure left-to-right fold over the cells with a single carry
// value, lastKnown, which starts at "unclassified" and only ever advances when
// a cell holds a real (non-sentinel) label. Synthesized labels never become
// the carry value, so a fully-missing row fills to "unclassified" followed by
// "unclassified unclassified" at every later rank, repeated rather than
// deepening. That repetition matches the upstream analysis and is asserted by
// tests; do not "fix" it here.
func FillRow(cells []null.String) []string {
	out := make([]string, len(cells))

	lastKnown := Unclassified
	for i, cell := range cells {
		switch {
		case cell.Valid && cell.String != "" && cell.String != SentinelNotClassified:
			out[i] = cell.String
			lastKnown = cell.String
		case !cell.Valid || cell.String == "":
			if i == 0 {
				out[i] = lastKnown
			} else {
				out[i] = Unclassified + " " + lastKnown
			}
		default:
			// The classifier's "not classified" sentinel.
			if lastKnown == Unclassified {
				out[i] = Unclassified
			} else {
				out[i] = Unclassified + " " + lastKnown
			}
		}
	}

	return out
}

// FillTable applies FillRow to every row and returns a new table with the
// same shape and rank order, leaving the input untouched. The result contains
// no missing or sentinel cells.
func FillTable(t Table) Table {
	out := Table{
		Ranks: append([]string{}, t.Ranks...),
		Rows:  make([]Row, 0, len(t.Rows)),
	}

	for _, row := range t.Rows {
		filled := FillRow(row.Cells)

		cells := make([]null.String, len(filled))
		for i, label := range filled {
			cells[i] = null.StringFrom(label)
		}

		out.Rows = append(out.Rows, Row{ID: row.ID, Cells: cells})
	}

	return out
}
