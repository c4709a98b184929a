// Package redline aligns an edit script into side-by-side rows: old text on
// the left, new text on the right, each cell with its 1-based line number
// and a class used by the presentation layer.
package redline

import (
	"github.com/sw33tLie/rulewatch/pkg/diff"
)

// Class is the visual classification of one side of a row.
type Class string

const (
	ClassEqual   Class = "equal"
	ClassAdded   Class = "added"
	ClassDeleted Class = "deleted"
	ClassEmpty   Class = "empty"
)

// Cell is one side of a row. LineNo is 0 for empty filler cells.
type Cell struct {
	LineNo int    `json:"line_no,omitempty"`
	Text   string `json:"text"`
	Class  Class  `json:"class"`
}

// Row pairs the old and new side. Skipped is non-zero only for rows
// produced by Context, and counts the unchanged rows hidden at that spot.
type Row struct {
	Old     Cell `json:"old"`
	New     Cell `json:"new"`
	Skipped int  `json:"skipped,omitempty"`
}

// Changed reports whether either side is added or deleted.
func (r Row) Changed() bool {
	return r.Old.Class == ClassDeleted || r.New.Class == ClassAdded
}

var emptyCell = Cell{Class: ClassEmpty}

// Render turns script into rows.
//
// Equal blocks give one equal row per line. Deletes and inserts give one row
// per line with an empty cell on the other side. A replaced block of p old
// and q new lines gives max(p, q) rows pairing old[i] with new[i] by index,
// padding the shorter side with empty cells; the block is not re-aligned.
func Render(script diff.Script, a, b []string) []Row {
	rows := make([]Row, 0, ExpectedRows(script))
	for _, op := range script {
		switch op.Tag {
		case diff.Equal:
			for k := 0; k < op.OldLen(); k++ {
				rows = append(rows, Row{
					Old: Cell{LineNo: op.I1 + k + 1, Text: a[op.I1+k], Class: ClassEqual},
					New: Cell{LineNo: op.J1 + k + 1, Text: b[op.J1+k], Class: ClassEqual},
				})
			}
		case diff.Delete:
			for k := op.I1; k < op.I2; k++ {
				rows = append(rows, Row{
					Old: Cell{LineNo: k + 1, Text: a[k], Class: ClassDeleted},
					New: emptyCell,
				})
			}
		case diff.Insert:
			for k := op.J1; k < op.J2; k++ {
				rows = append(rows, Row{
					Old: emptyCell,
					New: Cell{LineNo: k + 1, Text: b[k], Class: ClassAdded},
				})
			}
		case diff.Replace:
			n := max(op.OldLen(), op.NewLen())
			for k := 0; k < n; k++ {
				row := Row{Old: emptyCell, New: emptyCell}
				if k < op.OldLen() {
					row.Old = Cell{LineNo: op.I1 + k + 1, Text: a[op.I1+k], Class: ClassDeleted}
				}
				if k < op.NewLen() {
					row.New = Cell{LineNo: op.J1 + k + 1, Text: b[op.J1+k], Class: ClassAdded}
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// ExpectedRows is the number of rows Render produces for script.
func ExpectedRows(script diff.Script) int {
	n := 0
	for _, op := range script {
		n += max(op.OldLen(), op.NewLen())
	}
	return n
}
