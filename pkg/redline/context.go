package redline

// Context keeps only changed rows and up to n unchanged rows on either side
// of them. Every run of hidden rows is replaced by one row whose Skipped
// field holds the count. A negative n returns rows unchanged. With n >= 0
// and no changed rows at all, everything collapses into one skip row.
func Context(rows []Row, n int) []Row {
	if n < 0 || len(rows) == 0 {
		return rows
	}

	keep := make([]bool, len(rows))
	for i, r := range rows {
		if !r.Changed() {
			continue
		}
		lo, hi := max(0, i-n), min(len(rows)-1, i+n)
		for k := lo; k <= hi; k++ {
			keep[k] = true
		}
	}

	var out []Row
	hidden := 0
	for i, r := range rows {
		if keep[i] {
			if hidden > 0 {
				out = append(out, Row{Old: emptyCell, New: emptyCell, Skipped: hidden})
				hidden = 0
			}
			out = append(out, r)
			continue
		}
		hidden++
	}
	if hidden > 0 {
		out = append(out, Row{Old: emptyCell, New: emptyCell, Skipped: hidden})
	}
	return out
}
