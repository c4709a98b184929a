package redline

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/sw33tLie/rulewatch/pkg/diff"
)

func TestRenderAppendedLine(t *testing.T) {
	old := []string{"(a) foo", "(b) bar"}
	new := []string{"(a) foo", "(b) bar", "(c) baz"}

	rows := Render(diff.Compute(old, new), old, new)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := Row{
		Old: Cell{Class: ClassEmpty},
		New: Cell{LineNo: 3, Text: "(c) baz", Class: ClassAdded},
	}
	if !reflect.DeepEqual(rows[2], want) {
		t.Fatalf("unexpected last row.\nwant: %+v\ngot:  %+v", want, rows[2])
	}
	for i, r := range rows[:2] {
		if r.Old.Class != ClassEqual || r.New.Class != ClassEqual || r.Old.LineNo != i+1 || r.New.LineNo != i+1 {
			t.Fatalf("row %d should be equal with line %d on both sides: %+v", i, i+1, r)
		}
	}
}

func TestRenderReplacePadding(t *testing.T) {
	old := []string{"keep", "o1", "o2", "o3", "end"}
	new := []string{"keep", "n1", "end"}

	rows := Render(diff.Compute(old, new), old, new)
	want := []Row{
		{Old: Cell{LineNo: 1, Text: "keep", Class: ClassEqual}, New: Cell{LineNo: 1, Text: "keep", Class: ClassEqual}},
		{Old: Cell{LineNo: 2, Text: "o1", Class: ClassDeleted}, New: Cell{LineNo: 2, Text: "n1", Class: ClassAdded}},
		{Old: Cell{LineNo: 3, Text: "o2", Class: ClassDeleted}, New: Cell{Class: ClassEmpty}},
		{Old: Cell{LineNo: 4, Text: "o3", Class: ClassDeleted}, New: Cell{Class: ClassEmpty}},
		{Old: Cell{LineNo: 5, Text: "end", Class: ClassEqual}, New: Cell{LineNo: 3, Text: "end", Class: ClassEqual}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("unexpected rows.\nwant: %+v\ngot:  %+v", want, rows)
	}
}

func TestRenderReorderedBlockIsNotRealigned(t *testing.T) {
	old := []string{"p", "q"}
	new := []string{"q2", "p2", "r2"}

	rows := Render(diff.Compute(old, new), old, new)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Old.Text != "p" || rows[0].New.Text != "q2" {
		t.Fatalf("replace rows must pair by index, got %+v", rows[0])
	}
	if rows[2].Old.Class != ClassEmpty || rows[2].New.Text != "r2" {
		t.Fatalf("unexpected padding row %+v", rows[2])
	}
}

func TestRenderDelete(t *testing.T) {
	old := []string{"a", "b"}
	rows := Render(diff.Compute(old, nil), old, nil)
	want := []Row{
		{Old: Cell{LineNo: 1, Text: "a", Class: ClassDeleted}, New: Cell{Class: ClassEmpty}},
		{Old: Cell{LineNo: 2, Text: "b", Class: ClassDeleted}, New: Cell{Class: ClassEmpty}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("unexpected rows.\nwant: %+v\ngot:  %+v", want, rows)
	}
}

func TestRowCountLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []string{"x", "y", "z", "(a)", ""}
	lines := func() []string {
		out := make([]string, rng.Intn(10))
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return out
	}
	for i := 0; i < 300; i++ {
		old, new := lines(), lines()
		script := diff.Compute(old, new)
		rows := Render(script, old, new)
		if len(rows) != ExpectedRows(script) {
			t.Fatalf("case %d: %d rows, expected %d", i, len(rows), ExpectedRows(script))
		}
		if !reflect.DeepEqual(rows, Render(script, old, new)) {
			t.Fatalf("case %d: rendering is not deterministic", i)
		}
	}
}

func TestContext(t *testing.T) {
	var old, new []string
	for _, s := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		old = append(old, s)
		new = append(new, s)
	}
	new[4] = "five"

	rows := Render(diff.Compute(old, new), old, new)

	got := Context(rows, 1)
	if len(got) != 5 {
		t.Fatalf("expected 5 rows, got %d: %+v", len(got), got)
	}
	if got[0].Skipped != 3 || got[4].Skipped != 2 {
		t.Fatalf("unexpected skip rows %+v / %+v", got[0], got[4])
	}
	if got[2].Old.Text != "5" || got[2].New.Text != "five" {
		t.Fatalf("changed row missing, got %+v", got[2])
	}

	if full := Context(rows, -1); len(full) != len(rows) {
		t.Fatalf("negative context should keep all rows")
	}

	same := Render(diff.Compute(old, old), old, old)
	if collapsed := Context(same, 2); len(collapsed) != 1 || collapsed[0].Skipped != len(old) {
		t.Fatalf("unchanged input should collapse to one skip row, got %+v", collapsed)
	}
}
