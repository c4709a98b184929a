// Package diff computes line-based edit scripts between two snapshots of a
// document. Lines are compared by exact equality; no whitespace or case
// normalization is applied.
package diff

import (
	"fmt"
	"sort"
)

// Tag classifies an opcode.
type Tag int

const (
	Equal Tag = iota
	Insert
	Delete
	Replace
)

func (t Tag) String() string {
	switch t {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Replace:
		return "replace"
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// MarshalText lets opcodes serialize with readable tags.
func (t Tag) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText reads the names written by MarshalText, so stored reports
// decode back into scripts.
func (t *Tag) UnmarshalText(b []byte) error {
	for _, c := range []Tag{Equal, Insert, Delete, Replace} {
		if c.String() == string(b) {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown opcode tag %q", b)
}

// Opcode is one block of an edit script. Ranges are half-open:
// old[I1:I2] and new[J1:J2].
type Opcode struct {
	Tag Tag `json:"tag"`
	I1  int `json:"i1"`
	I2  int `json:"i2"`
	J1  int `json:"j1"`
	J2  int `json:"j2"`
}

// OldLen is the number of old lines covered by the opcode.
func (o Opcode) OldLen() int { return o.I2 - o.I1 }

// NewLen is the number of new lines covered by the opcode.
func (o Opcode) NewLen() int { return o.J2 - o.J1 }

func (o Opcode) String() string {
	return fmt.Sprintf("%s(%d,%d;%d,%d)", o.Tag, o.I1, o.I2, o.J1, o.J2)
}

// Script is an ordered edit script turning old lines into new lines.
type Script []Opcode

// Validate reports whether the script partitions [0,lenOld) and [0,lenNew)
// exactly, in order, and whether every opcode is well formed for its tag.
func (s Script) Validate(lenOld, lenNew int) error {
	i, j := 0, 0
	for n, op := range s {
		if op.I1 != i || op.J1 != j {
			return fmt.Errorf("opcode %d %s: expected start (%d,%d)", n, op, i, j)
		}
		if op.I2 < op.I1 || op.J2 < op.J1 {
			return fmt.Errorf("opcode %d %s: negative range", n, op)
		}
		switch op.Tag {
		case Equal:
			if op.OldLen() != op.NewLen() || op.OldLen() == 0 {
				return fmt.Errorf("opcode %d %s: equal block must have matching non-empty ranges", n, op)
			}
		case Insert:
			if op.OldLen() != 0 || op.NewLen() == 0 {
				return fmt.Errorf("opcode %d %s: insert must only cover new lines", n, op)
			}
		case Delete:
			if op.NewLen() != 0 || op.OldLen() == 0 {
				return fmt.Errorf("opcode %d %s: delete must only cover old lines", n, op)
			}
		case Replace:
			if op.OldLen() == 0 || op.NewLen() == 0 {
				return fmt.Errorf("opcode %d %s: replace needs both ranges", n, op)
			}
		default:
			return fmt.Errorf("opcode %d: unknown tag %d", n, int(op.Tag))
		}
		i, j = op.I2, op.J2
	}
	if i != lenOld || j != lenNew {
		return fmt.Errorf("script ends at (%d,%d), want (%d,%d)", i, j, lenOld, lenNew)
	}
	return nil
}

// match is a matching block: a[A:A+Size] == b[B:B+Size].
type match struct {
	A, B, Size int
}

// Compute returns the edit script turning a (old lines) into b (new lines).
//
// The alignment is built by repeatedly taking the longest matching block of
// the current ranges and recursing on both sides of it. When several blocks
// share the maximal length, the one starting earliest in old wins, then the
// one starting earliest in new. Gaps between matches become Replace, Delete
// or Insert depending on which sides are non-empty.
func Compute(a, b []string) Script {
	blocks := matchingBlocks(a, b)

	var script Script
	i, j := 0, 0
	for _, m := range blocks {
		switch {
		case i < m.A && j < m.B:
			script = append(script, Opcode{Tag: Replace, I1: i, I2: m.A, J1: j, J2: m.B})
		case i < m.A:
			script = append(script, Opcode{Tag: Delete, I1: i, I2: m.A, J1: j, J2: m.B})
		case j < m.B:
			script = append(script, Opcode{Tag: Insert, I1: i, I2: m.A, J1: j, J2: m.B})
		}
		i, j = m.A+m.Size, m.B+m.Size
		if m.Size > 0 {
			script = append(script, Opcode{Tag: Equal, I1: m.A, I2: i, J1: m.B, J2: j})
		}
	}
	return script
}

// matchingBlocks returns the sorted, merged matching blocks of a and b,
// terminated by the sentinel {len(a), len(b), 0}.
func matchingBlocks(a, b []string) []match {
	// Positions of every line of b, ascending.
	b2j := make(map[string][]int, len(b))
	for j, line := range b {
		b2j[line] = append(b2j[line], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	var found []match
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if m.Size == 0 {
			continue
		}
		found = append(found, m)
		if s.alo < m.A && s.blo < m.B {
			queue = append(queue, span{s.alo, m.A, s.blo, m.B})
		}
		if m.A+m.Size < s.ahi && m.B+m.Size < s.bhi {
			queue = append(queue, span{m.A + m.Size, s.ahi, m.B + m.Size, s.bhi})
		}
	}
	sort.Slice(found, func(x, y int) bool {
		if found[x].A != found[y].A {
			return found[x].A < found[y].A
		}
		return found[x].B < found[y].B
	})

	// Collapse blocks that touch on both sides.
	var merged []match
	for _, m := range found {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.A+last.Size == m.A && last.B+last.Size == m.B {
				last.Size += m.Size
				continue
			}
		}
		merged = append(merged, m)
	}
	return append(merged, match{A: len(a), B: len(b)})
}

// longestMatch finds the longest block with a[A:A+Size] == b[B:B+Size]
// inside a[alo:ahi] and b[blo:bhi]. Among equally long blocks it returns
// the one starting earliest in a, and of those the one starting earliest
// in b.
func longestMatch(a []string, b2j map[string][]int, alo, ahi, blo, bhi int) match {
	best := match{A: alo, B: blo}
	// j2len[j] is the length of the match ending at a[i-1] and b[j].
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.Size {
				best = match{A: i - k + 1, B: j - k + 1, Size: k}
			}
		}
		j2len = next
	}
	return best
}
