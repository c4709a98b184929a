// Package changes flattens an edit script into tagged change lines, the
// form handed to entity extraction and printed in change summaries.
package changes

import (
	"fmt"

	"github.com/sw33tLie/rulewatch/pkg/diff"
)

// Kind tags a change line.
type Kind int

const (
	Removed Kind = iota
	Added
	BlockStart
	BlockEnd
)

const (
	blockStartMarker = "--- REPLACED BLOCK ---"
	blockEndMarker   = "--- END REPLACED BLOCK ---"
)

func (k Kind) String() string {
	switch k {
	case Removed:
		return "removed"
	case Added:
		return "added"
	case BlockStart:
		return "block_start"
	case BlockEnd:
		return "block_end"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Line is a single changed line, or a marker around a replaced block.
type Line struct {
	Kind Kind
	Text string
}

func (l Line) String() string {
	switch l.Kind {
	case Removed:
		return "- " + l.Text
	case Added:
		return "+ " + l.Text
	case BlockStart:
		return blockStartMarker
	case BlockEnd:
		return blockEndMarker
	}
	return l.Text
}

// IsMarker reports whether the line brackets a replaced block.
func (l Line) IsMarker() bool { return l.Kind == BlockStart || l.Kind == BlockEnd }

// Extract walks the script in order. Deleted lines become removals,
// inserted lines become additions, and a replaced block emits all of its
// removals followed by all of its additions between a BlockStart and a
// BlockEnd marker. Equal blocks produce nothing.
func Extract(script diff.Script, a, b []string) []Line {
	var out []Line
	for _, op := range script {
		switch op.Tag {
		case diff.Delete:
			out = appendLines(out, Removed, a[op.I1:op.I2])
		case diff.Insert:
			out = appendLines(out, Added, b[op.J1:op.J2])
		case diff.Replace:
			out = append(out, Line{Kind: BlockStart})
			out = appendLines(out, Removed, a[op.I1:op.I2])
			out = appendLines(out, Added, b[op.J1:op.J2])
			out = append(out, Line{Kind: BlockEnd})
		}
	}
	return out
}

func appendLines(out []Line, kind Kind, texts []string) []Line {
	for _, t := range texts {
		out = append(out, Line{Kind: kind, Text: t})
	}
	return out
}

// Strings renders lines in "+ text" / "- text" form. Block markers are kept
// only when withMarkers is set.
func Strings(lines []Line, withMarkers bool) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.IsMarker() && !withMarkers {
			continue
		}
		out = append(out, l.String())
	}
	return out
}

// AddedText returns the text of every added line, in order.
func AddedText(lines []Line) []string { return texts(lines, Added) }

// RemovedText returns the text of every removed line, in order.
func RemovedText(lines []Line) []string { return texts(lines, Removed) }

func texts(lines []Line, kind Kind) []string {
	var out []string
	for _, l := range lines {
		if l.Kind == kind {
			out = append(out, l.Text)
		}
	}
	return out
}

// HasChanges is true iff the script contains any non-equal opcode.
func HasChanges(script diff.Script) bool {
	for _, op := range script {
		if op.Tag != diff.Equal {
			return true
		}
	}
	return false
}
