package report

import (
	"bytes"
	"fmt"
	"io"

	godiff "github.com/sourcegraph/go-diff/diff"
	"github.com/sw33tLie/rulewatch/pkg/changes"
	"github.com/sw33tLie/rulewatch/pkg/diff"
)

// DefaultUnifiedContext is the number of unchanged lines kept around each
// hunk when the caller passes a negative context.
const DefaultUnifiedContext = 3

// WriteUnified writes rep as a unified diff. Identical versions write
// nothing.
func WriteUnified(w io.Writer, rep Report, context int) error {
	if context < 0 {
		context = DefaultUnifiedContext
	}
	fd := &godiff.FileDiff{
		OrigName: unifiedName(rep.DocumentID, rep.From),
		NewName:  unifiedName(rep.DocumentID, rep.To),
	}
	for _, group := range groupOpcodes(rep.Script, context) {
		fd.Hunks = append(fd.Hunks, hunk(group, rep.OldLines, rep.NewLines))
	}
	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return fmt.Errorf("printing unified diff for %s: %w", rep.DocumentID, err)
	}
	_, err = w.Write(out)
	return err
}

func unifiedName(documentID string, v Version) string {
	if v.SnapshotID != 0 {
		return fmt.Sprintf("%s@%d", documentID, v.SnapshotID)
	}
	return documentID + "@" + v.Label
}

// groupOpcodes splits script into hunks with at most n lines of context
// on each side. Equal runs longer than 2n split a hunk in two.
func groupOpcodes(script diff.Script, n int) []diff.Script {
	if !changes.HasChanges(script) {
		return nil
	}
	codes := append(diff.Script(nil), script...)
	if first := &codes[0]; first.Tag == diff.Equal {
		first.I1 = max(first.I1, first.I2-n)
		first.J1 = max(first.J1, first.J2-n)
	}
	if last := &codes[len(codes)-1]; last.Tag == diff.Equal {
		last.I2 = min(last.I2, last.I1+n)
		last.J2 = min(last.J2, last.J1+n)
	}

	var groups []diff.Script
	var group diff.Script
	for _, op := range codes {
		if op.Tag == diff.Equal && op.OldLen() > 2*n {
			group = append(group, diff.Opcode{Tag: diff.Equal, I1: op.I1, I2: min(op.I2, op.I1+n), J1: op.J1, J2: min(op.J2, op.J1+n)})
			groups = append(groups, group)
			group = nil
			op.I1 = max(op.I1, op.I2-n)
			op.J1 = max(op.J1, op.J2-n)
		}
		group = append(group, op)
	}
	if len(group) > 0 && !(len(group) == 1 && group[0].Tag == diff.Equal) {
		groups = append(groups, group)
	}
	return groups
}

func hunk(group diff.Script, a, b []string) *godiff.Hunk {
	first, last := group[0], group[len(group)-1]
	h := &godiff.Hunk{
		OrigStartLine: startLine(first.I1, last.I2),
		OrigLines:     int32(last.I2 - first.I1),
		NewStartLine:  startLine(first.J1, last.J2),
		NewLines:      int32(last.J2 - first.J1),
	}
	var body bytes.Buffer
	for _, op := range group {
		if op.Tag == diff.Equal {
			writePrefixed(&body, ' ', a[op.I1:op.I2])
			continue
		}
		writePrefixed(&body, '-', a[op.I1:op.I2])
		writePrefixed(&body, '+', b[op.J1:op.J2])
	}
	h.Body = body.Bytes()
	return h
}

// startLine is 1-based, except that an empty range names the line before it.
func startLine(lo, hi int) int32 {
	if hi == lo {
		return int32(lo)
	}
	return int32(lo + 1)
}

func writePrefixed(buf *bytes.Buffer, prefix byte, lines []string) {
	for _, l := range lines {
		buf.WriteByte(prefix)
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
}
