// Package report turns an edit script between two snapshots into redline
// artifacts: a self-contained HTML page, a unified diff and file names for
// the analysis sidecar.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sw33tLie/rulewatch/pkg/changes"
	"github.com/sw33tLie/rulewatch/pkg/diff"
	"github.com/sw33tLie/rulewatch/pkg/redline"
)

const (
	HTMLSuffix     = "_CHANGE_REPORT.html"
	AnalysisSuffix = "_CHANGE_ANALYSIS.json"
)

// Version labels one side of a redline.
type Version struct {
	SnapshotID int64     `json:"snapshot_id,omitempty"`
	CapturedAt time.Time `json:"captured_at,omitempty"`
	Label      string    `json:"label"`
}

// Subject identifies what is being compared.
type Subject struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name,omitempty"`
	Source       string  `json:"source,omitempty"`
	From         Version `json:"from"`
	To           Version `json:"to"`
}

// Report holds everything needed to render a redline.
type Report struct {
	Subject
	Script      diff.Script     `json:"script"`
	OldLines    []string        `json:"-"`
	NewLines    []string        `json:"-"`
	Rows        []redline.Row   `json:"rows"`
	Summary     changes.Summary `json:"summary"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// New builds a report from an already computed script. A negative context
// keeps every unchanged row; otherwise unchanged runs further than context
// rows from a change are collapsed.
func New(subject Subject, a, b []string, script diff.Script, context int) Report {
	rows := redline.Render(script, a, b)
	if context >= 0 {
		rows = redline.Context(rows, context)
	}
	if subject.From.Label == "" {
		subject.From.Label = "Baseline Version"
	}
	if subject.To.Label == "" {
		subject.To.Label = "New Version"
	}
	return Report{
		Subject:     subject,
		Script:      script,
		OldLines:    a,
		NewLines:    b,
		Rows:        rows,
		Summary:     changes.Summarize(script),
		GeneratedAt: time.Now().UTC(),
	}
}

// Compare splits both texts into lines, diffs them and builds the report.
func Compare(subject Subject, oldText, newText string, context int) Report {
	a, b := diff.SplitLines(oldText), diff.SplitLines(newText)
	return New(subject, a, b, diff.Compute(a, b), context)
}

// Changed reports whether the two versions differ.
func (r Report) Changed() bool { return changes.HasChanges(r.Script) }

// FileName returns the artifact name for documentID, e.g.
// FileName("FINRA-2010", HTMLSuffix) == "FINRA-2010_CHANGE_REPORT.html".
// Characters outside [A-Za-z0-9._-] are replaced so the id cannot escape
// the report directory. When that changes the id, the first eight hex
// digits of its SHA-256 are appended, so "a/b" and "a_b" get distinct files.
func FileName(documentID, suffix string) string {
	var sb strings.Builder
	for _, r := range documentID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		case r == '.':
			if sb.Len() == 0 {
				sb.WriteRune('_')
			} else {
				sb.WriteRune(r)
			}
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("document")
	}
	name := sb.String()
	if name != documentID {
		sum := sha256.Sum256([]byte(documentID))
		name += "-" + hex.EncodeToString(sum[:4])
	}
	return name + suffix
}
