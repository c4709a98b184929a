// Package audit runs the check cycle: fetch the current text of a tracked
// document, compare it with the latest archived snapshot, write a redline
// report when it changed, and append the new snapshot.
package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sw33tLie/rulewatch/pkg/changes"
	"github.com/sw33tLie/rulewatch/pkg/diff"
	"github.com/sw33tLie/rulewatch/pkg/documents"
	"github.com/sw33tLie/rulewatch/pkg/entities"
	"github.com/sw33tLie/rulewatch/pkg/fetcher"
	"github.com/sw33tLie/rulewatch/pkg/report"
	"github.com/sw33tLie/rulewatch/pkg/storage"
)

const (
	BaselineSummary     = "Initial Baseline"
	ChangeSummaryPrefix = "Change Detected"
	DefaultReportDir    = "reports"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Store is the part of the archive the cycle needs. *storage.DB satisfies it.
type Store interface {
	Latest(ctx context.Context, documentID string) (storage.Snapshot, bool, error)
	Append(ctx context.Context, documentID, text, summary string) (int64, error)
}

// Status is the result of one document check.
type Status string

const (
	StatusBaseline  Status = "baseline"
	StatusUnchanged Status = "unchanged"
	StatusChanged   Status = "changed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome describes what a check did for one document.
type Outcome struct {
	DocumentID   string
	Status       Status
	SnapshotID   int64 // new snapshot, 0 when nothing was appended
	BaselineID   int64 // snapshot compared against, 0 on first observation
	ReportPath   string
	AnalysisPath string
	Summary      string
	Changes      changes.Summary
	Analysis     *entities.Analysis
	Duration     time.Duration
	Err          error
}

// CycleError is a failure of one step of the cycle for one document.
type CycleError struct {
	DocumentID string
	Op         string
	Err        error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.DocumentID, e.Op, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// Auditor holds the collaborators of the check cycle. Store and Fetcher are
// required; everything else has a default.
type Auditor struct {
	Store     Store
	Fetcher   fetcher.Fetcher
	Extractor entities.Extractor // optional; nil skips entity analysis
	ReportDir string             // defaults to "reports"
	Context   int                // unchanged rows kept around changes in reports, <0 keeps all
	Log       Logger             // optional; nil = no logging
	Now       func() time.Time   // optional; defaults to time.Now
	Metrics   *Metrics           // optional

	// OnDocumentDone is called once per document by RunBatch, from worker
	// goroutines. Nil = no callback.
	OnDocumentDone func(Outcome)
}

func (a *Auditor) log() Logger {
	if a.Log == nil {
		return nopLogger{}
	}
	return a.Log
}

func (a *Auditor) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Auditor) reportDir() string {
	if a.ReportDir == "" {
		return DefaultReportDir
	}
	return a.ReportDir
}

// CheckDocument runs one cycle for doc. The returned error, when not nil, is
// a *CycleError and is also stored in Outcome.Err; a fetch failure yields
// StatusSkipped, every other failure StatusFailed. Nothing is appended
// unless the cycle reaches its last step.
func (a *Auditor) CheckDocument(ctx context.Context, doc documents.Document) (Outcome, error) {
	start := time.Now()
	out := a.check(ctx, doc)
	out.Duration = time.Since(start)
	a.Metrics.observe(out.Status, out.Duration)
	return out, out.Err
}

func (a *Auditor) check(ctx context.Context, doc documents.Document) Outcome {
	log := a.log()
	out := Outcome{DocumentID: doc.ID}
	fail := func(op string, err error) Outcome {
		out.Status = StatusFailed
		var ff *fetcher.FetchFailure
		if errors.As(err, &ff) {
			out.Status = StatusSkipped
		}
		out.Err = &CycleError{DocumentID: doc.ID, Op: op, Err: err}
		return out
	}

	log.Debugf("[%s] Fetching %s", doc.ID, doc.Locator)
	res, err := a.Fetcher.Fetch(ctx, doc.Locator)
	if err != nil {
		return fail("fetch", err)
	}
	if err := fetcher.Validate(doc.Locator, res.Text); err != nil {
		return fail("fetch", err)
	}

	latest, ok, err := a.Store.Latest(ctx, doc.ID)
	if err != nil {
		return fail("latest", err)
	}

	if !ok {
		log.Infof("[%s] No baseline found, recording initial snapshot", doc.ID)
		id, err := a.Store.Append(ctx, doc.ID, res.Text, BaselineSummary)
		if err != nil {
			return fail("append", err)
		}
		out.Status = StatusBaseline
		out.SnapshotID = id
		out.Summary = BaselineSummary
		return out
	}

	out.BaselineID = latest.ID
	oldLines, newLines := diff.SplitLines(latest.Text), diff.SplitLines(res.Text)
	script := diff.Compute(oldLines, newLines)
	if err := script.Validate(len(oldLines), len(newLines)); err != nil {
		return fail("diff", err)
	}
	out.Changes = changes.Summarize(script)

	if !changes.HasChanges(script) {
		log.Infof("[%s] No changes detected", doc.ID)
		out.Status = StatusUnchanged
		return out
	}
	log.Infof("[%s] Changes detected: %s", doc.ID, out.Changes)

	lines := changes.Extract(script, oldLines, newLines)
	for _, l := range changes.Strings(lines, false) {
		log.Debugf("[%s] %s", doc.ID, l)
	}
	if a.Extractor != nil {
		analysis := a.Extractor.Analyze(lines)
		out.Analysis = &analysis
	}

	now := a.now()
	rep := report.New(report.Subject{
		DocumentID:   doc.ID,
		DocumentName: doc.Label(),
		Source:       doc.SourceDomain(),
		From:         report.Version{SnapshotID: latest.ID, CapturedAt: latest.CapturedAt, Label: "Baseline Version"},
		To:           report.Version{CapturedAt: now, Label: "New Version"},
	}, oldLines, newLines, script, a.Context)
	rep.GeneratedAt = now

	out.ReportPath, out.AnalysisPath, err = a.writeArtifacts(doc.ID, rep, out.Analysis)
	if err != nil {
		return fail("report", err)
	}

	out.Summary = fmt.Sprintf("%s: +%d -%d (report: %s)", ChangeSummaryPrefix, out.Changes.Added, out.Changes.Removed, out.ReportPath)
	id, err := a.Store.Append(ctx, doc.ID, res.Text, out.Summary)
	if err != nil {
		return fail("append", err)
	}
	out.Status = StatusChanged
	out.SnapshotID = id
	log.Infof("[%s] Redline report written to %s", doc.ID, out.ReportPath)
	return out
}

// writeArtifacts writes the HTML redline and, when present, the analysis
// sidecar. Existing files for the same document are replaced.
func (a *Auditor) writeArtifacts(documentID string, rep report.Report, analysis *entities.Analysis) (string, string, error) {
	dir := a.reportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	reportPath := filepath.Join(dir, report.FileName(documentID, report.HTMLSuffix))
	f, err := os.Create(reportPath)
	if err != nil {
		return "", "", err
	}
	if err := report.WriteHTML(f, rep); err != nil {
		f.Close()
		return "", "", err
	}
	if err := f.Close(); err != nil {
		return "", "", err
	}

	if analysis == nil {
		return reportPath, "", nil
	}
	data, err := analysis.JSON()
	if err != nil {
		return "", "", fmt.Errorf("encoding analysis: %w", err)
	}
	analysisPath := filepath.Join(dir, report.FileName(documentID, report.AnalysisSuffix))
	if err := os.WriteFile(analysisPath, data, 0o644); err != nil {
		return "", "", err
	}
	return reportPath, analysisPath, nil
}
