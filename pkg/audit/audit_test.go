package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sw33tLie/rulewatch/pkg/documents"
	"github.com/sw33tLie/rulewatch/pkg/entities"
	"github.com/sw33tLie/rulewatch/pkg/fetcher"
	"github.com/sw33tLie/rulewatch/pkg/storage"
)

const (
	ruleV1 = "Rule 2010. Standards of Commercial Honor\nA member shall observe high standards of commercial honor.\nThe fee is $5,000."
	ruleV2 = "Rule 2010. Standards of Commercial Honor\nA member shall observe high standards of commercial honor.\nThe fee is $10,000."
)

// fakeFetcher serves fixed texts per locator.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
}

func (f *fakeFetcher) set(locator, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[locator] = text
}

func (f *fakeFetcher) Fetch(ctx context.Context, locator string) (fetcher.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[locator]; err != nil {
		return fetcher.Result{}, err
	}
	text, ok := f.pages[locator]
	if !ok {
		return fetcher.Result{}, &fetcher.FetchFailure{Locator: locator, Reason: "not found"}
	}
	return fetcher.Result{Locator: locator, Text: text}, nil
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}}
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "regulations.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func newTestAuditor(t *testing.T, db *storage.DB, f fetcher.Fetcher) *Auditor {
	t.Helper()
	extractor, err := entities.NewRuleExtractor()
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	return &Auditor{
		Store:     db,
		Fetcher:   f,
		Extractor: extractor,
		ReportDir: filepath.Join(t.TempDir(), "reports"),
		Context:   -1,
	}
}

var finra2010 = documents.Document{ID: "FINRA-2010", Name: "Standards of Commercial Honor", Locator: "https://www.finra.org/rules/2010"}

func TestCheckDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	f := newFakeFetcher()
	f.set(finra2010.Locator, ruleV1)
	a := newTestAuditor(t, db, f)

	// First observation records a baseline.
	out, err := a.CheckDocument(ctx, finra2010)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if out.Status != StatusBaseline || out.SnapshotID == 0 || out.Summary != BaselineSummary {
		t.Fatalf("unexpected baseline outcome %+v", out)
	}

	// Same text: nothing appended, no report.
	out, err = a.CheckDocument(ctx, finra2010)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if out.Status != StatusUnchanged || out.SnapshotID != 0 || out.ReportPath != "" {
		t.Fatalf("unexpected unchanged outcome %+v", out)
	}
	if _, err := os.Stat(a.ReportDir); !os.IsNotExist(err) {
		t.Fatalf("report dir should not exist yet, stat err = %v", err)
	}
	history, err := db.History(ctx, finra2010.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 snapshot after unchanged check, got %d", len(history))
	}

	// Changed text: report, analysis and a new snapshot.
	f.set(finra2010.Locator, ruleV2)
	out, err = a.CheckDocument(ctx, finra2010)
	if err != nil {
		t.Fatalf("third check: %v", err)
	}
	if out.Status != StatusChanged {
		t.Fatalf("expected changed, got %+v", out)
	}
	wantReport := filepath.Join(a.ReportDir, "FINRA-2010_CHANGE_REPORT.html")
	if out.ReportPath != wantReport {
		t.Fatalf("report path = %q, want %q", out.ReportPath, wantReport)
	}
	if out.Changes.Added != 1 || out.Changes.Removed != 1 {
		t.Fatalf("unexpected change counts %+v", out.Changes)
	}
	if want := "Change Detected: +1 -1 (report: " + wantReport + ")"; out.Summary != want {
		t.Fatalf("summary = %q, want %q", out.Summary, want)
	}

	html, err := os.ReadFile(out.ReportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(html), "The fee is $10,000.") || !strings.Contains(string(html), "finra.org") {
		t.Fatalf("report does not contain the new line or source")
	}
	analysis, err := os.ReadFile(out.AnalysisPath)
	if err != nil {
		t.Fatalf("reading analysis: %v", err)
	}
	if !strings.Contains(string(analysis), `"added_entities"`) || !strings.Contains(string(analysis), "$10,000") {
		t.Fatalf("unexpected analysis %s", analysis)
	}

	latest, ok, err := db.Latest(ctx, finra2010.ID)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%t err=%v", ok, err)
	}
	if latest.ID != out.SnapshotID || latest.Text != ruleV2 || latest.Summary != out.Summary {
		t.Fatalf("latest snapshot does not match outcome: %+v", latest)
	}
	if out.BaselineID >= out.SnapshotID {
		t.Fatalf("baseline id %d should precede new id %d", out.BaselineID, out.SnapshotID)
	}
}

func TestCheckDocumentFetchFailureIsSkipped(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	f := newFakeFetcher()
	f.set("short", "Error 503")
	a := newTestAuditor(t, db, f)

	for _, locator := range []string{"missing", "short"} {
		doc := documents.Document{ID: "doc-" + locator, Locator: locator}
		out, err := a.CheckDocument(ctx, doc)
		if err == nil {
			t.Fatalf("%s: expected an error", locator)
		}
		if out.Status != StatusSkipped {
			t.Fatalf("%s: status = %s, want skipped", locator, out.Status)
		}
		var ce *CycleError
		if !errors.As(err, &ce) || ce.Op != "fetch" || ce.DocumentID != doc.ID {
			t.Fatalf("%s: unexpected error %v", locator, err)
		}
		var ff *fetcher.FetchFailure
		if !errors.As(err, &ff) {
			t.Fatalf("%s: FetchFailure not in chain: %v", locator, err)
		}
		if _, ok, _ := db.Latest(ctx, doc.ID); ok {
			t.Fatalf("%s: failed fetch must not be archived", locator)
		}
	}
}

func TestCheckDocumentStorageFailure(t *testing.T) {
	db := openTestDB(t)
	f := newFakeFetcher()
	f.set(finra2010.Locator, ruleV1)
	a := newTestAuditor(t, db, f)
	db.Close()

	out, err := a.CheckDocument(context.Background(), finra2010)
	if out.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}
	var ce *CycleError
	if !errors.As(err, &ce) || ce.Op != "latest" {
		t.Fatalf("unexpected error %v", err)
	}
	var se *storage.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("StorageError not in chain: %v", err)
	}
}

func TestRunBatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	f := newFakeFetcher()
	docs := []documents.Document{
		{ID: "a", Locator: "loc-a"},
		{ID: "broken", Locator: "loc-broken"},
		{ID: "c", Locator: "loc-c"},
	}
	f.set("loc-a", ruleV1)
	f.set("loc-c", ruleV2)

	reg := prometheus.NewRegistry()
	a := newTestAuditor(t, db, f)
	a.Metrics = NewMetrics(reg)

	var mu sync.Mutex
	var done []string
	a.OnDocumentDone = func(o Outcome) {
		mu.Lock()
		done = append(done, o.DocumentID)
		mu.Unlock()
	}

	res := a.RunBatch(ctx, docs, 3)
	if res.RunID == "" {
		t.Fatal("missing run id")
	}
	if len(res.Outcomes) != len(docs) || len(done) != len(docs) {
		t.Fatalf("expected %d outcomes and callbacks, got %d and %d", len(docs), len(res.Outcomes), len(done))
	}
	for i, o := range res.Outcomes {
		if o.DocumentID != docs[i].ID {
			t.Fatalf("outcome %d is for %s, want %s", i, o.DocumentID, docs[i].ID)
		}
	}
	if res.Outcomes[0].Status != StatusBaseline || res.Outcomes[1].Status != StatusSkipped || res.Outcomes[2].Status != StatusBaseline {
		t.Fatalf("unexpected statuses %s %s %s", res.Outcomes[0].Status, res.Outcomes[1].Status, res.Outcomes[2].Status)
	}
	if res.AllFailed() {
		t.Fatal("batch with successes reported as all failed")
	}

	if got := testutil.ToFloat64(a.Metrics.Checks.WithLabelValues("baseline")); got != 2 {
		t.Fatalf("baseline checks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(a.Metrics.Checks.WithLabelValues("skipped")); got != 1 {
		t.Fatalf("skipped checks = %v, want 1", got)
	}

	again := a.RunBatch(ctx, docs, 1)
	if again.Count(StatusUnchanged) != 2 {
		t.Fatalf("second run should find 2 unchanged documents, got %d", again.Count(StatusUnchanged))
	}
}

func TestRunBatchCanceled(t *testing.T) {
	db := openTestDB(t)
	f := newFakeFetcher()
	f.set("loc", ruleV1)
	a := newTestAuditor(t, db, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := a.RunBatch(ctx, []documents.Document{{ID: "x", Locator: "loc"}}, 2)
	if !res.AllFailed() {
		t.Fatalf("canceled batch should fail every document: %+v", res.Outcomes)
	}
	if !errors.Is(res.Outcomes[0].Err, context.Canceled) {
		t.Fatalf("unexpected error %v", res.Outcomes[0].Err)
	}
}

func TestRedline(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	id1, err := db.Append(ctx, "doc", "A\nB\nC", "one")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	id2, err := db.Append(ctx, "doc", "A\nB\nC\nD", "two")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	rep, err := Redline(ctx, db, id1, id2, -1)
	if err != nil {
		t.Fatalf("redline: %v", err)
	}
	if rep.DocumentID != "doc" || rep.From.SnapshotID != id1 || rep.To.SnapshotID != id2 {
		t.Fatalf("unexpected subject %+v", rep.Subject)
	}
	if len(rep.Rows) != 4 || rep.Rows[3].New.Text != "D" {
		t.Fatalf("unexpected rows %+v", rep.Rows)
	}

	if _, err := Redline(ctx, db, id1, 999, -1); !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}
