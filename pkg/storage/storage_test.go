package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestAppendThenLatest(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, ok, err := db.Latest(ctx, "doc1"); err != nil || ok {
		t.Fatalf("expected no baseline, got ok=%t err=%v", ok, err)
	}

	id, err := db.Append(ctx, "doc1", "v1", "baseline")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	s, ok, err := db.Latest(ctx, "doc1")
	if err != nil || !ok {
		t.Fatalf("expected a baseline, got ok=%t err=%v", ok, err)
	}
	if s.ID != id || s.Text != "v1" || s.Summary != "baseline" || s.DocumentID != "doc1" {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.CapturedAt.IsZero() {
		t.Fatal("capture time was not assigned")
	}
}

func TestEmptyTextIsNotNoBaseline(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := db.Append(ctx, "doc", "", "empty capture"); err != nil {
		t.Fatalf("append: %v", err)
	}
	s, ok, err := db.Latest(ctx, "doc")
	if err != nil || !ok {
		t.Fatalf("expected a baseline, got ok=%t err=%v", ok, err)
	}
	if s.Text != "" {
		t.Fatalf("expected empty text, got %q", s.Text)
	}
}

func TestHistoryIsAppendOnlyNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	db.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}

	texts := []string{"first", "second", "second", "third"}
	var ids []int64
	for _, txt := range texts {
		id, err := db.Append(ctx, "rule-2010", txt, "check")
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, id)
	}
	if _, err := db.Append(ctx, "other", "unrelated", "check"); err != nil {
		t.Fatalf("append other: %v", err)
	}

	hist, err := db.History(ctx, "rule-2010")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != len(texts) {
		t.Fatalf("expected %d entries, got %d", len(texts), len(hist))
	}
	for i, m := range hist {
		wantID := ids[len(ids)-1-i]
		if m.ID != wantID {
			t.Fatalf("entry %d: id %d, want %d", i, m.ID, wantID)
		}
		if m.TextLength != len(texts[len(texts)-1-i]) {
			t.Fatalf("entry %d: text length %d", i, m.TextLength)
		}
		if i > 0 && !m.CapturedAt.Before(hist[i-1].CapturedAt) {
			t.Fatalf("entry %d is not older than entry %d", i, i-1)
		}
	}

	for i, id := range ids {
		got, err := db.GetText(ctx, id)
		if err != nil {
			t.Fatalf("get text %d: %v", id, err)
		}
		if got != texts[i] {
			t.Fatalf("snapshot %d text changed: %q", id, got)
		}
	}
}

func TestHistoryOfUnknownDocument(t *testing.T) {
	db := openTestDB(t)
	hist, err := db.History(context.Background(), "nope")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("expected empty history, got %v", hist)
	}
}

func TestGetTextNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetText(context.Background(), 42)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	_, err = db.Get(context.Background(), 42)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestAppendRequiresDocument(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Append(context.Background(), "", "text", ""); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestStorageFailureIsReported(t *testing.T) {
	db := openTestDB(t)
	db.Close()

	_, _, err := db.Latest(context.Background(), "doc")
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if serr.Op != "latest" || serr.DocumentID != "doc" {
		t.Fatalf("unexpected error context %+v", serr)
	}
	if _, err := db.History(context.Background(), "doc"); !errors.As(err, &serr) {
		t.Fatalf("expected StorageError from history, got %v", err)
	}
	if _, err := db.Append(context.Background(), "doc", "x", ""); !errors.As(err, &serr) {
		t.Fatalf("expected StorageError from append, got %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, doc := range []string{"b", "a", "b"} {
		if _, err := db.Append(ctx, doc, "text of "+doc, "check"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	stats, err := db.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stats) != 2 || stats[0].DocumentID != "a" || stats[1].SnapshotCount != 2 || stats[1].LatestID != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestListDocumentsSameSecondCaptures(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	whole := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)
	// As text "...00Z" sorts after "...00.5Z", although it is earlier.
	for _, at := range []time.Time{whole, half} {
		at := at
		db.now = func() time.Time { return at }
		if _, err := db.Append(ctx, "FINRA-2010", "text", "check"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	stats, err := db.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !stats[0].FirstCaptured.Equal(whole) || !stats[0].LastCaptured.Equal(half) {
		t.Fatalf("first %v last %v, want %v and %v", stats[0].FirstCaptured, stats[0].LastCaptured, whole, half)
	}
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, doc := range []string{"a", "b", "a"} {
		if _, err := db.Append(ctx, doc, "text of "+doc, "check "+doc); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	recent, err := db.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != 3 || recent[1].DocumentID != "b" {
		t.Fatalf("unexpected recent snapshots %+v", recent)
	}
	if all, err := db.Recent(ctx, 0); err != nil || len(all) != 3 {
		t.Fatalf("unlimited recent: %d snapshots, err %v", len(all), err)
	}
}
