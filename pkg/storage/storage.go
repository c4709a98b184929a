package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  document_id TEXT NOT NULL,
  captured_at TEXT NOT NULL,
  text        TEXT NOT NULL,
  summary     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_snapshots_document ON snapshots(document_id, id);
`

// DB is the append-only snapshot archive.
type DB struct {
	sql *sql.DB
	now func() time.Time
}

// Open connects to the SQLite archive at path. The schema is not created
// here; call EnsureSchema once at start-up.
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}
	return &DB{sql: db, now: time.Now}, nil
}

// EnsureSchema creates the snapshots table and index if they are absent.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.sql.ExecContext(ctx, schema); err != nil {
		return &StorageError{Op: "ensure_schema", Err: err}
	}
	return nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Append stores a new snapshot and returns its id. The id and capture time
// are assigned by the archive. Identical text is stored like any other.
func (d *DB) Append(ctx context.Context, documentID, text, summary string) (int64, error) {
	if documentID == "" {
		return 0, ErrInvalidDocument
	}
	capturedAt := d.now().UTC().Format(time.RFC3339Nano)

	// A single INSERT either commits the whole row or nothing.
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO snapshots(document_id, captured_at, text, summary) VALUES(?,?,?,?)`,
		documentID, capturedAt, text, summary)
	if err != nil {
		return 0, &StorageError{Op: "append", DocumentID: documentID, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &StorageError{Op: "append", DocumentID: documentID, Err: err}
	}
	return id, nil
}

// Latest returns the snapshot with the greatest id for documentID. The
// boolean is false when the document has no baseline yet.
func (d *DB) Latest(ctx context.Context, documentID string) (Snapshot, bool, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT id, document_id, captured_at, text, summary FROM snapshots WHERE document_id = ? ORDER BY id DESC LIMIT 1`,
		documentID)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, &StorageError{Op: "latest", DocumentID: documentID, Err: err}
	}
	return s, true, nil
}

// History lists the snapshots of documentID, newest first, without text.
func (d *DB) History(ctx context.Context, documentID string) ([]SnapshotMeta, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, document_id, captured_at, summary, length(CAST(text AS BLOB)) FROM snapshots WHERE document_id = ? ORDER BY id DESC`,
		documentID)
	if err != nil {
		return nil, &StorageError{Op: "history", DocumentID: documentID, Err: err}
	}
	defer rows.Close()
	return scanMetas(rows, "history", documentID)
}

// Recent lists the latest snapshots across all documents, newest first,
// without text. A limit <= 0 means no limit.
func (d *DB) Recent(ctx context.Context, limit int) ([]SnapshotMeta, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, document_id, captured_at, summary, length(CAST(text AS BLOB)) FROM snapshots ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, &StorageError{Op: "recent", Err: err}
	}
	defer rows.Close()
	return scanMetas(rows, "recent", "")
}

// GetText returns the archived text of a snapshot.
func (d *DB) GetText(ctx context.Context, snapshotID int64) (string, error) {
	var text string
	err := d.sql.QueryRowContext(ctx, `SELECT text FROM snapshots WHERE id = ?`, snapshotID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("snapshot %d: %w", snapshotID, ErrSnapshotNotFound)
	}
	if err != nil {
		return "", &StorageError{Op: "get_text", SnapshotID: snapshotID, Err: err}
	}
	return text, nil
}

// Get returns a full snapshot by id.
func (d *DB) Get(ctx context.Context, snapshotID int64) (Snapshot, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT id, document_id, captured_at, text, summary FROM snapshots WHERE id = ?`, snapshotID)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %d: %w", snapshotID, ErrSnapshotNotFound)
	}
	if err != nil {
		return Snapshot{}, &StorageError{Op: "get", SnapshotID: snapshotID, Err: err}
	}
	return s, nil
}

// ListDocuments returns one entry per document present in the archive.
func (d *DB) ListDocuments(ctx context.Context) ([]DocumentStats, error) {
	// First and last are the rows with the lowest and highest id; capture
	// times are text and do not sort reliably.
	query := `
		SELECT
			g.document_id,
			g.n,
			f.captured_at,
			l.captured_at,
			g.last_id
		FROM
			(SELECT document_id, COUNT(*) AS n, MIN(id) AS first_id, MAX(id) AS last_id
			   FROM snapshots GROUP BY document_id) AS g
			JOIN snapshots AS f ON f.id = g.first_id
			JOIN snapshots AS l ON l.id = g.last_id
		ORDER BY
			g.document_id;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, &StorageError{Op: "list_documents", Err: err}
	}
	defer rows.Close()

	var stats []DocumentStats
	for rows.Next() {
		var s DocumentStats
		var first, last string
		if err := rows.Scan(&s.DocumentID, &s.SnapshotCount, &first, &last, &s.LatestID); err != nil {
			return nil, &StorageError{Op: "list_documents", Err: err}
		}
		s.FirstCaptured = parseTime(first)
		s.LastCaptured = parseTime(last)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list_documents", Err: err}
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMetas(rows *sql.Rows, op, documentID string) ([]SnapshotMeta, error) {
	out := []SnapshotMeta{}
	for rows.Next() {
		var m SnapshotMeta
		var capturedAt string
		if err := rows.Scan(&m.ID, &m.DocumentID, &capturedAt, &m.Summary, &m.TextLength); err != nil {
			return nil, &StorageError{Op: op, DocumentID: documentID, Err: err}
		}
		m.CapturedAt = parseTime(capturedAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: op, DocumentID: documentID, Err: err}
	}
	return out, nil
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var s Snapshot
	var capturedAt string
	if err := row.Scan(&s.ID, &s.DocumentID, &capturedAt, &s.Text, &s.Summary); err != nil {
		return Snapshot{}, err
	}
	s.CapturedAt = parseTime(capturedAt)
	return s, nil
}

// parseTime reads archive timestamps. Rows written by older tools may use
// SQLite's CURRENT_TIMESTAMP format instead of RFC3339.
func parseTime(v string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return t
	}
	return time.Time{}
}
