package storage

import "time"

// Snapshot is one archived capture of a document's full text.
type Snapshot struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"document_id"`
	CapturedAt time.Time `json:"captured_at"`
	Text       string    `json:"text"`
	Summary    string    `json:"summary"`
}

// SnapshotMeta is a snapshot without its text, used for history listings.
type SnapshotMeta struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"document_id"`
	CapturedAt time.Time `json:"captured_at"`
	Summary    string    `json:"summary"`
	TextLength int       `json:"text_length"`
}

// DocumentStats summarizes the archived history of one document.
type DocumentStats struct {
	DocumentID    string    `json:"document_id"`
	SnapshotCount int       `json:"snapshot_count"`
	FirstCaptured time.Time `json:"first_captured"`
	LastCaptured  time.Time `json:"last_captured"`
	LatestID      int64     `json:"latest_id"`
}
