package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrSnapshotNotFound is returned when a snapshot id is not in the archive.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrInvalidDocument is returned when appending without a document id.
	ErrInvalidDocument = errors.New("document id is required")
)

// StorageError reports a failure of the backing database, with the
// operation and the document or snapshot it concerned.
type StorageError struct {
	Op         string
	DocumentID string
	SnapshotID int64
	Err        error
}

func (e *StorageError) Error() string {
	switch {
	case e.DocumentID != "":
		return fmt.Sprintf("storage %s [%s]: %v", e.Op, e.DocumentID, e.Err)
	case e.SnapshotID != 0:
		return fmt.Sprintf("storage %s [snapshot %d]: %v", e.Op, e.SnapshotID, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
