package audit

import (
	"context"

	"github.com/sw33tLie/rulewatch/pkg/report"
	"github.com/sw33tLie/rulewatch/pkg/storage"
)

// SnapshotReader loads archived snapshots by id. *storage.DB satisfies it.
type SnapshotReader interface {
	Get(ctx context.Context, snapshotID int64) (storage.Snapshot, error)
}

// Redline rebuilds the report between two archived snapshots. Reports are
// never part of the archive, so any pair can be regenerated at any time.
// Snapshots of different documents may be compared; the report is titled
// after the second one.
func Redline(ctx context.Context, store SnapshotReader, fromID, toID int64, contextLines int) (report.Report, error) {
	from, err := store.Get(ctx, fromID)
	if err != nil {
		return report.Report{}, err
	}
	to, err := store.Get(ctx, toID)
	if err != nil {
		return report.Report{}, err
	}

	fromLabel := "Version"
	if from.DocumentID != to.DocumentID {
		fromLabel = from.DocumentID
	}
	return report.Compare(report.Subject{
		DocumentID: to.DocumentID,
		From:       report.Version{SnapshotID: from.ID, CapturedAt: from.CapturedAt, Label: fromLabel},
		To:         report.Version{SnapshotID: to.ID, CapturedAt: to.CapturedAt, Label: "Version"},
	}, from.Text, to.Text, contextLines), nil
}
