package feedback

import (
	"context"
	"log/slog"

	"github.com/textflock/refind/storage"
)

// Reconciler replays backup-log records missing from the primary store.
//
// The primary store and the backup log are independent sinks; they can
// diverge when a primary append fails after the vote was accepted. This is
// the explicit offline batch job that closes that gap. It is never invoked
// on the query path.
type Reconciler struct {
	primary storage.FeedbackRepository
	backup  *BackupLog
	logger  *slog.Logger
}

// ReconcileReport summarizes one reconciliation run.
type ReconcileReport struct {
	BackupRecords  int // records found in the backup log
	AlreadyPresent int // records already in the primary store
	Replayed       int // records appended to the primary store
	Failed         int // records that could not be appended
}

// NewReconciler creates a reconciler over the two feedback sinks.
func NewReconciler(primary storage.FeedbackRepository, backup *BackupLog, logger *slog.Logger) (*Reconciler, error) {
	if primary == nil {
		return nil, ErrRepositoryRequired
	}
	if backup == nil {
		return nil, ErrBackupRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{primary: primary, backup: backup, logger: logger}, nil
}

// Reconcile appends every backup record the primary store does not hold.
// Records are matched by their Id.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	backupRecords, err := r.backup.Records()
	if err != nil {
		return nil, err
	}

	existing, err := r.primary.AllFeedback(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, record := range existing {
		known[record.Id] = true
	}

	report := &ReconcileReport{BackupRecords: len(backupRecords)}
	for _, record := range backupRecords {
		if known[record.Id] {
			report.AlreadyPresent++
			continue
		}
		if err := r.primary.AppendFeedback(ctx, record); err != nil {
			r.logger.Error("failed to replay backup record", "recordId", record.Id, "err", err)
			report.Failed++
			continue
		}
		report.Replayed++
	}

	r.logger.Info("feedback reconciliation finished",
		"backupRecords", report.BackupRecords,
		"replayed", report.Replayed,
		"alreadyPresent", report.AlreadyPresent,
		"failed", report.Failed)

	return report, nil
}
