package filter

import (
	"context"
	"encoding/json"
	"os"
	"time"
)

// BlockedQueryLog is an AuditSink that appends blocked attempts to a JSONL
// file. Each entry is written with a single O_APPEND write so concurrent
// writers cannot interleave partial records.
type BlockedQueryLog struct {
	file *os.File
}

var _ AuditSink = (*BlockedQueryLog)(nil)

type blockedEntry struct {
	Timestamp string `json:"timestamp"`
	Submitter string `json:"submitter"`
	Query     string `json:"query"`
	Rule      string `json:"rule"`
}

// OpenBlockedQueryLog opens (or creates) the audit log at path.
func OpenBlockedQueryLog(path string) (*BlockedQueryLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &BlockedQueryLog{file: file}, nil
}

// RecordBlocked appends one audit entry.
func (l *BlockedQueryLog) RecordBlocked(ctx context.Context, submitter, query, rule string, at time.Time) error {
	data, err := json.Marshal(blockedEntry{
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Submitter: submitter,
		Query:     query,
		Rule:      rule,
	})
	if err != nil {
		return err
	}

	_, err = l.file.Write(append(data, '\n'))
	return err
}

// Close closes the underlying file.
func (l *BlockedQueryLog) Close() error {
	return l.file.Close()
}
