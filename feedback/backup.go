package feedback

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/textflock/refind/core"
)

// BackupLog is the append-only JSONL fallback for the feedback ledger.
//
// Each record is written with a single O_APPEND write, so unsynchronized
// concurrent writers cannot interleave partial records. Entries are never
// rewritten; the log only grows.
type BackupLog struct {
	file *os.File
	path string
}

type backupEntry struct {
	Id        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Query     string `json:"query"`
	TextHash  string `json:"text_hash"`
	Vote      string `json:"vote"`
	Submitter string `json:"user"`
}

// OpenBackupLog opens (or creates) the backup log at path.
func OpenBackupLog(path string) (*BackupLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &BackupLog{file: file, path: path}, nil
}

// Append writes one record to the log.
func (b *BackupLog) Append(record *core.FeedbackRecord) error {
	data, err := json.Marshal(backupEntry{
		Id:        record.Id,
		Timestamp: record.Timestamp.UTC().Format(time.RFC3339Nano),
		Query:     record.Query,
		TextHash:  record.TextHash,
		Vote:      record.Vote.String(),
		Submitter: record.Submitter,
	})
	if err != nil {
		return err
	}

	_, err = b.file.Write(append(data, '\n'))
	return err
}

// Records reads every record currently in the log.
// Lines that fail to parse are skipped.
func (b *BackupLog) Records() ([]*core.FeedbackRecord, error) {
	file, err := os.Open(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var records []*core.FeedbackRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry backupEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		vote, err := core.ParseVote(entry.Vote)
		if err != nil {
			continue
		}
		timestamp, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
		if err != nil {
			continue
		}
		records = append(records, &core.FeedbackRecord{
			Id:        entry.Id,
			TextHash:  entry.TextHash,
			Query:     entry.Query,
			Vote:      vote,
			Submitter: entry.Submitter,
			Timestamp: timestamp.UTC(),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the underlying file.
func (b *BackupLog) Close() error {
	return b.file.Close()
}
