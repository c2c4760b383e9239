package filter

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockedQueryLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.jsonl")

	log, err := OpenBlockedQueryLog(path)
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, log.RecordBlocked(context.Background(), "user@example.com", "blocked question", RuleDenylist, at))
	require.NoError(t, log.RecordBlocked(context.Background(), "other@example.com", "hi", RuleTooShort, at.Add(time.Minute)))
	require.NoError(t, log.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var entries []blockedEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry blockedEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 2)
	assert.Equal(t, "user@example.com", entries[0].Submitter)
	assert.Equal(t, "blocked question", entries[0].Query)
	assert.Equal(t, RuleDenylist, entries[0].Rule)
	assert.Equal(t, "2025-06-01T12:00:00Z", entries[0].Timestamp)
	assert.Equal(t, RuleTooShort, entries[1].Rule)
}

func TestBlockedQueryLogAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.jsonl")
	at := time.Now().UTC()

	for i := 0; i < 2; i++ {
		log, err := OpenBlockedQueryLog(path)
		require.NoError(t, err)
		require.NoError(t, log.RecordBlocked(context.Background(), "user@example.com", "hi", RuleTooShort, at))
		require.NoError(t, log.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
}

func countLines(data []byte) int {
	count := 0
	for _, b := range data {
		if b == '\n' {
			count++
		}
	}
	return count
}
