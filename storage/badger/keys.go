package badger

import (
	"fmt"
	"strings"

	"github.com/textflock/refind/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "docrec"
	documentIDSeq  = "docrecseq"
	feedbackPrefix = "fbkrec"
	denyPrefix     = "denyph"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeFeedbackKey generates a composite key for a feedback record.
// Format: prefix:textHash:recordID. Grouping by hash lets vote aggregation
// run as a single prefix scan.
func makeFeedbackKey(textHash, recordID string) []byte {
	return []byte(feedbackPrefix + ":" + textHash + ":" + recordID)
}

// makePartialFeedbackKey generates the scan prefix for one content hash.
func makePartialFeedbackKey(textHash string) []byte {
	return []byte(feedbackPrefix + ":" + textHash + ":")
}

// makeDenyKey generates a key for a denylist phrase.
// Phrases are keyed by their lowercase form so membership is
// case-insensitive; the stored value keeps the original casing.
func makeDenyKey(phrase string) []byte {
	return []byte(denyPrefix + ":" + strings.ToLower(strings.TrimSpace(phrase)))
}
