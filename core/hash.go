package core

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// NormalizeText collapses all runs of whitespace to single spaces and trims
// the ends. Hashing normalized text makes the content hash stable across
// formatting differences in otherwise identical passages.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// HashText returns the BLAKE2b-256 hex digest of the normalized text.
// The empty string hashes to "" so that callers can treat missing content
// as having no feedback identity at all.
func HashText(text string) string {
	normalized := NormalizeText(text)
	if normalized == "" {
		return ""
	}
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}
