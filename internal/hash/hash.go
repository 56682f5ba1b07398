// Package hash implements the content-addressing scheme that makes ingest
// idempotent (spec §4.3): a pure function from normalized chunk text to a
// stable hex digest, plus the derived summary idempotency key.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Normalize trims leading/trailing whitespace and collapses runs of
// internal whitespace to a single space. It is idempotent:
// Normalize(Normalize(t)) == Normalize(t).
func Normalize(text string) string {
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}

// ChunkHash returns the lowercase hex SHA-256 of the chunk's normalized text.
func ChunkHash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// SummaryKey derives the idempotency key for a summarize call over
// (project_id, start, end, ordered source ids). sourceMemoryIDs is sorted
// before joining so the key does not depend on retrieval order.
func SummaryKey(projectID, start, end string, sourceMemoryIDs []string) string {
	sorted := append([]string(nil), sourceMemoryIDs...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(projectID))
	h.Write([]byte("|"))
	h.Write([]byte(start))
	h.Write([]byte("|"))
	h.Write([]byte(end))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// SummaryTag builds the "summary:<hex>" tag stored on a summary memory.
func SummaryTag(summaryKey string) string {
	return "summary:" + summaryKey
}
