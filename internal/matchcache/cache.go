// Package matchcache stores lossy snapshots (Records) of extractor results
// keyed by the operation, the extractor name, the token range, and an
// optional content hash of a substitution map. Two backends implement the
// same Cache interface: an in-process LRU, and a Redis-backed one whose
// entries can outlive a process or be shared across workers. A
// manager.Manager with its Cache field set writes every result through to
// it but never reads from it; the Manager's own in-process memo answers
// lookups.
package matchcache

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Key identifies one memoized lookup. SeqID distinguishes token sequences
// (documents, or sentences within a document) so one cache instance can
// safely serve an entire run.
type Key struct {
	SeqID     string
	Op        string // "scan", "matches", "search", "match"
	Name      string
	Start     int
	End       int // -1 when the operation has no upper bound (scan, search)
	SubstHash string
}

func (k Key) String() string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%d\x00%s", k.SeqID, k.Op, k.Name, k.Start, k.End, k.SubstHash)
}

// HashSubstitutions returns an order-independent content hash of a
// substitution map, suitable for embedding in a Key so that two calls under
// different (but semantically equal) map iteration orders still hit the
// same cache line.
func HashSubstitutions(subs map[string]string) string {
	if len(subs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h, _ := blake2b.New256(nil)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(subs[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Record is a serialization-friendly, lossy snapshot of a match: enough to
// answer "did this extractor match here, and with what extent" without
// round-tripping the full submatch tree. Both backends store and return
// Records; the Redis backend serializes them across the wire.
type Record struct {
	Name  string
	Begin int
	End   int
	Kind  string // "fa", "arc", "root", "coord"
}

// Cache memoizes extractor results. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key Key) ([]Record, bool)
	Put(key Key, records []Record)
	// Clear drops every entry for seqID. The Manager does not call it; its
	// own memo is dropped separately.
	Clear(seqID string)
}
