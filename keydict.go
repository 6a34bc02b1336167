// Key dictionary: maps external document keys (arbitrary strings) to
// internal document IDs. In-memory during a build, persisted as a flat
// ordered bucket list on flush; reopened read-only for search by
// rebuilding the same in-memory hash index from that list.

package ferret

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// KeyDictionary is a string key -> doc_id map, hashed with xxhash for a
// stable, fast bucket index independent of Go's randomized map seed.
type KeyDictionary struct {
	buckets map[uint64][]keyEntry
	path    string
}

type keyEntry struct {
	key   string
	docID uint32
}

// NewKeyDictionary creates an empty, in-memory key dictionary for a
// build in progress.
func NewKeyDictionary() *KeyDictionary {
	return &KeyDictionary{buckets: make(map[uint64][]keyEntry)}
}

// Insert records that key maps to docID. Re-inserting an existing key
// overwrites its mapping (duplicate document keys are reported by the
// ingest layer, not rejected here).
func (kd *KeyDictionary) Insert(key string, docID uint32) {
	h := xxhash.Sum64String(key)
	bucket := kd.buckets[h]
	for i := range bucket {
		if bucket[i].key == key {
			bucket[i].docID = docID
			return
		}
	}
	kd.buckets[h] = append(bucket, keyEntry{key: key, docID: docID})
}

// Lookup returns the doc_id for key, or ErrNotFound.
func (kd *KeyDictionary) Lookup(key string) (uint32, error) {
	h := xxhash.Sum64String(key)
	for _, e := range kd.buckets[h] {
		if e.key == key {
			return e.docID, nil
		}
	}
	return 0, ErrNotFound
}

// Len reports the number of distinct keys stored.
func (kd *KeyDictionary) Len() int {
	n := 0
	for _, b := range kd.buckets {
		n += len(b)
	}
	return n
}

// Flush persists the dictionary to path as a flat sequence of
// `doc_id (u32) ‖ key (NUL-terminated)` records, ordered by key.
func (kd *KeyDictionary) Flush(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("keydict: create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	var entries []keyEntry
	for _, bucket := range kd.buckets {
		entries = append(entries, bucket...)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for _, e := range entries {
		buf := PutU32(nil, e.docID)
		buf = PutCString(buf, e.key)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

// LoadKeyDictionary rebuilds an in-memory key dictionary from a file
// written by Flush.
func LoadKeyDictionary(path string) (*KeyDictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keydict: read %s: %w", path, err)
	}
	kd := NewKeyDictionary()
	c := NewCursor(data)
	for c.Remaining() > 0 {
		docID, err := c.ReadU32()
		if err != nil {
			return nil, err
		}
		key, err := c.ReadCString()
		if err != nil {
			return nil, err
		}
		kd.Insert(string(key), docID)
	}
	return kd, nil
}
