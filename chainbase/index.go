package chainbase

import (
	"bytes"
	"sort"
)

// indexEntry is one (key, id) pair in a secondary index, kept sorted by key
// and, for non-unique indices, by id as a stable tie-break.
type indexEntry struct {
	key []byte
	id  ID
}

// Index is a secondary, composite-key index over a table. Keys are rendered
// to bytes by KeyFn and compared lexicographically (spec §4.1: "Composite-
// index equality uses lexicographic ordering with the declared comparator
// per field" — the comparator is folded into KeyFn's byte encoding).
type Index[T any, PT interface {
	*T
	Keyed
}] struct {
	Name   string
	Unique bool
	KeyFn  func(PT) []byte

	entries []indexEntry
}

func (idx *Index[T, PT]) search(key []byte) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		return bytes.Compare(idx.entries[i].key, key) >= 0
	})
}

func (idx *Index[T, PT]) lowerBound(key []byte, id ID) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		cmp := bytes.Compare(idx.entries[i].key, key)
		if cmp != 0 {
			return cmp >= 0
		}
		return idx.entries[i].id >= id
	})
}

func (idx *Index[T, PT]) insert(key []byte, id ID) error {
	if idx.Unique {
		pos := idx.search(key)
		if pos < len(idx.entries) && bytes.Equal(idx.entries[pos].key, key) {
			return ErrDuplicateKey
		}
		idx.entries = append(idx.entries, indexEntry{})
		copy(idx.entries[pos+1:], idx.entries[pos:])
		idx.entries[pos] = indexEntry{key: key, id: id}
		return nil
	}
	pos := idx.lowerBound(key, id)
	idx.entries = append(idx.entries, indexEntry{})
	copy(idx.entries[pos+1:], idx.entries[pos:])
	idx.entries[pos] = indexEntry{key: key, id: id}
	return nil
}

func (idx *Index[T, PT]) remove(key []byte, id ID) {
	pos := idx.lowerBound(key, id)
	if pos < len(idx.entries) && bytes.Equal(idx.entries[pos].key, key) && idx.entries[pos].id == id {
		idx.entries = append(idx.entries[:pos], idx.entries[pos+1:]...)
		return
	}
	// Fallback linear scan: defends against keys whose encoding does not
	// sort consistently with a prior insertion (should not happen for
	// well-formed KeyFn implementations, but removal must never silently
	// no-op and corrupt the index).
	for i, e := range idx.entries {
		if e.id == id && bytes.Equal(e.key, key) {
			idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
			return
		}
	}
}

// find returns the id stored under key in a unique index.
func (idx *Index[T, PT]) find(key []byte) (ID, bool) {
	pos := idx.search(key)
	if pos < len(idx.entries) && bytes.Equal(idx.entries[pos].key, key) {
		return idx.entries[pos].id, true
	}
	return 0, false
}

// rangeIDs returns every id whose key lies in the half-open range [lo, hi).
// A nil hi means unbounded above.
func (idx *Index[T, PT]) rangeIDs(lo, hi []byte) []ID {
	start := sort.Search(len(idx.entries), func(i int) bool {
		return bytes.Compare(idx.entries[i].key, lo) >= 0
	})
	var out []ID
	for i := start; i < len(idx.entries); i++ {
		if hi != nil && bytes.Compare(idx.entries[i].key, hi) >= 0 {
			break
		}
		out = append(out, idx.entries[i].id)
	}
	return out
}
