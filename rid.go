package arbor

import (
	"errors"
	"fmt"
)

// ErrDuplicateHandle is returned by bulk lookups when the same RID appears
// more than once in the request. Two live mutable views of one record must
// never coexist, so this is treated as a programmer error by callers.
var ErrDuplicateHandle = errors.New("arbor: duplicate handle in bulk lookup")

// RID is an opaque handle into a table. The low 32 bits are the slot index
// and the high 32 bits are the slot's generation at allocation time. Slot
// generations start at 1 and are bumped on every removal, so a handle to a
// slot's previous occupant can never resolve again and no valid RID is ever
// zero.
type RID uint64

// NilRID is the absent handle. It never resolves.
const NilRID RID = 0

func makeRID(index, generation uint32) RID {
	return RID(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index portion of the handle.
func (r RID) Index() uint32 {
	return uint32(r)
}

// Generation returns the generation portion of the handle.
func (r RID) Generation() uint32 {
	return uint32(r >> 32)
}

// IsNil reports whether the handle is NilRID.
func (r RID) IsNil() bool {
	return r == NilRID
}

// String renders the handle as "index@generation", or "nil".
func (r RID) String() string {
	if r == NilRID {
		return "nil"
	}
	return fmt.Sprintf("%d@%d", r.Index(), r.Generation())
}

// --- Generational table ---

// table is a generational slot store. It backs both the node arena and
// signal connection lists. Insert hands out recycled slots before growing,
// and a removed slot's generation is bumped immediately so stale handles
// fail the liveness check on every later access.
type table[T any] struct {
	slots       []T
	generations []uint32
	live        []bool
	free        []uint32
	count       int
}

// Insert stores v and returns its handle. Recycled slots are preferred;
// a fresh slot starts at generation 1. O(1) amortized.
func (t *table[T]) Insert(v T) RID {
	if n := len(t.free); n > 0 {
		index := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[index] = v
		t.live[index] = true
		t.count++
		return makeRID(index, t.generations[index])
	}
	index := uint32(len(t.slots))
	t.slots = append(t.slots, v)
	t.generations = append(t.generations, 1)
	t.live = append(t.live, true)
	t.count++
	return makeRID(index, 1)
}

// Remove deletes the entry under rid and returns it. The slot's generation
// is bumped and its index pushed on the free list. Removing a dead or nil
// handle is a no-op returning the zero value and false.
func (t *table[T]) Remove(rid RID) (T, bool) {
	var zero T
	index := rid.Index()
	if !t.Contains(rid) {
		return zero, false
	}
	v := t.slots[index]
	t.slots[index] = zero
	t.live[index] = false
	t.generations[index]++
	t.free = append(t.free, index)
	t.count--
	return v, true
}

// Get returns the entry under rid, if it is still live.
func (t *table[T]) Get(rid RID) (T, bool) {
	if !t.Contains(rid) {
		var zero T
		return zero, false
	}
	return t.slots[rid.Index()], true
}

// Set replaces the entry under rid. Returns false if rid is dead.
func (t *table[T]) Set(rid RID, v T) bool {
	if !t.Contains(rid) {
		return false
	}
	t.slots[rid.Index()] = v
	return true
}

// Contains reports whether rid currently resolves to a live entry.
func (t *table[T]) Contains(rid RID) bool {
	index := rid.Index()
	return rid != NilRID &&
		index < uint32(len(t.slots)) &&
		t.live[index] &&
		t.generations[index] == rid.Generation()
}

// Len returns the number of live entries.
func (t *table[T]) Len() int {
	return t.count
}

// Each visits every live entry in slot order. The visitor must not insert
// or remove entries; use a snapshot of RIDs for that.
func (t *table[T]) Each(visit func(rid RID, v T)) {
	for i := range t.slots {
		if t.live[i] {
			visit(makeRID(uint32(i), t.generations[i]), t.slots[i])
		}
	}
}

// RIDs returns the handles of all live entries in slot order.
func (t *table[T]) RIDs() []RID {
	out := make([]RID, 0, t.count)
	for i := range t.slots {
		if t.live[i] {
			out = append(out, makeRID(uint32(i), t.generations[i]))
		}
	}
	return out
}

// --- Bulk lookups ---

// GetMany returns the entries under rids, failing with ErrDuplicateHandle
// when the same handle is requested twice and skipping handles that are no
// longer live. Used where every returned value may be mutated: duplicates
// would alias one record under two names.
func (t *table[T]) GetMany(rids []RID) ([]T, error) {
	out := make([]T, 0, len(rids))
	seen := make(map[RID]struct{}, len(rids))
	for _, rid := range rids {
		if _, dup := seen[rid]; dup {
			return nil, fmt.Errorf("%w (%v)", ErrDuplicateHandle, rid)
		}
		seen[rid] = struct{}{}
		if v, ok := t.Get(rid); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// AllValid returns the entries under rids, silently skipping handles that
// are no longer live. Duplicates are permitted; callers that only read may
// alias freely.
func (t *table[T]) AllValid(rids []RID) []T {
	out := make([]T, 0, len(rids))
	for _, rid := range rids {
		if v, ok := t.Get(rid); ok {
			out = append(out, v)
		}
	}
	return out
}

// Raw returns one entry per requested handle, zero-valued where the handle
// is dead. The result always has len(rids) elements.
func (t *table[T]) Raw(rids []RID) []T {
	out := make([]T, len(rids))
	for i, rid := range rids {
		out[i], _ = t.Get(rid)
	}
	return out
}
