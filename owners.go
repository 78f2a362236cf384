// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package objstore

import (
	"sync"
	"unsafe"

	"github.com/chainmesh/objstore/common"
)

// ownerTable is the shared id -> refcount mapping for one object category.
// It is held by every Handle cloned from the same root; access is
// serialized by a single reader/writer lock. Only positive counts are ever
// retained (invariant I2): an id's entry is deleted the instant its count
// would reach zero.
type ownerTable[ID comparable] struct {
	mu     sync.RWMutex
	counts map[ID]uint64
}

func newOwnerTable[ID comparable]() *ownerTable[ID] {
	return &ownerTable[ID]{counts: make(map[ID]uint64)}
}

// claimLocked is the internal_claim helper shared by store, claim and
// clone: it adds id to local if not already present there, incrementing
// counts[id] exactly when the local addition is new. Must be called with
// the owning table's write lock already held.
func claimLocked[ID comparable](id ID, counts map[ID]uint64, local refSet[ID]) {
	if local.Contains(id) {
		return
	}
	local.Add(id)
	counts[id]++
}

// claimAll claims a local ref for every id in ids unconditionally, used by
// clone() (where the caller has already decided the id is eligible: it was
// locally owned by the handle being cloned). Locks the table for the whole
// batch.
func (t *ownerTable[ID]) claimAll(ids []ID, local refSet[ID]) {
	if len(ids) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		claimLocked(id, t.counts, local)
	}
}

// storeClaim performs the locked step of store_*: insert is invoked first,
// expected to perform an index write (a nested lock acquisition on the
// index's own mutex), followed by a local-ref claim for every id. Running
// both under the same Owners write lock guarantees I1 holds at every
// observable point, matching the Owners-then-Index nesting order of §5.
func (t *ownerTable[ID]) storeClaim(ids []ID, local refSet[ID], insert func()) {
	if len(ids) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	insert()
	for _, id := range ids {
		claimLocked(id, t.counts, local)
	}
}

// claimKnown claims a local ref for each id in ids that is already present
// in the table (i.e. live somewhere), returning the subset that was
// claimed. Used by claim_C_refs, the "late attachment" operation.
func (t *ownerTable[ID]) claimKnown(ids []ID, local refSet[ID]) []ID {
	if len(ids) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	claimed := make([]ID, 0, len(ids))
	for _, id := range ids {
		if _, known := t.counts[id]; !known {
			continue
		}
		claimLocked(id, t.counts, local)
		claimed = append(claimed, id)
	}
	return claimed
}

// drop releases the local ref to id held by local, decrementing the shared
// count. onEvicted is invoked, with the table's write lock still held
// (Owners-then-Index order), exactly when the count drops to zero — the
// caller uses it to remove the payload from the index. Silently a no-op if
// local does not currently hold id.
func (t *ownerTable[ID]) drop(id ID, local refSet[ID], onEvicted func(ID)) {
	if !local.Contains(id) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	local.Remove(id)
	count, present := t.counts[id]
	if !present {
		panic("owner table has no entry for an id held in a local ref set")
	}
	if count < 1 {
		panic("owner count underflow: decrementing a count already at zero")
	}
	count--
	if count == 0 {
		delete(t.counts, id)
		onEvicted(id)
		return
	}
	t.counts[id] = count
}

// dropAll drops the local ref to every id in ids, one at a time (each under
// its own lock acquisition, matching drop's own semantics for a single id).
func (t *ownerTable[ID]) dropAll(ids []ID, local refSet[ID], onEvicted func(ID)) {
	for _, id := range ids {
		t.drop(id, local, onEvicted)
	}
}

// count returns the current owner count for id, and whether it is present
// at all (count is only ever positive when present, per I2).
func (t *ownerTable[ID]) count(id ID) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, found := t.counts[id]
	return c, found
}

// len returns the number of ids currently tracked.
func (t *ownerTable[ID]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.counts)
}

// GetMemoryFootprint reports an estimate of the table's in-memory size,
// following the teacher repo's pervasive diagnostics convention.
func (t *ownerTable[ID]) GetMemoryFootprint() *common.MemoryFootprint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var id ID
	entrySize := unsafe.Sizeof(id) + unsafe.Sizeof(uint64(0))
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*t))
	mf.AddChild("counts", common.NewMemoryFootprint(uintptr(len(t.counts))*entrySize))
	return mf
}
