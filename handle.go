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

import "github.com/chainmesh/objstore/objects"

// Handle is the single public surface of the store. It bundles shared,
// thread-safe references to the three category indexes and owner tables
// with three local ref sets it exclusively owns. Handles are cheap to
// clone and safe to pass between goroutines; a given Handle itself must
// only be used from one goroutine at a time (its local ref sets are not
// synchronized).
//
// A Handle must be released with Release once it is no longer needed —
// Go has no destructors, so this call is the caller's responsibility,
// exactly as with any other io.Closer-shaped resource.
type Handle struct {
	blocks       *blockIndex
	operations   *operationIndex
	endorsements *endorsementIndex

	blockOwners       *ownerTable[objects.BlockID]
	operationOwners   *ownerTable[objects.OperationID]
	endorsementOwners *ownerTable[objects.EndorsementID]

	localBlocks       refSet[objects.BlockID]
	localOperations   refSet[objects.OperationID]
	localEndorsements refSet[objects.EndorsementID]
}

// CreateRoot initializes fresh, empty shared tables and returns the handle
// that owns them. Must be called once per process; every other Handle is
// derived from it via Clone, CloneWithoutRefs or SplitOff. This is a
// documented precondition, not one this function can enforce.
func CreateRoot() *Handle {
	return &Handle{
		blocks:       newBlockIndex(),
		operations:   newOperationIndex(),
		endorsements: newEndorsementIndex(),

		blockOwners:       newOwnerTable[objects.BlockID](),
		operationOwners:   newOwnerTable[objects.OperationID](),
		endorsementOwners: newOwnerTable[objects.EndorsementID](),

		localBlocks:       newRefSet[objects.BlockID](),
		localOperations:   newRefSet[objects.OperationID](),
		localEndorsements: newRefSet[objects.EndorsementID](),
	}
}

// Clone produces a new handle sharing the same underlying tables, whose
// local sets start as copies of this handle's. Each copied id's owner
// count is incremented by one. After the call both handles independently
// own their own ref sets.
func (h *Handle) Clone() *Handle {
	clone := h.CloneWithoutRefs()
	h.blockOwners.claimAll(h.localBlocks.Ids(), clone.localBlocks)
	h.operationOwners.claimAll(h.localOperations.Ids(), clone.localOperations)
	h.endorsementOwners.claimAll(h.localEndorsements.Ids(), clone.localEndorsements)
	return clone
}

// CloneWithoutRefs produces a new handle sharing the same underlying
// tables, with empty local sets and no owner-count changes. It is the
// starting point for SplitOff and for consumers that will immediately
// claim their own refs.
func (h *Handle) CloneWithoutRefs() *Handle {
	return &Handle{
		blocks:       h.blocks,
		operations:   h.operations,
		endorsements: h.endorsements,

		blockOwners:       h.blockOwners,
		operationOwners:   h.operationOwners,
		endorsementOwners: h.endorsementOwners,

		localBlocks:       newRefSet[objects.BlockID](),
		localOperations:   newRefSet[objects.OperationID](),
		localEndorsements: newRefSet[objects.EndorsementID](),
	}
}

// extendLocal moves every id in other into self (if not already present)
// and always removes it from other, so that other ends up empty — the
// destructor of a handle that has been extended away from has nothing left
// to drop. No owner-count change results either way: ids only in other
// are re-attributed to self; ids in both are simply de-duplicated away
// from other, since self's count contribution already covers them.
func extendLocal[ID comparable](self, other refSet[ID]) {
	for _, id := range other.Ids() {
		if !self.Contains(id) {
			self.Add(id)
		}
		other.Remove(id)
	}
}

// Extend transfers ref ownership from other into h. After the call, other
// has empty local sets in every category and h owns the union. No owner
// count changes in the common, owner-disjoint case.
func (h *Handle) Extend(other *Handle) {
	extendLocal(h.localBlocks, other.localBlocks)
	extendLocal(h.localOperations, other.localOperations)
	extendLocal(h.localEndorsements, other.localEndorsements)
}

// moveIDs moves every id in ids out of src into dst. Panics if any id is
// not currently present in src, per split_off's fatal-precondition
// contract: the caller must guarantee local ownership of every id it asks
// to split off.
func moveIDs[ID comparable](ids []ID, src, dst refSet[ID]) {
	for _, id := range ids {
		if !src.Contains(id) {
			panic("split_off requested an id not locally owned by the source handle")
		}
		src.Remove(id)
		dst.Add(id)
	}
}

// SplitOff creates a new handle via CloneWithoutRefs and moves exactly the
// listed ids out of h's local sets into the new handle's. No owner-count
// changes: ownership is transferred, not duplicated. Panics if any listed
// id is not currently locally owned by h.
func (h *Handle) SplitOff(blocks []objects.BlockID, operations []objects.OperationID, endorsements []objects.EndorsementID) *Handle {
	split := h.CloneWithoutRefs()
	moveIDs(blocks, h.localBlocks, split.localBlocks)
	moveIDs(operations, h.localOperations, split.localOperations)
	moveIDs(endorsements, h.localEndorsements, split.localEndorsements)
	return split
}

// StoreBlock inserts b into the block index (idempotent by id) and claims
// a local ref to its id.
func (h *Handle) StoreBlock(b *objects.Block) {
	h.blockOwners.storeClaim([]objects.BlockID{b.ID}, h.localBlocks, func() {
		h.blocks.insert(b)
	})
}

// StoreOperations inserts every operation into the operation index
// (idempotent by id) and claims a local ref to each id. An empty slice is
// a fast no-op.
func (h *Handle) StoreOperations(ops []*objects.Operation) {
	if len(ops) == 0 {
		return
	}
	ids := make([]objects.OperationID, len(ops))
	for i, op := range ops {
		ids[i] = op.ID
	}
	h.operationOwners.storeClaim(ids, h.localOperations, func() {
		for _, op := range ops {
			h.operations.insert(op)
		}
	})
}

// StoreEndorsements inserts every endorsement into the endorsement index
// (idempotent by id) and claims a local ref to each id. An empty slice is
// a fast no-op.
func (h *Handle) StoreEndorsements(endorsements []*objects.Endorsement) {
	if len(endorsements) == 0 {
		return
	}
	ids := make([]objects.EndorsementID, len(endorsements))
	for i, e := range endorsements {
		ids[i] = e.ID
	}
	h.endorsementOwners.storeClaim(ids, h.localEndorsements, func() {
		for _, e := range endorsements {
			h.endorsements.insert(e)
		}
	})
}

// ClaimBlockRefs claims a local ref for each id in ids that is already
// known to the store (live somewhere), returning exactly the claimed
// subset. Ids the store has never seen are silently skipped.
func (h *Handle) ClaimBlockRefs(ids []objects.BlockID) []objects.BlockID {
	return h.blockOwners.claimKnown(ids, h.localBlocks)
}

// ClaimOperationRefs is ClaimBlockRefs for operations.
func (h *Handle) ClaimOperationRefs(ids []objects.OperationID) []objects.OperationID {
	return h.operationOwners.claimKnown(ids, h.localOperations)
}

// ClaimEndorsementRefs is ClaimBlockRefs for endorsements.
func (h *Handle) ClaimEndorsementRefs(ids []objects.EndorsementID) []objects.EndorsementID {
	return h.endorsementOwners.claimKnown(ids, h.localEndorsements)
}

// DropBlockRefs releases h's local ref to each id in ids. Ids not locally
// held are silently skipped, making the operation idempotent. When the
// last local ref anywhere to an id is released, its owner entry and its
// payload in the block index are removed atomically.
func (h *Handle) DropBlockRefs(ids []objects.BlockID) {
	h.blockOwners.dropAll(ids, h.localBlocks, h.blocks.remove)
}

// DropOperationRefs is DropBlockRefs for operations.
func (h *Handle) DropOperationRefs(ids []objects.OperationID) {
	h.operationOwners.dropAll(ids, h.localOperations, h.operations.remove)
}

// DropEndorsementRefs is DropBlockRefs for endorsements.
func (h *Handle) DropEndorsementRefs(ids []objects.EndorsementID) {
	h.endorsementOwners.dropAll(ids, h.localEndorsements, h.endorsements.remove)
}

// GetBlockRefs returns a snapshot of the ids h's block local ref set
// currently holds.
func (h *Handle) GetBlockRefs() []objects.BlockID {
	return h.localBlocks.Ids()
}

// GetOperationRefs is GetBlockRefs for operations.
func (h *Handle) GetOperationRefs() []objects.OperationID {
	return h.localOperations.Ids()
}

// GetEndorsementRefs is GetBlockRefs for endorsements.
func (h *Handle) GetEndorsementRefs() []objects.EndorsementID {
	return h.localEndorsements.Ids()
}

// ReadBlocks returns a read-lock-scoped view of the block index. The
// returned view must be released exactly once and is not valid for use
// after Release.
func (h *Handle) ReadBlocks() *blockIndexView {
	return h.blocks.readView()
}

// ReadOperations is ReadBlocks for operations.
func (h *Handle) ReadOperations() *operationIndexView {
	return h.operations.readView()
}

// ReadEndorsements is ReadBlocks for endorsements.
func (h *Handle) ReadEndorsements() *endorsementIndexView {
	return h.endorsements.readView()
}

// Release drops all of h's local refs in every category, the Go-idiomatic
// substitute for the destructor the original design relies on (§9): a
// moved-out copy of each local set is taken first (via Get*Refs) so that
// the drop loop never mutates the set it is iterating. After Release, h
// must not be used again.
func (h *Handle) Release() {
	h.DropBlockRefs(h.GetBlockRefs())
	h.DropOperationRefs(h.GetOperationRefs())
	h.DropEndorsementRefs(h.GetEndorsementRefs())
}
