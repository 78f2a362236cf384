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
	"github.com/chainmesh/objstore/objects"
)

// secondaryIndex is a one-to-many lookup from a query key to the set of
// primary ids matching it, the shared shape behind "by creator", "by slot",
// "by thread" and "by included block" in the three category indexes below.
type secondaryIndex[K comparable, ID comparable] map[K]map[ID]struct{}

func (s secondaryIndex[K, ID]) add(key K, id ID) {
	bucket, found := s[key]
	if !found {
		bucket = make(map[ID]struct{})
		s[key] = bucket
	}
	bucket[id] = struct{}{}
}

func (s secondaryIndex[K, ID]) remove(key K, id ID) {
	bucket, found := s[key]
	if !found {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(s, key)
	}
}

func (s secondaryIndex[K, ID]) ids(key K) []ID {
	bucket := s[key]
	ids := make([]ID, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	return ids
}

// blockIndex is the category index for Block payloads: a primary id-keyed
// map plus secondary lookups by creator, by slot and by thread. It has no
// knowledge of owner counts or handles; it is reached only through Handle's
// Store/Claim/Drop/Read operations.
type blockIndex struct {
	mu        sync.RWMutex
	byID      map[objects.BlockID]*objects.Block
	byCreator secondaryIndex[objects.Address, objects.BlockID]
	bySlot    secondaryIndex[objects.Slot, objects.BlockID]
	byThread  secondaryIndex[uint8, objects.BlockID]
}

func newBlockIndex() *blockIndex {
	return &blockIndex{
		byID:      make(map[objects.BlockID]*objects.Block),
		byCreator: make(secondaryIndex[objects.Address, objects.BlockID]),
		bySlot:    make(secondaryIndex[objects.Slot, objects.BlockID]),
		byThread:  make(secondaryIndex[uint8, objects.BlockID]),
	}
}

// insert adds b to the index, a no-op if its id is already present.
func (idx *blockIndex) insert(b *objects.Block) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.byID[b.ID]; exists {
		return
	}
	idx.byID[b.ID] = b
	idx.byCreator.add(b.Creator, b.ID)
	idx.bySlot.add(b.Slot, b.ID)
	idx.byThread.add(b.Slot.Thread, b.ID)
}

// remove evicts id from the primary map and every secondary index; a no-op
// if id is absent.
func (idx *blockIndex) remove(id objects.BlockID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	b, exists := idx.byID[id]
	if !exists {
		return
	}
	delete(idx.byID, id)
	idx.byCreator.remove(b.Creator, id)
	idx.bySlot.remove(b.Slot, id)
	idx.byThread.remove(b.Slot.Thread, id)
}

func (idx *blockIndex) get(id objects.BlockID) (*objects.Block, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, found := idx.byID[id]
	return b, found
}

func (idx *blockIndex) len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

func (idx *blockIndex) GetMemoryFootprint() *common.MemoryFootprint {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*idx))
	mf.AddChild("byID", common.NewMemoryFootprint(uintptr(len(idx.byID))*uintptr(unsafe.Sizeof(objects.Block{}))))
	return mf
}

// blockIndexView is a read-lock-scoped, non-restartable view over a
// blockIndex, returned by Handle.ReadBlocks.
type blockIndexView struct {
	idx *blockIndex
}

func (idx *blockIndex) readView() *blockIndexView {
	idx.mu.RLock()
	return &blockIndexView{idx: idx}
}

func (v *blockIndexView) Get(id objects.BlockID) (*objects.Block, bool) {
	b, found := v.idx.byID[id]
	return b, found
}

func (v *blockIndexView) ByCreator(creator objects.Address) []objects.BlockID {
	return v.idx.byCreator.ids(creator)
}

func (v *blockIndexView) BySlot(slot objects.Slot) []objects.BlockID {
	return v.idx.bySlot.ids(slot)
}

func (v *blockIndexView) ByThread(thread uint8) []objects.BlockID {
	return v.idx.byThread.ids(thread)
}

// Release ends the read-lock scope. Must be called exactly once.
func (v *blockIndexView) Release() {
	v.idx.mu.RUnlock()
	v.idx = nil
}

// operationIndex is the category index for Operation payloads: a primary
// id-keyed map plus a secondary lookup by creator.
type operationIndex struct {
	mu        sync.RWMutex
	byID      map[objects.OperationID]*objects.Operation
	byCreator secondaryIndex[objects.Address, objects.OperationID]
}

func newOperationIndex() *operationIndex {
	return &operationIndex{
		byID:      make(map[objects.OperationID]*objects.Operation),
		byCreator: make(secondaryIndex[objects.Address, objects.OperationID]),
	}
}

func (idx *operationIndex) insert(op *objects.Operation) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.byID[op.ID]; exists {
		return
	}
	idx.byID[op.ID] = op
	idx.byCreator.add(op.Creator, op.ID)
}

func (idx *operationIndex) remove(id objects.OperationID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	op, exists := idx.byID[id]
	if !exists {
		return
	}
	delete(idx.byID, id)
	idx.byCreator.remove(op.Creator, id)
}

func (idx *operationIndex) get(id objects.OperationID) (*objects.Operation, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	op, found := idx.byID[id]
	return op, found
}

func (idx *operationIndex) len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

func (idx *operationIndex) GetMemoryFootprint() *common.MemoryFootprint {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*idx))
	mf.AddChild("byID", common.NewMemoryFootprint(uintptr(len(idx.byID))*uintptr(unsafe.Sizeof(objects.Operation{}))))
	return mf
}

// operationIndexView is a read-lock-scoped, non-restartable view over an
// operationIndex, returned by Handle.ReadOperations.
type operationIndexView struct {
	idx *operationIndex
}

func (idx *operationIndex) readView() *operationIndexView {
	idx.mu.RLock()
	return &operationIndexView{idx: idx}
}

func (v *operationIndexView) Get(id objects.OperationID) (*objects.Operation, bool) {
	op, found := v.idx.byID[id]
	return op, found
}

func (v *operationIndexView) ByCreator(creator objects.Address) []objects.OperationID {
	return v.idx.byCreator.ids(creator)
}

func (v *operationIndexView) Release() {
	v.idx.mu.RUnlock()
	v.idx = nil
}

// endorsementIndex is the category index for Endorsement payloads: a
// primary id-keyed map plus secondary lookups by creator and by the block
// the endorsement attests to.
type endorsementIndex struct {
	mu              sync.RWMutex
	byID            map[objects.EndorsementID]*objects.Endorsement
	byCreator       secondaryIndex[objects.Address, objects.EndorsementID]
	byEndorsedBlock secondaryIndex[objects.BlockID, objects.EndorsementID]
}

func newEndorsementIndex() *endorsementIndex {
	return &endorsementIndex{
		byID:            make(map[objects.EndorsementID]*objects.Endorsement),
		byCreator:       make(secondaryIndex[objects.Address, objects.EndorsementID]),
		byEndorsedBlock: make(secondaryIndex[objects.BlockID, objects.EndorsementID]),
	}
}

func (idx *endorsementIndex) insert(e *objects.Endorsement) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.byID[e.ID]; exists {
		return
	}
	idx.byID[e.ID] = e
	idx.byCreator.add(e.Creator, e.ID)
	idx.byEndorsedBlock.add(e.EndorsedBlock, e.ID)
}

func (idx *endorsementIndex) remove(id objects.EndorsementID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e, exists := idx.byID[id]
	if !exists {
		return
	}
	delete(idx.byID, id)
	idx.byCreator.remove(e.Creator, id)
	idx.byEndorsedBlock.remove(e.EndorsedBlock, id)
}

func (idx *endorsementIndex) get(id objects.EndorsementID) (*objects.Endorsement, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, found := idx.byID[id]
	return e, found
}

func (idx *endorsementIndex) len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

func (idx *endorsementIndex) GetMemoryFootprint() *common.MemoryFootprint {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*idx))
	mf.AddChild("byID", common.NewMemoryFootprint(uintptr(len(idx.byID))*uintptr(unsafe.Sizeof(objects.Endorsement{}))))
	return mf
}

// endorsementIndexView is a read-lock-scoped, non-restartable view over an
// endorsementIndex, returned by Handle.ReadEndorsements.
type endorsementIndexView struct {
	idx *endorsementIndex
}

func (idx *endorsementIndex) readView() *endorsementIndexView {
	idx.mu.RLock()
	return &endorsementIndexView{idx: idx}
}

func (v *endorsementIndexView) Get(id objects.EndorsementID) (*objects.Endorsement, bool) {
	e, found := v.idx.byID[id]
	return e, found
}

func (v *endorsementIndexView) ByCreator(creator objects.Address) []objects.EndorsementID {
	return v.idx.byCreator.ids(creator)
}

func (v *endorsementIndexView) ByEndorsedBlock(block objects.BlockID) []objects.EndorsementID {
	return v.idx.byEndorsedBlock.ids(block)
}

func (v *endorsementIndexView) Release() {
	v.idx.mu.RUnlock()
	v.idx = nil
}
