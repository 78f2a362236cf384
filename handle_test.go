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
	"testing"

	"github.com/chainmesh/objstore/objects"
)

func testBlock(n byte) *objects.Block {
	var id objects.BlockID
	id[0] = n
	return &objects.Block{
		ID:      id,
		Slot:    objects.Slot{Period: uint64(n), Thread: n % 4},
		Creator: objects.Address{n},
		Bytes:   []byte{n},
	}
}

func mustHaveCount[ID comparable](t *testing.T, table *ownerTable[ID], id ID, want uint64) {
	t.Helper()
	got, found := table.count(id)
	if !found && want != 0 {
		t.Fatalf("expected count %d for %v, but id is absent", want, id)
	}
	if found && got != want {
		t.Fatalf("expected count %d for %v, got %d", want, id, got)
	}
}

// Scenario 1: basic lifecycle.
func TestHandle_BasicLifecycle(t *testing.T) {
	h := CreateRoot()
	p1 := testBlock(1)

	h.StoreBlock(p1)
	mustHaveCount(t, h.blockOwners, p1.ID, 1)
	if _, found := h.blocks.get(p1.ID); !found {
		t.Fatalf("expected block to be indexed after store")
	}

	h.DropBlockRefs([]objects.BlockID{p1.ID})
	mustHaveCount(t, h.blockOwners, p1.ID, 0)
	if _, found := h.blocks.get(p1.ID); found {
		t.Fatalf("expected block to be evicted after last ref dropped")
	}
}

// Scenario 2: shared lifetime.
func TestHandle_SharedLifetime(t *testing.T) {
	h1 := CreateRoot()
	p1 := testBlock(1)
	h1.StoreBlock(p1)

	h2 := h1.Clone()
	mustHaveCount(t, h1.blockOwners, p1.ID, 2)

	h1.Release()
	mustHaveCount(t, h1.blockOwners, p1.ID, 1)
	if _, found := h1.blocks.get(p1.ID); !found {
		t.Fatalf("block should still be indexed while h2 holds a ref")
	}

	h2.Release()
	mustHaveCount(t, h1.blockOwners, p1.ID, 0)
	if _, found := h1.blocks.get(p1.ID); found {
		t.Fatalf("block should be evicted once h2 releases its ref")
	}
}

// Scenario 3: split.
func TestHandle_Split(t *testing.T) {
	h1 := CreateRoot()
	p1, p2 := testBlock(1), testBlock(2)
	h1.StoreBlock(p1)
	h1.StoreBlock(p2)

	h2 := h1.SplitOff([]objects.BlockID{p2.ID}, nil, nil)

	if !h1.localBlocks.Contains(p1.ID) || h1.localBlocks.Contains(p2.ID) {
		t.Fatalf("unexpected h1 local blocks: %v", h1.GetBlockRefs())
	}
	if !h2.localBlocks.Contains(p2.ID) || h2.localBlocks.Contains(p1.ID) {
		t.Fatalf("unexpected h2 local blocks: %v", h2.GetBlockRefs())
	}
	mustHaveCount(t, h1.blockOwners, p1.ID, 1)
	mustHaveCount(t, h1.blockOwners, p2.ID, 1)
}

// split_off must panic when asked to move an id the caller does not
// locally own.
func TestHandle_Split_PanicsOnUnownedId(t *testing.T) {
	h := CreateRoot()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected split_off to panic on an unowned id")
		}
	}()
	var unowned objects.BlockID
	unowned[0] = 99
	h.SplitOff([]objects.BlockID{unowned}, nil, nil)
}

// Scenario 4: claim of unknown id.
func TestHandle_ClaimUnknownId(t *testing.T) {
	h := CreateRoot()
	var unknown objects.BlockID
	unknown[0] = 7

	claimed := h.ClaimBlockRefs([]objects.BlockID{unknown})
	if len(claimed) != 0 {
		t.Fatalf("expected nothing claimed, got %v", claimed)
	}
	mustHaveCount(t, h.blockOwners, unknown, 0)
}

// Scenario 5: extend with overlap.
func TestHandle_ExtendWithOverlap(t *testing.T) {
	h1 := CreateRoot()
	p1, p2 := testBlock(1), testBlock(2)
	h1.StoreBlock(p1)

	h2 := h1.Clone()
	h2.StoreBlock(p2)

	h1.Extend(h2)

	if !h1.localBlocks.Contains(p1.ID) || !h1.localBlocks.Contains(p2.ID) {
		t.Fatalf("expected h1 to own both ids after extend, got %v", h1.GetBlockRefs())
	}
	if h2.localBlocks.Len() != 0 {
		t.Fatalf("expected h2 to be empty after extend, got %v", h2.GetBlockRefs())
	}
	mustHaveCount(t, h1.blockOwners, p1.ID, 2)
	mustHaveCount(t, h1.blockOwners, p2.ID, 1)

	h2.Release()
	mustHaveCount(t, h1.blockOwners, p1.ID, 1)
	mustHaveCount(t, h1.blockOwners, p2.ID, 1)
}

// Clone preserves counts-by-handle.
func TestHandle_ClonePreservesCounts(t *testing.T) {
	h1 := CreateRoot()
	p1 := testBlock(1)
	h1.StoreBlock(p1)

	h2 := h1.Clone()
	mustHaveCount(t, h1.blockOwners, p1.ID, 2)
	if !h1.localBlocks.Contains(p1.ID) || !h2.localBlocks.Contains(p1.ID) {
		t.Fatalf("expected both handles to locally own %v", p1.ID)
	}
}

// Clone-without-refs is owner-neutral.
func TestHandle_CloneWithoutRefsIsOwnerNeutral(t *testing.T) {
	h1 := CreateRoot()
	p1 := testBlock(1)
	h1.StoreBlock(p1)

	h2 := h1.CloneWithoutRefs()
	if h2.localBlocks.Len() != 0 {
		t.Fatalf("expected empty local set, got %v", h2.GetBlockRefs())
	}
	mustHaveCount(t, h1.blockOwners, p1.ID, 1)
}

// split_off round-trip.
func TestHandle_SplitOffRoundTrip(t *testing.T) {
	h1 := CreateRoot()
	p1, p2 := testBlock(1), testBlock(2)
	h1.StoreBlock(p1)
	h1.StoreBlock(p2)

	before := h1.GetBlockRefs()
	beforeCount1, _ := h1.blockOwners.count(p1.ID)
	beforeCount2, _ := h1.blockOwners.count(p2.ID)

	c := h1.SplitOff([]objects.BlockID{p2.ID}, nil, nil)
	h1.Extend(c)

	after := h1.GetBlockRefs()
	if len(after) != len(before) {
		t.Fatalf("expected %d local refs after round-trip, got %d", len(before), len(after))
	}
	for _, id := range before {
		if !h1.localBlocks.Contains(id) {
			t.Fatalf("expected %v to still be locally owned after round-trip", id)
		}
	}
	mustHaveCount(t, h1.blockOwners, p1.ID, beforeCount1)
	mustHaveCount(t, h1.blockOwners, p2.ID, beforeCount2)
}

// Store idempotence.
func TestHandle_StoreIdempotence(t *testing.T) {
	h := CreateRoot()
	p1 := testBlock(1)
	h.StoreBlock(p1)
	h.StoreBlock(p1)
	mustHaveCount(t, h.blockOwners, p1.ID, 1)
	if _, found := h.blocks.get(p1.ID); !found {
		t.Fatalf("expected block to remain indexed")
	}
}

// Drop idempotence.
func TestHandle_DropIdempotence(t *testing.T) {
	h := CreateRoot()
	p1 := testBlock(1)
	h.StoreBlock(p1)

	h.DropBlockRefs([]objects.BlockID{p1.ID})
	mustHaveCount(t, h.blockOwners, p1.ID, 0)

	// second, identical drop must be a silent no-op, not a panic.
	h.DropBlockRefs([]objects.BlockID{p1.ID})
	mustHaveCount(t, h.blockOwners, p1.ID, 0)
}

func TestHandle_StoreOperationsAndEndorsements(t *testing.T) {
	h := CreateRoot()
	var opID objects.OperationID
	opID[0] = 1
	op := &objects.Operation{ID: opID, Creator: objects.Address{1}, ExpirePeriod: 10}

	var endID objects.EndorsementID
	endID[0] = 2
	end := &objects.Endorsement{ID: endID, Creator: objects.Address{2}, EndorsedBlock: objects.BlockID{9}}

	h.StoreOperations([]*objects.Operation{op})
	h.StoreEndorsements([]*objects.Endorsement{end})

	mustHaveCount(t, h.operationOwners, op.ID, 1)
	mustHaveCount(t, h.endorsementOwners, end.ID, 1)

	view := h.ReadOperations()
	got, found := view.Get(op.ID)
	view.Release()
	if !found || got != op {
		t.Fatalf("expected to read back the stored operation")
	}

	endView := h.ReadEndorsements()
	byBlock := endView.ByEndorsedBlock(end.EndorsedBlock)
	endView.Release()
	if len(byBlock) != 1 || byBlock[0] != end.ID {
		t.Fatalf("expected secondary index lookup by endorsed block to find %v, got %v", end.ID, byBlock)
	}

	h.DropOperationRefs([]objects.OperationID{op.ID})
	h.DropEndorsementRefs([]objects.EndorsementID{end.ID})
	mustHaveCount(t, h.operationOwners, op.ID, 0)
	mustHaveCount(t, h.endorsementOwners, end.ID, 0)
}

func TestHandle_StoreEmptyBatchIsNoop(t *testing.T) {
	h := CreateRoot()
	h.StoreOperations(nil)
	h.StoreEndorsements(nil)
	if h.operationOwners.len() != 0 || h.endorsementOwners.len() != 0 {
		t.Fatalf("expected empty-batch store to be a no-op")
	}
}

func TestHandle_DropOnMissingOwnerEntry_Panics(t *testing.T) {
	h := CreateRoot()
	p1 := testBlock(1)
	h.StoreBlock(p1)
	// Forge a local ref without a matching owner count, simulating a
	// corrupted invariant, to exercise the fatal path.
	h.blockOwners.mu.Lock()
	delete(h.blockOwners.counts, p1.ID)
	h.blockOwners.mu.Unlock()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected drop on a missing owner entry to panic")
		}
	}()
	h.DropBlockRefs([]objects.BlockID{p1.ID})
}

// Scenario 6: concurrent store/drop.
func TestHandle_ConcurrentStoreDrop(t *testing.T) {
	const threads = 8
	const iterations = 200

	root := CreateRoot()
	var wg sync.WaitGroup
	wg.Add(threads)
	for th := 0; th < threads; th++ {
		th := th
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				local := root.Clone()
				var id objects.BlockID
				id[0] = byte(th)
				id[1] = byte(i)
				id[2] = byte(i >> 8)
				p := &objects.Block{ID: id, Creator: objects.Address{byte(th)}}
				local.StoreBlock(p)
				local.Release()
			}
		}()
	}
	wg.Wait()

	if root.blockOwners.len() != 0 {
		t.Fatalf("expected empty owners table after all threads joined, got %d entries", root.blockOwners.len())
	}
	if root.blocks.len() != 0 {
		t.Fatalf("expected empty block index after all threads joined, got %d entries", root.blocks.len())
	}
}
