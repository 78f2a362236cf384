// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package objects

// Block is an immutable, content-addressed block of the graph. Its
// ParentIDs/OperationIDs/EndorsementIDs fields are plain data: storing a
// Block does not implicitly claim refs on the objects they name. A holder
// that wants those objects kept alive must claim refs on them explicitly.
type Block struct {
	ID             BlockID
	Slot           Slot
	Creator        Address
	ParentIDs      []BlockID
	OperationIDs   []OperationID
	EndorsementIDs []EndorsementID
	Bytes          []byte
}

// Operation is an immutable, content-addressed operation (a transaction in
// the Massa sense: transfer, roll buy/sell, smart-contract call, ...).
type Operation struct {
	ID           OperationID
	Creator      Address
	ExpirePeriod uint64
	Bytes        []byte
}

// Endorsement is an immutable, content-addressed attestation that a given
// block is a valid parent candidate at a given slot.
type Endorsement struct {
	ID            EndorsementID
	Creator       Address
	Slot          Slot
	Index         uint32
	EndorsedBlock BlockID
	Bytes         []byte
}
