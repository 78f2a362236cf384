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

import "fmt"

// BlockID is the content-addressed identifier of a Block: the Keccak-256
// digest of its canonical byte encoding. The id doubles as a native,
// allocation-free Go map key.
type BlockID [32]byte

// OperationID is the content-addressed identifier of an Operation.
type OperationID [32]byte

// EndorsementID is the content-addressed identifier of an Endorsement.
type EndorsementID [32]byte

func (id BlockID) String() string       { return fmt.Sprintf("blk:%x", id[:4]) }
func (id OperationID) String() string   { return fmt.Sprintf("op:%x", id[:4]) }
func (id EndorsementID) String() string { return fmt.Sprintf("end:%x", id[:4]) }

// Address identifies a block/operation/endorsement creator: the digest of
// its public key.
type Address [32]byte

func (a Address) String() string { return fmt.Sprintf("addr:%x", a[:4]) }

// Slot identifies a position in the multi-threaded block graph: a period
// number and the thread within that period.
type Slot struct {
	Period uint64
	Thread uint8
}

// Compare orders slots first by period, then by thread.
func (s Slot) Compare(other Slot) int {
	if s.Period != other.Period {
		if s.Period < other.Period {
			return -1
		}
		return 1
	}
	switch {
	case s.Thread < other.Thread:
		return -1
	case s.Thread > other.Thread:
		return 1
	default:
		return 0
	}
}
