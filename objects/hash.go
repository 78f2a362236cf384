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

import (
	"sync"

	"golang.org/x/crypto/sha3"
)

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

// keccak256 derives the 32-byte digest of data using a pooled hasher.
func keccak256(data []byte) [32]byte {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res [32]byte
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

// ComputeBlockID derives the id a Block's canonical bytes claim.
func ComputeBlockID(canonicalBytes []byte) BlockID {
	return BlockID(keccak256(canonicalBytes))
}

// ComputeOperationID derives the id an Operation's canonical bytes claim.
func ComputeOperationID(canonicalBytes []byte) OperationID {
	return OperationID(keccak256(canonicalBytes))
}

// ComputeEndorsementID derives the id an Endorsement's canonical bytes claim.
func ComputeEndorsementID(canonicalBytes []byte) EndorsementID {
	return EndorsementID(keccak256(canonicalBytes))
}
