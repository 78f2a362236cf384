// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

// MemoryFootprintProvider is implemented by types that can report an
// estimate of their own in-memory size, including owned substructures.
type MemoryFootprintProvider interface {
	GetMemoryFootprint() *MemoryFootprint
}
