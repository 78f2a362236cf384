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
	"github.com/chainmesh/objstore/common"
	"github.com/chainmesh/objstore/objects"
)

var (
	_ common.Releaser = (*Handle)(nil)
	_ common.Releaser = (*blockIndexView)(nil)
	_ common.Releaser = (*operationIndexView)(nil)
	_ common.Releaser = (*endorsementIndexView)(nil)

	_ common.MemoryFootprintProvider = (*blockIndex)(nil)
	_ common.MemoryFootprintProvider = (*operationIndex)(nil)
	_ common.MemoryFootprintProvider = (*endorsementIndex)(nil)
	_ common.MemoryFootprintProvider = (*ownerTable[objects.BlockID])(nil)
)
