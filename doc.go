// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package objstore implements the shared object store at the heart of a
// blockchain node: a thread-safe, reference-counted, content-addressed
// repository for blocks, operations and endorsements.
//
// Every subsystem that needs to keep one of these objects alive holds a
// Handle. Objects are automatically evicted the instant no Handle anywhere
// in the process references them any more. See Handle for the public
// surface; the owner tables and per-category indexes are internal
// collaborators not exposed outside the package.
package objstore
