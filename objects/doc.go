// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package objects defines the domain payloads shared between subsystems of a
// blockchain node -- blocks, operations and endorsements -- and the
// content-addressed ids that identify them.
package objects
