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

// refSet is the set of ids a single Handle locally owns for one object
// category. It is never shared between handles and never locked: a handle
// is used from one goroutine at a time, so membership checks are plain map
// operations.
type refSet[ID comparable] map[ID]struct{}

func newRefSet[ID comparable]() refSet[ID] {
	return make(refSet[ID])
}

func (s refSet[ID]) Contains(id ID) bool {
	_, found := s[id]
	return found
}

func (s refSet[ID]) Add(id ID) {
	s[id] = struct{}{}
}

func (s refSet[ID]) Remove(id ID) {
	delete(s, id)
}

func (s refSet[ID]) Len() int {
	return len(s)
}

// Ids returns a snapshot slice of the set's current members. Callers that
// need to mutate the set while processing its former members (§9's
// moved-out-copy discipline) should collect this snapshot first.
func (s refSet[ID]) Ids() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// clone returns an independent copy of this set.
func (s refSet[ID]) clone() refSet[ID] {
	c := make(refSet[ID], len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}
