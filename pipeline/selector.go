// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/note"
)

// Selector - choose the inputs covering an amount
//
// the candidate list is every spendable note of the paying account,
// largest value first; the result must cover the amount exactly or with
// change
type Selector func(candidates []*note.Note, amount uint64) ([]*note.Note, error)

// LargestFirst - take the biggest notes until the amount is covered
//
// minimises the input count, which keeps proving cost down
func LargestFirst(candidates []*note.Note, amount uint64) ([]*note.Note, error) {

	selected := []*note.Note(nil)
	total := uint64(0)
	for _, n := range candidates {
		selected = append(selected, n)
		total += n.Value
		if total >= amount {
			return selected, nil
		}
	}
	return nil, fault.NoSpendableNotes
}

// SmallestFirst - consolidate small notes while covering the amount
//
// trades a larger proof for a tidier note set
func SmallestFirst(candidates []*note.Note, amount uint64) ([]*note.Note, error) {

	selected := []*note.Note(nil)
	total := uint64(0)
	for i := len(candidates) - 1; i >= 0; i -= 1 {
		selected = append(selected, candidates[i])
		total += candidates[i].Value
		if total >= amount {
			return selected, nil
		}
	}
	return nil, fault.NoSpendableNotes
}
