// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tracker - queries over the locally projected note set
package tracker

import (
	"bytes"
	"context"
	"sort"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/store"
)

// Spendable - the committed-unspent notes of one owner, largest value
// first
//
// assetFilter narrows to one asset when non-zero
func Spendable(owner account.Identifier, assetFilter merkle.Digest) ([]*note.Note, error) {

	notes, err := store.SpendableNotes(owner, assetFilter)
	if nil != err {
		return nil, err
	}

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Value != notes[j].Value {
			return notes[i].Value > notes[j].Value
		}
		// equal values: keep the order deterministic
		return bytes.Compare(notes[i].Id[:], notes[j].Id[:]) < 0
	})
	return notes, nil
}

// Balance - the total spendable value of one owner
func Balance(owner account.Identifier, assetFilter merkle.Digest) (uint64, error) {

	notes, err := store.SpendableNotes(owner, assetFilter)
	if nil != err {
		return 0, err
	}

	total := uint64(0)
	for _, n := range notes {
		total += n.Value
	}
	return total, nil
}

// settled states: the chain has recorded the note
func isSettled(state note.State) bool {
	return note.CommittedUnspent == state || note.CommittedSpent == state
}

// AwaitSettlement - block until a note is recorded on chain
//
// returns immediately if the note is already committed; otherwise waits
// for a change event naming the note or for context cancellation
func AwaitSettlement(ctx context.Context, noteId merkle.Digest) (note.State, error) {

	// subscribe before the first read so a commit between the read and
	// the subscription cannot be missed
	queue, cancel := store.Subscribe()
	defer cancel()

	n, err := store.GetNote(noteId)
	if nil == err && isSettled(n.State) {
		return n.State, nil
	}

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()

		case event, ok := <-queue:
			if !ok {
				return 0, context.Canceled
			}

			touched := false
			for _, id := range event.Notes {
				if noteId == id {
					touched = true
					break
				}
			}
			if !touched {
				continue
			}

			n, err := store.GetNote(noteId)
			if nil == err && isSettled(n.State) {
				return n.State, nil
			}
		}
	}
}
