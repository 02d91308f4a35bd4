// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/storage"
)

// key for the o pool: owner ⧺ note id
func spendableKey(owner account.Identifier, noteId merkle.Digest) []byte {
	key := make([]byte, 0, account.IdentifierLength+merkle.DigestLength)
	key = append(key, owner[:]...)
	return append(key, noteId[:]...)
}

// GetNote - read the committed state of one note
func GetNote(id merkle.Digest) (*note.Note, error) {
	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	packed := storage.Pool.Notes.Get(id[:])
	if nil == packed {
		return nil, fault.NoteNotFound
	}
	return note.Unpack(id, packed)
}

// InsertNote - record a locally created note in Expected state
//
// a later sync round commits the note once it is independently observed
// on chain
func InsertNote(n *note.Note) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}
	if note.Expected != n.State {
		return fault.IllegalNoteTransition
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	if trx.Has(storage.Pool.Notes, n.Id[:]) {
		trx.Abort()
		return fault.IllegalNoteTransition
	}

	trx.Put(storage.Pool.Notes, n.Id[:], n.Pack())

	err = trx.Commit()
	if nil != err {
		return err
	}

	globalData.bus.publish(Event{
		Notes: []merkle.Digest{n.Id},
	})
	return nil
}

// SpendableNotes - the committed-unspent notes of one owner
//
// assetFilter narrows to a single asset when non-zero
//
// the result is correct at the instant of the query only; callers must
// reserve promptly and handle reservation conflicts
func SpendableNotes(owner account.Identifier, assetFilter merkle.Digest) ([]*note.Note, error) {
	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	notes := []*note.Note(nil)

	cursor := storage.Pool.OwnerNotes.NewFetchCursor().Seek(owner.Bytes())
	err := cursor.Map(func(key []byte, value []byte) error {

		// the cursor runs to the end of the o pool; stop at the next owner
		if !bytes.HasPrefix(key, owner.Bytes()) {
			return errStopIteration
		}

		var noteId merkle.Digest
		err := merkle.DigestFromBytes(&noteId, value)
		if nil != err {
			return err
		}

		n, err := GetNote(noteId)
		if nil != err {
			return err
		}

		// the index may briefly trail the notes pool; recheck the state
		if note.CommittedUnspent != n.State {
			return nil
		}
		if !assetFilter.IsZero() && assetFilter != n.AssetId {
			return nil
		}

		notes = append(notes, n)
		return nil
	})
	if errStopIteration == err {
		err = nil
	}
	if nil != err {
		return nil, err
	}
	return notes, nil
}

// sentinel to stop a cursor map early
var errStopIteration = fault.ProcessError("stop iteration")
