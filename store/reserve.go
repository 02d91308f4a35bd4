// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/storage"
)

// ReserveNotes - take an exclusive reservation on a set of notes
//
// all-or-nothing: if any note is missing or not spendable no reservation
// is taken at all; a fault.NoteAlreadyReserved result means the caller
// lost a race and must reselect inputs
func ReserveNotes(txId merkle.Digest, noteIds []merkle.Digest) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	err = reserveNotes(trx, txId, noteIds)
	if nil != err {
		trx.Abort()
		return err
	}

	err = trx.Commit()
	if nil != err {
		return err
	}

	globalData.bus.publish(Event{
		Notes: noteIds,
	})
	return nil
}

// ReleaseNotes - return a transaction's reservations to the spendable
// state
//
// only notes still reserved by the named transaction are touched; notes
// already observed spent stay spent
func ReleaseNotes(txId merkle.Digest, noteIds []merkle.Digest) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	released, err := releaseNotes(trx, txId, noteIds)
	if nil != err {
		trx.Abort()
		return err
	}

	err = trx.Commit()
	if nil != err {
		return err
	}

	if 0 != len(released) {
		globalData.bus.publish(Event{
			Notes: released,
		})
	}
	return nil
}

// reserve inside an open transaction, for composition with a record
// insert
func reserveNotes(trx storage.Transaction, txId merkle.Digest, noteIds []merkle.Digest) error {

	for _, noteId := range noteIds {

		packed := trx.Get(storage.Pool.Notes, noteId[:])
		if nil == packed {
			return fault.NoteNotFound
		}
		n, err := note.Unpack(noteId, packed)
		if nil != err {
			return err
		}
		if note.CommittedUnspent != n.State {
			return fault.NoteAlreadyReserved
		}

		n.State = note.ConsumedPending
		n.ReservedBy = txId
		trx.Put(storage.Pool.Notes, n.Id[:], n.Pack())
		trx.Delete(storage.Pool.OwnerNotes, spendableKey(n.Owner, n.Id))
	}
	return nil
}

// mark a transaction's reservations spent inside an open transaction
//
// notes already observed spent through a sync round are left alone
func confirmNotes(trx storage.Transaction, txId merkle.Digest, noteIds []merkle.Digest, checkpoint uint64) ([]merkle.Digest, error) {

	spent := []merkle.Digest(nil)

	for _, noteId := range noteIds {

		packed := trx.Get(storage.Pool.Notes, noteId[:])
		if nil == packed {
			continue
		}
		n, err := note.Unpack(noteId, packed)
		if nil != err {
			return nil, err
		}
		if note.ConsumedPending != n.State || txId != n.ReservedBy {
			continue
		}

		n.State = note.CommittedSpent
		n.ReservedBy = merkle.Digest{}
		n.CommitHeight = checkpoint
		trx.Put(storage.Pool.Notes, n.Id[:], n.Pack())
		spent = append(spent, noteId)
	}
	return spent, nil
}

// release inside an open transaction, for composition with a status
// change
func releaseNotes(trx storage.Transaction, txId merkle.Digest, noteIds []merkle.Digest) ([]merkle.Digest, error) {

	released := []merkle.Digest(nil)

	for _, noteId := range noteIds {

		packed := trx.Get(storage.Pool.Notes, noteId[:])
		if nil == packed {
			continue
		}
		n, err := note.Unpack(noteId, packed)
		if nil != err {
			return nil, err
		}
		if note.ConsumedPending != n.State || txId != n.ReservedBy {
			continue
		}

		n.State = note.CommittedUnspent
		n.ReservedBy = merkle.Digest{}
		trx.Put(storage.Pool.Notes, n.Id[:], n.Pack())
		trx.Put(storage.Pool.OwnerNotes, spendableKey(n.Owner, n.Id), n.Id[:])
		released = append(released, noteId)
	}
	return released, nil
}
