// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/storage"
	"github.com/keomprotocol/miden-client/txrecord"
)

// Delta - one verified batch of chain updates
//
// the synchroniser verifies inclusion evidence before handing a delta to
// the store; the store only enforces ordering and lifecycle rules
type Delta struct {
	Checkpoint uint64
	Previous   merkle.Digest // reference recorded at the prior checkpoint
	Reference  merkle.Digest // chain digest at this checkpoint
	Accounts   []*account.Account
	Notes      []*note.Note
}

// ApplySyncDelta - apply one delta and advance the checkpoint atomically
//
// either every update in the delta and the new checkpoint reach the
// database together or none do; a crash can never leave the checkpoint
// claiming updates that were not applied
//
// a delta at the stored checkpoint is a completed re-delivery and is
// ignored; one below it returns fault.CheckpointMismatch; a previous
// reference that does not match the stored reference returns
// fault.ChainDivergence and the caller decides recovery policy
func ApplySyncDelta(delta *Delta) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	current, synchronised := trx.GetN(storage.Pool.Checkpoint, checkpointKey)
	if synchronised {
		if delta.Checkpoint == current {
			trx.Abort()
			return nil
		}
		if delta.Checkpoint < current {
			trx.Abort()
			return fault.CheckpointMismatch
		}

		var reference merkle.Digest
		packed := trx.Get(storage.Pool.Checkpoint, checkpointRefKey)
		if nil != packed {
			err = merkle.DigestFromBytes(&reference, packed)
			if nil != err {
				trx.Abort()
				return err
			}
			if reference != delta.Previous {
				trx.Abort()
				return fault.ChainDivergence
			}
		}
	}

	event := Event{
		Checkpoint: delta.Checkpoint,
	}

	for _, update := range delta.Accounts {
		err = applyAccountUpdate(trx, update)
		if nil != err {
			trx.Abort()
			return err
		}
		event.Accounts = append(event.Accounts, update.Identifier)
	}

	for _, update := range delta.Notes {
		changed, err := applyNoteUpdate(trx, update, delta.Checkpoint)
		if nil != err {
			trx.Abort()
			return err
		}
		if changed {
			event.Notes = append(event.Notes, update.Id)
		}
	}

	settled, err := reconcileSubmitted(trx, delta.Checkpoint)
	if nil != err {
		trx.Abort()
		return err
	}
	event.Transactions = settled

	trx.PutN(storage.Pool.Checkpoint, checkpointKey, delta.Checkpoint)
	trx.Put(storage.Pool.Checkpoint, checkpointRefKey, delta.Reference[:])

	err = trx.Commit()
	if nil != err {
		return err
	}

	globalData.log.Infof("checkpoint: %d  accounts: %d  notes: %d  settled: %d",
		delta.Checkpoint, len(event.Accounts), len(event.Notes), len(event.Transactions))

	globalData.bus.publish(event)
	return nil
}

// one account update inside an open delta transaction
//
// the tracked flag is a local setting and survives remote updates
func applyAccountUpdate(trx storage.Transaction, update *account.Account) error {

	acc := &account.Account{
		Identifier:     update.Identifier,
		SequenceNumber: update.SequenceNumber,
		Commitment:     update.Commitment,
	}

	existing := trx.Get(storage.Pool.Accounts, update.Identifier.Bytes())
	if nil != existing {
		stored, err := account.Unpack(update.Identifier, existing)
		if nil != err {
			return err
		}
		if update.SequenceNumber <= stored.SequenceNumber {
			return fault.StaleSequence
		}
		acc.Tracked = stored.Tracked
	}

	trx.Put(storage.Pool.Accounts, update.Identifier.Bytes(), acc.Pack())
	return nil
}

// one note update inside an open delta transaction
//
// returns false when the update carries no local change
func applyNoteUpdate(trx storage.Transaction, update *note.Note, checkpoint uint64) (bool, error) {

	// a chain observation is always a committed state
	if note.CommittedUnspent != update.State && note.CommittedSpent != update.State {
		return false, fault.IllegalNoteTransition
	}

	existing := trx.Get(storage.Pool.Notes, update.Id[:])
	if nil == existing {

		n := &note.Note{
			Id:           update.Id,
			AssetId:      update.AssetId,
			Value:        update.Value,
			Recipient:    update.Recipient,
			Owner:        update.Owner,
			State:        update.State,
			CommitHeight: checkpoint,
		}
		trx.Put(storage.Pool.Notes, n.Id[:], n.Pack())
		if note.CommittedUnspent == n.State {
			trx.Put(storage.Pool.OwnerNotes, spendableKey(n.Owner, n.Id), n.Id[:])
		}
		return true, nil
	}

	stored, err := note.Unpack(update.Id, existing)
	if nil != err {
		return false, err
	}

	if stored.State == update.State {
		return false, nil
	}

	// a re-observation of an unspent note never clears a local
	// reservation; the reservation settles through its transaction
	if note.ConsumedPending == stored.State && note.CommittedUnspent == update.State {
		return false, nil
	}

	if !stored.State.CanTransitionTo(update.State) {
		return false, fault.IllegalNoteTransition
	}

	stored.State = update.State
	stored.CommitHeight = checkpoint
	if note.CommittedSpent == update.State {
		stored.ReservedBy = merkle.Digest{}
		trx.Delete(storage.Pool.OwnerNotes, spendableKey(stored.Owner, stored.Id))
	}
	if note.CommittedUnspent == update.State {
		trx.Put(storage.Pool.OwnerNotes, spendableKey(stored.Owner, stored.Id), stored.Id[:])
	}

	trx.Put(storage.Pool.Notes, stored.Id[:], stored.Pack())
	return true, nil
}

// settle submitted transactions against the note states in this delta
//
// a submitted record confirms when every consumed note is observed spent;
// one that stays unobserved past the expiry horizon is discarded and its
// reservations rolled back
func reconcileSubmitted(trx storage.Transaction, checkpoint uint64) ([]merkle.Digest, error) {

	// the cursor sees only committed records; the records settled here
	// were committed by earlier operations
	pending := []*txrecord.Record(nil)
	err := storage.Pool.Transactions.NewFetchCursor().Map(func(key []byte, value []byte) error {
		var txId merkle.Digest
		err := merkle.DigestFromBytes(&txId, key)
		if nil != err {
			return err
		}
		record, err := txrecord.Unpack(txId, value)
		if nil != err {
			return err
		}
		if txrecord.Submitted == record.Status {
			pending = append(pending, record)
		}
		return nil
	})
	if nil != err {
		return nil, err
	}

	settled := []merkle.Digest(nil)

loop:
	for _, record := range pending {

		spent := 0
		for _, noteId := range record.Consumed {
			packed := trx.Get(storage.Pool.Notes, noteId[:])
			if nil == packed {
				continue
			}
			n, err := note.Unpack(noteId, packed)
			if nil != err {
				return nil, err
			}
			if note.CommittedSpent == n.State {
				spent += 1
			}
		}

		if spent == len(record.Consumed) {
			record.Status = txrecord.Confirmed
			trx.Put(storage.Pool.Transactions, record.Id[:], record.Pack())
			settled = append(settled, record.Id)
			continue loop
		}

		if 0 == globalData.horizon {
			continue loop
		}
		if checkpoint <= record.SubmittedAt+globalData.horizon {
			continue loop
		}

		// past the horizon with effects unobserved
		_, err = releaseNotes(trx, record.Id, record.Consumed)
		if nil != err {
			return nil, err
		}
		record.Status = txrecord.Discarded
		trx.Put(storage.Pool.Transactions, record.Id[:], record.Pack())
		settled = append(settled, record.Id)
	}

	return settled, nil
}
