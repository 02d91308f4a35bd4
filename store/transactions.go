// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/storage"
	"github.com/keomprotocol/miden-client/txrecord"
)

// GetTransaction - read one transaction record
func GetTransaction(txId merkle.Digest) (*txrecord.Record, error) {
	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	packed := storage.Pool.Transactions.Get(txId[:])
	if nil == packed {
		return nil, fault.TransactionNotFound
	}
	return txrecord.Unpack(txId, packed)
}

// InsertTransaction - record a new transaction and reserve its inputs
//
// the record and every input reservation commit together; if any input
// is missing or already reserved nothing is written and the caller must
// reselect inputs
func InsertTransaction(record *txrecord.Record) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}
	if txrecord.Building != record.Status {
		return fault.TransactionNotPending
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	if trx.Has(storage.Pool.Transactions, record.Id[:]) {
		trx.Abort()
		return fault.TransactionInUse
	}

	err = reserveNotes(trx, record.Id, record.Consumed)
	if nil != err {
		trx.Abort()
		return err
	}

	trx.Put(storage.Pool.Transactions, record.Id[:], record.Pack())

	err = trx.Commit()
	if nil != err {
		return err
	}

	globalData.bus.publish(Event{
		Notes:        record.Consumed,
		Transactions: []merkle.Digest{record.Id},
	})
	return nil
}

// SetProved - attach a proof and advance the record to Proved
func SetProved(txId merkle.Digest, proof []byte) error {
	return advance(txId, txrecord.Proved, func(record *txrecord.Record) {
		record.Proof = proof
	})
}

// SetSubmitted - mark the record handed to the node at a checkpoint
//
// the checkpoint starts the expiry horizon for sync reconciliation
func SetSubmitted(txId merkle.Digest, checkpoint uint64) error {
	return advance(txId, txrecord.Submitted, func(record *txrecord.Record) {
		record.SubmittedAt = checkpoint
	})
}

// DiscardTransaction - abandon a pending transaction
//
// reservations still held by the record return to the spendable state;
// inputs already observed spent on chain stay spent
func DiscardTransaction(txId merkle.Digest) error {
	return FinalizeTransaction(txId, txrecord.Discarded)
}

// FinalizeTransaction - settle a pending record to a terminal outcome
//
// Confirmed marks the record's reservations spent and requires a
// Submitted record; Discarded returns them to the spendable state. The
// record status and every note change commit together. Synchronisation
// reaches the same outcomes on its own; this entry point serves callers
// that learn the outcome out of band
func FinalizeTransaction(txId merkle.Digest, outcome txrecord.Status) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}
	if txrecord.Confirmed != outcome && txrecord.Discarded != outcome {
		return fault.InvalidOutcome
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	packed := trx.Get(storage.Pool.Transactions, txId[:])
	if nil == packed {
		trx.Abort()
		return fault.TransactionNotFound
	}
	record, err := txrecord.Unpack(txId, packed)
	if nil != err {
		trx.Abort()
		return err
	}
	if !record.Status.CanTransitionTo(outcome) {
		trx.Abort()
		return fault.TransactionNotPending
	}

	touched := []merkle.Digest(nil)
	if txrecord.Confirmed == outcome {
		checkpoint, _ := trx.GetN(storage.Pool.Checkpoint, checkpointKey)
		touched, err = confirmNotes(trx, txId, record.Consumed, checkpoint)
	} else {
		touched, err = releaseNotes(trx, txId, record.Consumed)
	}
	if nil != err {
		trx.Abort()
		return err
	}

	record.Status = outcome
	trx.Put(storage.Pool.Transactions, txId[:], record.Pack())

	err = trx.Commit()
	if nil != err {
		return err
	}

	globalData.bus.publish(Event{
		Notes:        touched,
		Transactions: []merkle.Digest{txId},
	})
	return nil
}

// PendingTransactions - every record still holding reservations
func PendingTransactions() ([]*txrecord.Record, error) {
	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	records := []*txrecord.Record(nil)
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
		if record.Status.IsPending() {
			records = append(records, record)
		}
		return nil
	})
	if nil != err {
		return nil, err
	}
	return records, nil
}

// single status step under the store lock
func advance(txId merkle.Digest, next txrecord.Status, mutate func(*txrecord.Record)) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	packed := trx.Get(storage.Pool.Transactions, txId[:])
	if nil == packed {
		trx.Abort()
		return fault.TransactionNotFound
	}
	record, err := txrecord.Unpack(txId, packed)
	if nil != err {
		trx.Abort()
		return err
	}
	if !record.Status.CanTransitionTo(next) {
		trx.Abort()
		return fault.TransactionNotPending
	}

	record.Status = next
	mutate(record)
	trx.Put(storage.Pool.Transactions, txId[:], record.Pack())

	err = trx.Commit()
	if nil != err {
		return err
	}

	globalData.bus.publish(Event{
		Transactions: []merkle.Digest{txId},
	})
	return nil
}
