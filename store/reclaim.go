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

// ReclaimExpiredReservations - discard stalled unsubmitted transactions
//
// a Building or Proved record created more than maxAge checkpoints ago
// is assumed abandoned by a crashed or stalled caller; it is discarded
// and its reservations returned to the spendable state
//
// Submitted records are never reclaimed here; their outcome is resolved
// by sync reconciliation against the expiry horizon
func ReclaimExpiredReservations(maxAge uint64) ([]merkle.Digest, error) {
	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return nil, err
	}

	checkpoint, synchronised := trx.GetN(storage.Pool.Checkpoint, checkpointKey)
	if !synchronised {
		trx.Abort()
		return nil, nil
	}

	stalled := []*txrecord.Record(nil)
	err = storage.Pool.Transactions.NewFetchCursor().Map(func(key []byte, value []byte) error {
		var txId merkle.Digest
		err := merkle.DigestFromBytes(&txId, key)
		if nil != err {
			return err
		}
		record, err := txrecord.Unpack(txId, value)
		if nil != err {
			return err
		}
		if txrecord.Building != record.Status && txrecord.Proved != record.Status {
			return nil
		}
		if checkpoint > record.CreatedAt+maxAge {
			stalled = append(stalled, record)
		}
		return nil
	})
	if nil != err {
		trx.Abort()
		return nil, err
	}

	event := Event{
		Checkpoint: checkpoint,
	}

	for _, record := range stalled {
		released, err := releaseNotes(trx, record.Id, record.Consumed)
		if nil != err {
			trx.Abort()
			return nil, err
		}
		record.Status = txrecord.Discarded
		trx.Put(storage.Pool.Transactions, record.Id[:], record.Pack())
		event.Notes = append(event.Notes, released...)
		event.Transactions = append(event.Transactions, record.Id)
	}

	err = trx.Commit()
	if nil != err {
		return nil, err
	}

	if 0 != len(event.Transactions) {
		globalData.log.Warnf("reclaimed %d stalled reservations", len(event.Transactions))
		globalData.bus.publish(event)
	}
	return event.Transactions, nil
}
