// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/storage"
)

// globals
type globalDataType struct {
	sync.RWMutex
	log     *logger.L
	horizon uint64
	bus     *bus

	// set once during initialise
	initialised bool
}

// global storage
var globalData globalDataType

// Initialise - set up the store layer
//
// storage must already be initialised; reindex is the flag returned by
// storage.Initialise and triggers a rebuild of the spendable index
//
// horizon is the number of checkpoints a submitted transaction may
// remain unobserved before sync reconciliation discards it; zero
// disables the expiry
func Initialise(reindex bool, horizon uint64) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("store")
	globalData.log.Info("starting…")

	globalData.horizon = horizon
	globalData.bus = newBus()

	if reindex {
		globalData.log.Warn("rebuilding spendable index…")
		err := rebuildSpendableIndex()
		if nil != err {
			return err
		}
		err = storage.ReindexDone()
		if nil != err {
			return err
		}
	}

	globalData.initialised = true

	return nil
}

// Finalise - shut down the store layer
func Finalise() error {

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")

	globalData.Lock()
	globalData.bus.close()
	globalData.initialised = false
	globalData.Unlock()

	globalData.log.Flush()

	return nil
}

// rebuild the o ⧺ owner ⧺ note id index from the notes pool
//
// forward-only schema migration support: version 0x100 databases carry
// no spendable index
func rebuildSpendableIndex() error {

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	err = storage.Pool.Notes.NewFetchCursor().Map(func(key []byte, value []byte) error {
		var noteId merkle.Digest
		err := merkle.DigestFromBytes(&noteId, key)
		if nil != err {
			return err
		}
		n, err := note.Unpack(noteId, value)
		if nil != err {
			return err
		}
		if note.CommittedUnspent == n.State {
			trx.Put(storage.Pool.OwnerNotes, spendableKey(n.Owner, n.Id), n.Id[:])
		}
		return nil
	})
	if nil != err {
		trx.Abort()
		return err
	}

	return trx.Commit()
}
