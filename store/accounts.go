// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/storage"
)

// GetAccount - read the committed state of one account
func GetAccount(id account.Identifier) (*account.Account, error) {
	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	packed := storage.Pool.Accounts.Get(id.Bytes())
	if nil == packed {
		return nil, fault.AccountNotFound
	}
	return account.Unpack(id, packed)
}

// InsertAccount - create or advance one account record
//
// used to start tracking an account or to record a foreign account
// referenced by a note; an update for an existing account must carry a
// strictly higher sequence number
func InsertAccount(acc *account.Account) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	existing := trx.Get(storage.Pool.Accounts, acc.Identifier.Bytes())
	if nil != existing {
		stored, err := account.Unpack(acc.Identifier, existing)
		if nil != err {
			trx.Abort()
			return err
		}
		if acc.SequenceNumber <= stored.SequenceNumber {
			trx.Abort()
			return fault.StaleSequence
		}
	}

	trx.Put(storage.Pool.Accounts, acc.Identifier.Bytes(), acc.Pack())

	err = trx.Commit()
	if nil != err {
		return err
	}

	globalData.bus.publish(Event{
		Accounts: []account.Identifier{acc.Identifier},
	})
	return nil
}

// TrackedAccounts - all accounts controlled by this client
func TrackedAccounts() ([]*account.Account, error) {
	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	accounts := []*account.Account(nil)
	err := storage.Pool.Accounts.NewFetchCursor().Map(func(key []byte, value []byte) error {
		var id account.Identifier
		if account.IdentifierLength != len(key) {
			return fault.InvalidRecordLength
		}
		copy(id[:], key)
		acc, err := account.Unpack(id, value)
		if nil != err {
			return err
		}
		if acc.Tracked {
			accounts = append(accounts, acc)
		}
		return nil
	})
	if nil != err {
		return nil, err
	}
	return accounts, nil
}
