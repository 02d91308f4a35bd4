// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/keomprotocol/miden-client/fault"
)

// Access - batch access to the single database
type Access interface {
	Abort()
	Begin() error
	Commit() error
	Delete(key []byte)
	Get(key []byte) ([]byte, error)
	GetCommitted(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	HasCommitted(key []byte) (bool, error)
	InUse() bool
	Iterator(searchRange *ldb_util.Range) iterator.Iterator
	Put(key []byte, value []byte)
}

// AccessData - wraps the database handle, the current batch and the
// read-through cache
type AccessData struct {
	sync.Mutex
	inUse bool
	db    *leveldb.DB
	batch *leveldb.Batch
	cache Cache
}

func newDA(db *leveldb.DB, batch *leveldb.Batch, cache Cache) Access {
	return &AccessData{
		inUse: false,
		db:    db,
		batch: batch,
		cache: cache,
	}
}

// Begin - mark the batch as owned by one logical operation
func (d *AccessData) Begin() error {
	d.Lock()
	defer d.Unlock()

	if d.inUse {
		return fault.TransactionInUse
	}

	d.inUse = true
	return nil
}

// Put - record a pending write
func (d *AccessData) Put(key []byte, value []byte) {
	d.cache.Set(dbPut, string(key), value)
	d.batch.Put(key, value)
}

// Delete - record a pending delete
func (d *AccessData) Delete(key []byte) {
	d.cache.Set(dbDelete, string(key), []byte{})
	d.batch.Delete(key)
}

// Commit - write the whole batch in one atomic database write
func (d *AccessData) Commit() error {
	d.Lock()
	defer d.Unlock()

	err := d.db.Write(d.batch, nil)
	d.batch.Reset()
	d.inUse = false
	return err
}

// Abort - drop all pending writes
func (d *AccessData) Abort() {
	d.Lock()
	defer d.Unlock()

	d.batch.Reset()
	d.cache.Clear()
	d.inUse = false
}

// Get - pending writes are visible before commit
//
// only the batch owner may call this: an outside reader must never
// observe writes that could still abort
func (d *AccessData) Get(key []byte) ([]byte, error) {
	value, found, deleted := d.cache.Get(string(key))
	if found {
		return value, nil
	}
	if deleted {
		return nil, leveldb.ErrNotFound
	}
	return d.db.Get(key, nil)
}

// GetCommitted - read the database only, ignoring any open batch
func (d *AccessData) GetCommitted(key []byte) ([]byte, error) {
	return d.db.Get(key, nil)
}

// Has - pending writes and deletes are visible before commit
//
// batch owner only, like Get
func (d *AccessData) Has(key []byte) (bool, error) {
	_, found, deleted := d.cache.Get(string(key))
	if found {
		return true, nil
	}
	if deleted {
		return false, nil
	}
	return d.db.Has(key, nil)
}

// HasCommitted - existence check against the database only
func (d *AccessData) HasCommitted(key []byte) (bool, error) {
	return d.db.Has(key, nil)
}

// Iterator - raw database iterator over a key range
//
// iteration does not observe uncommitted batch contents
func (d *AccessData) Iterator(searchRange *ldb_util.Range) iterator.Iterator {
	return d.db.NewIterator(searchRange, nil)
}

// InUse - true while a batch is open
func (d *AccessData) InUse() bool {
	d.Lock()
	defer d.Unlock()
	return d.inUse
}
